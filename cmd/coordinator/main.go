package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/services"
	httphandlers "github.com/Shockvaluemedia/directfanz-project-sub008/internal/handlers/http"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/accounts"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/auth"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/middleware"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/monitoring"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/payments"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/recording"
	repositories "github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/repositories"
	signalgw "github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/signal"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/storage"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/config"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/distributed"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/logger"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// gatewayBinding breaks the construction cycle between the session table and
// the websocket gateway: the table needs an event sink before the gateway
// (which needs the services built on the table) exists. No events flow until
// the servers start, by which point the gateway has been bound.
type gatewayBinding struct {
	gw *signalgw.WebSocketServer
}

func (b *gatewayBinding) SendToUser(sessionID domain.SessionID, userID domain.UserID, event string, payload any) {
	if b.gw != nil {
		b.gw.SendToUser(sessionID, userID, event, payload)
	}
}

func (b *gatewayBinding) BroadcastToSession(sessionID domain.SessionID, event string, payload any) {
	if b.gw != nil {
		b.gw.BroadcastToSession(sessionID, event, payload)
	}
}

func (b *gatewayBinding) Notify(ctx context.Context, userID domain.UserID, event string, payload any) {
	if b.gw != nil {
		b.gw.Notify(ctx, userID, event, payload)
	}
}

func main() {
	startTime := time.Now()

	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/coordinator/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Errorw("error shutting down tracer provider", "error", err)
		}
	}()

	// Initialize repository factory
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}

	// Initialize repositories
	sessionRepo := repoFactory.CreateSessionRepository()
	chatRepo := repoFactory.CreateChatRepository()
	donationRepo := repoFactory.CreateDonationRepository()

	// External collaborators
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	entitlements := accounts.NewEntitlementClient(cfg.Accounts.BaseURL, log)
	paymentProcessor := payments.NewHTTPProcessor(cfg.Donations.PaymentURL, log)

	// Recording pipeline (optional)
	var supervisor *recording.Supervisor
	if cfg.Recording.Enabled {
		store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		}, log)
		if err != nil {
			log.Fatalw("failed to create artifact store", "error", err)
		}
		supervisor = recording.NewSupervisor(store, recording.Config{
			Command:        cfg.Recording.Command,
			Args:           cfg.Recording.Args,
			WorkDir:        cfg.Recording.WorkDir,
			StopWait:       cfg.Recording.StopWait,
			UploadAttempts: cfg.Recording.UploadAttempts,
		}, log)
	}

	// Core services around a shared session table
	binding := &gatewayBinding{}
	table := services.NewSessionTable(binding, log)

	collector := monitoring.NewPrometheusCollector()
	metricsService := services.NewMetricsService(collector)
	accessService := services.NewAccessService(entitlements, log)

	var recordingService ports.RecordingService
	if supervisor != nil {
		recordingService = supervisor
	}

	sessionService := services.NewSessionService(table, sessionRepo, chatRepo, accessService, recordingService, metricsService, services.SessionConfig{
		IngestBaseURL: cfg.Sessions.IngestBaseURL,
		StartTimeout:  cfg.Sessions.StartTimeout,
	}, log)
	viewerService := services.NewViewerService(table, accessService, sessionRepo, metricsService, log)
	chatService := services.NewChatService(table, chatRepo, metricsService, services.ChatConfig{
		MaxMessageLength:   cfg.Chat.MaxMessageLength,
		MessagesPerMinute:  cfg.Chat.MessagesPerMinute,
		HistorySize:        cfg.Chat.HistorySize,
		ModerationKeywords: cfg.Chat.ModerationKeywords,
	}, log)
	donationService := services.NewDonationService(table, donationRepo, paymentProcessor, chatService, binding, services.DonationConfig{
		MinAmount: cfg.Donations.MinAmount,
		MaxAmount: cfg.Donations.MaxAmount,
	}, log)
	relayService := services.NewRelayService(table, binding, log)

	if supervisor != nil {
		supervisor.SetFailureHandler(sessionService.OnRecordingFailure)
	}

	// Websocket gateway
	gateway := signalgw.NewWebSocketServer(
		sessionService,
		viewerService,
		chatService,
		donationService,
		relayService,
		verifier,
		entitlements,
		signalgw.Config{
			PingInterval:     cfg.Signal.PingInterval,
			PongTimeout:      cfg.Signal.PongTimeout,
			BroadcasterGrace: cfg.Signal.BroadcasterGrace,
			MaxMessageSize:   cfg.Signal.MaxMessageSize,
			SendBufferSize:   cfg.Signal.SendBufferSize,
			AllowedOrigins:   cfg.Auth.AllowedOrigins,
		},
		log,
	)
	binding.gw = gateway

	// Watchdog for sessions stuck before ingest arrives. With Redis enabled
	// a leader lease keeps exactly one replica running it.
	watchdogCtx, watchdogCancel := context.WithCancel(context.Background())
	defer watchdogCancel()
	watchdog := func(ctx context.Context) {
		sessionService.RunStartWatchdog(ctx, cfg.Sessions.WatchdogTick)
	}
	if rc := repoFactory.RedisClient(); rc != nil {
		lease := distributed.NewLeaderLock(rc, "coordinator:leader:watchdog", 15*time.Second, log)
		go lease.RunWhenLeader(watchdogCtx, watchdog)
	} else {
		go watchdog(watchdogCtx)
	}

	// HTTP handlers
	streamHandler := httphandlers.NewStreamHandler(sessionService, viewerService)
	healthHandler := httphandlers.NewHealthHandler(map[string]httphandlers.HealthChecker{
		"repositories": repoFactory,
	})

	// Configure Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(verifier))
	streamHandler.SetupRoutes(api)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"uptime":    time.Since(startTime).String(),
		})
	})
	router.GET("/ready", healthHandler.Health)

	// Prometheus metrics endpoint
	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	// Signaling endpoint on its own listener
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", gateway.HandleWebSocket)
	wsHandler := middleware.NewWSConnectionRateLimit(cfg)(wsMux)

	apiSrv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	wsSrv := &http.Server{
		Addr:    cfg.Signal.Address,
		Handler: wsHandler,
	}

	serverErr := make(chan error, 2)
	go func() {
		log.Infof("Starting coordinator API server on %s", cfg.Server.Address)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	go func() {
		log.Infof("Starting signaling server on %s", cfg.Signal.Address)
		if err := wsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down coordinator...")

	watchdogCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := wsSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during signaling server shutdown", "error", err)
		wsSrv.Close()
	}
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during API server shutdown", "error", err)
		if closeErr := apiSrv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("Coordinator stopped")
}
