package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Signal struct {
		Address          string        `yaml:"address"`
		PingInterval     time.Duration `yaml:"ping_interval"`
		PongTimeout      time.Duration `yaml:"pong_timeout"`
		ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
		BroadcasterGrace time.Duration `yaml:"broadcaster_grace"` // disconnect grace before the stream ends
		MaxMessageSize   int64         `yaml:"max_message_size_bytes"`
		SendBufferSize   int           `yaml:"send_buffer_size"`
	} `yaml:"signal"`

	Sessions struct {
		IngestBaseURL string        `yaml:"ingest_base_url"`
		StartTimeout  time.Duration `yaml:"start_timeout"` // ingest must arrive within this window
		WatchdogTick  time.Duration `yaml:"watchdog_tick"`
	} `yaml:"sessions"`

	Chat struct {
		MaxMessageLength   int      `yaml:"max_message_length"`
		MessagesPerMinute  int      `yaml:"messages_per_minute"`
		HistorySize        int      `yaml:"history_size"`
		ModerationKeywords []string `yaml:"moderation_keywords"`
	} `yaml:"chat"`

	Donations struct {
		MinAmount  float64 `yaml:"min_amount"`
		MaxAmount  float64 `yaml:"max_amount"`
		PaymentURL string  `yaml:"payment_url"`
	} `yaml:"donations"`

	Recording struct {
		Enabled        bool          `yaml:"enabled"`
		Command        string        `yaml:"command"`
		Args           []string      `yaml:"args"`
		WorkDir        string        `yaml:"work_dir"`
		StopWait       time.Duration `yaml:"stop_wait"` // bounded wait before force kill
		UploadAttempts int           `yaml:"upload_attempts"`
	} `yaml:"recording"`

	Accounts struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"accounts"`

	Storage struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
		PublicBaseURL   string `yaml:"public_base_url"`
	} `yaml:"storage"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		Endpoint    string  `yaml:"endpoint"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret      string   `yaml:"jwt_secret"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"auth"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"http"`

		WebSocket struct {
			ConnectionsPerMinute int `yaml:"connections_per_minute"`
		} `yaml:"websocket"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Signal
	if c.Signal.Address == "" {
		return fmt.Errorf("signal.address must not be empty")
	}
	if c.Signal.PingInterval <= 0 {
		return fmt.Errorf("signal.ping_interval must be > 0")
	}
	if c.Signal.PongTimeout <= 0 {
		return fmt.Errorf("signal.pong_timeout must be > 0")
	}
	if c.Signal.BroadcasterGrace < 0 {
		return fmt.Errorf("signal.broadcaster_grace must be >= 0")
	}

	// Sessions
	if c.Sessions.IngestBaseURL == "" {
		return fmt.Errorf("sessions.ingest_base_url must not be empty")
	}
	if c.Sessions.StartTimeout <= 0 {
		return fmt.Errorf("sessions.start_timeout must be > 0")
	}
	if c.Sessions.WatchdogTick <= 0 {
		return fmt.Errorf("sessions.watchdog_tick must be > 0")
	}

	// Chat
	if c.Chat.MaxMessageLength <= 0 {
		return fmt.Errorf("chat.max_message_length must be > 0")
	}
	if c.Chat.MessagesPerMinute <= 0 {
		return fmt.Errorf("chat.messages_per_minute must be > 0")
	}
	if c.Chat.HistorySize <= 0 {
		return fmt.Errorf("chat.history_size must be > 0")
	}

	// Donations
	if c.Donations.MinAmount <= 0 {
		return fmt.Errorf("donations.min_amount must be > 0")
	}
	if c.Donations.MaxAmount < c.Donations.MinAmount {
		return fmt.Errorf("donations.max_amount must be >= min_amount")
	}

	// Recording
	if c.Recording.Enabled {
		if c.Recording.Command == "" {
			return fmt.Errorf("recording.command must not be empty when recording.enabled=true")
		}
		if c.Recording.StopWait <= 0 {
			return fmt.Errorf("recording.stop_wait must be > 0 when recording.enabled=true")
		}
		if c.Recording.UploadAttempts <= 0 {
			return fmt.Errorf("recording.upload_attempts must be > 0 when recording.enabled=true")
		}
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.ServiceName == "" {
			return fmt.Errorf("tracing.service_name must not be empty when tracing.enabled=true")
		}
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.ConnectionsPerMinute <= 0 {
			return fmt.Errorf("rate_limiting.websocket.connections_per_minute must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Default values
	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Signal.Address = ":8081"
	cfg.Signal.PingInterval = 30 * time.Second
	cfg.Signal.PongTimeout = 60 * time.Second
	cfg.Signal.ShutdownTimeout = 30 * time.Second
	cfg.Signal.BroadcasterGrace = 45 * time.Second
	cfg.Signal.MaxMessageSize = 64 * 1024
	cfg.Signal.SendBufferSize = 256

	cfg.Sessions.IngestBaseURL = "rtmp://localhost/live"
	cfg.Sessions.StartTimeout = 2 * time.Minute
	cfg.Sessions.WatchdogTick = 15 * time.Second

	cfg.Chat.MaxMessageLength = 500
	cfg.Chat.MessagesPerMinute = 20
	cfg.Chat.HistorySize = 100

	cfg.Donations.MinAmount = 1.00
	cfg.Donations.MaxAmount = 10000.00

	cfg.Recording.Enabled = false
	cfg.Recording.Command = "ffmpeg"
	cfg.Recording.WorkDir = os.TempDir()
	cfg.Recording.StopWait = 10 * time.Second
	cfg.Recording.UploadAttempts = 3

	cfg.Donations.PaymentURL = "http://localhost:9200"

	cfg.Accounts.BaseURL = "http://localhost:9100"

	cfg.Storage.Region = "us-east-1"
	cfg.Storage.Bucket = "stream-recordings"

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "stream-coordinator"
	cfg.Tracing.Endpoint = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 0.1

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AllowedOrigins = []string{"*"}

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.WebSocket.ConnectionsPerMinute = 60

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("COORDINATOR_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if addr := os.Getenv("COORDINATOR_SIGNAL_ADDRESS"); addr != "" {
		c.Signal.Address = addr
	}
	if level := os.Getenv("COORDINATOR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("COORDINATOR_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if url := os.Getenv("COORDINATOR_ACCOUNTS_URL"); url != "" {
		c.Accounts.BaseURL = url
	}
	if addr := os.Getenv("COORDINATOR_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
		c.Redis.Enabled = true
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" && c.Storage.AccessKeyID == "" {
		c.Storage.AccessKeyID = key
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" && c.Storage.SecretAccessKey == "" {
		c.Storage.SecretAccessKey = secret
	}
}
