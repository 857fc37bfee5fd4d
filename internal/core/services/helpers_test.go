package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/services"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/infrastructure/repositories/memory"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// sinkEvent is one delivery observed by the capture sink.
type sinkEvent struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Event     string
	Payload   any
}

// captureSink records everything the services fan out. Deliveries arrive on
// the per-session dispatch goroutine, so assertions must poll.
type captureSink struct {
	mu         sync.Mutex
	broadcasts []sinkEvent
	directs    []sinkEvent
}

func (s *captureSink) SendToUser(sessionID domain.SessionID, userID domain.UserID, event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directs = append(s.directs, sinkEvent{SessionID: sessionID, UserID: userID, Event: event, Payload: payload})
}

func (s *captureSink) BroadcastToSession(sessionID domain.SessionID, event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcasts = append(s.broadcasts, sinkEvent{SessionID: sessionID, Event: event, Payload: payload})
}

func (s *captureSink) Broadcasts(event string) []sinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sinkEvent
	for _, e := range s.broadcasts {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (s *captureSink) Directs(event string) []sinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sinkEvent
	for _, e := range s.directs {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (s *captureSink) waitForBroadcast(t *testing.T, event string) sinkEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(s.Broadcasts(event)) > 0
	}, time.Second, 5*time.Millisecond, "no %q broadcast observed", event)
	return s.Broadcasts(event)[0]
}

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) CanStream(ctx context.Context, userID domain.UserID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccessService) CanJoin(ctx context.Context, userID domain.UserID, session *domain.StreamSession) (bool, error) {
	args := m.Called(ctx, userID, session)
	return args.Bool(0), args.Error(1)
}

type MockPaymentProcessor struct {
	mock.Mock
}

func (m *MockPaymentProcessor) ProcessDonationPayment(ctx context.Context, donation *domain.Donation) error {
	args := m.Called(ctx, donation)
	return args.Error(0)
}

type MockRecordingService struct {
	mock.Mock
}

func (m *MockRecordingService) Start(ctx context.Context, session *domain.StreamSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockRecordingService) Stop(ctx context.Context, sessionID domain.SessionID) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockRecordingService) Finalize(ctx context.Context, sessionID domain.SessionID, localPath string) (string, error) {
	args := m.Called(ctx, sessionID, localPath)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, userID domain.UserID, event string, payload any) {
	m.Called(ctx, userID, event, payload)
}

// testEnv wires the services against in-memory repositories and a capturing
// event sink.
type testEnv struct {
	sink         *captureSink
	table        *services.SessionTable
	sessionRepo  ports.SessionRepository
	chatRepo     ports.ChatRepository
	donationRepo ports.DonationRepository
	access       *MockAccessService
	recording    *MockRecordingService
	payments     *MockPaymentProcessor
	notifier     *MockNotifier

	sessions  ports.SessionService
	viewers   ports.ViewerService
	chat      ports.ChatService
	donations ports.DonationService
	relay     ports.RelayService
}

type envOption func(*envConfig)

type envConfig struct {
	session  services.SessionConfig
	chat     services.ChatConfig
	donation services.DonationConfig
}

func withChatConfig(cfg services.ChatConfig) envOption {
	return func(c *envConfig) { c.chat = cfg }
}

func withSessionConfig(cfg services.SessionConfig) envOption {
	return func(c *envConfig) { c.session = cfg }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{
		session:  services.SessionConfig{IngestBaseURL: "rtmp://ingest.test/live"},
		chat:     services.ChatConfig{MaxMessageLength: 200, MessagesPerMinute: 30, HistorySize: 50},
		donation: services.DonationConfig{MinAmount: 1, MaxAmount: 10000},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := zap.NewNop().Sugar()
	env := &testEnv{
		sink:         &captureSink{},
		sessionRepo:  memory.NewMemorySessionRepository(),
		chatRepo:     memory.NewMemoryChatRepository(),
		donationRepo: memory.NewMemoryDonationRepository(),
		access:       &MockAccessService{},
		recording:    &MockRecordingService{},
		payments:     &MockPaymentProcessor{},
		notifier:     &MockNotifier{},
	}
	env.table = services.NewSessionTable(env.sink, log)
	metrics := services.NewMetricsService(nil)
	env.sessions = services.NewSessionService(env.table, env.sessionRepo, env.chatRepo, env.access, env.recording, metrics, cfg.session, log)
	env.viewers = services.NewViewerService(env.table, env.access, env.sessionRepo, metrics, log)
	env.chat = services.NewChatService(env.table, env.chatRepo, metrics, cfg.chat, log)
	env.donations = services.NewDonationService(env.table, env.donationRepo, env.payments, env.chat, env.notifier, cfg.donation, log)
	env.relay = services.NewRelayService(env.table, env.sink, log)
	return env
}

// createLiveSession creates and starts a session owned by broadcaster.
func (env *testEnv) createLiveSession(t *testing.T, broadcaster domain.UserID, spec domain.SessionSpec) *domain.StreamSession {
	t.Helper()
	ctx := context.Background()

	env.access.On("CanStream", mock.Anything, broadcaster).Return(true, nil).Once()
	session, err := env.sessions.CreateSession(ctx, broadcaster, spec)
	require.NoError(t, err)

	require.NoError(t, env.sessions.StartSession(ctx, session.ID, broadcaster))
	live, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusLive, live.Status)
	return live
}

// joinViewer admits a viewer into a live session.
func (env *testEnv) joinViewer(t *testing.T, sessionID domain.SessionID, userID domain.UserID) *domain.Viewer {
	t.Helper()
	env.access.On("CanJoin", mock.Anything, userID, mock.Anything).Return(true, nil).Once()
	viewer, err := env.viewers.Join(context.Background(), sessionID, userID, domain.ViewerInfo{})
	require.NoError(t, err)
	return viewer
}
