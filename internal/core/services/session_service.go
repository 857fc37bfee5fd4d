package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/utils"

	"go.uber.org/zap"
)

// SessionConfig carries the session-service tunables from configuration.
type SessionConfig struct {
	IngestBaseURL string
	// StartTimeout is how long a session may sit in starting before the
	// watchdog forces the error path (ingest never arrived).
	StartTimeout time.Duration
}

type sessionService struct {
	table     *SessionTable
	repo      ports.SessionRepository
	chatRepo  ports.ChatRepository
	access    ports.AccessService
	recording ports.RecordingService
	metrics   *MetricsService
	cfg       SessionConfig
	logger    *zap.SugaredLogger
}

// NewSessionService builds the registry component that owns the lifecycle
// state machine. recording may be nil when recording is disabled globally.
func NewSessionService(
	table *SessionTable,
	repo ports.SessionRepository,
	chatRepo ports.ChatRepository,
	access ports.AccessService,
	recording ports.RecordingService,
	metrics *MetricsService,
	cfg SessionConfig,
	logger *zap.SugaredLogger,
) ports.SessionService {
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = 2 * time.Minute
	}
	return &sessionService{
		table:     table,
		repo:      repo,
		chatRepo:  chatRepo,
		access:    access,
		recording: recording,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, broadcaster domain.UserID, spec domain.SessionSpec) (*domain.StreamSession, error) {
	allowed, err := s.access.CanStream(ctx, broadcaster)
	if err != nil {
		return nil, fmt.Errorf("stream permission lookup: %w", err)
	}
	if !allowed {
		return nil, domain.ErrPermissionDenied
	}
	if spec.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	status := domain.StatusStarting
	if spec.ScheduledAt != nil && spec.ScheduledAt.After(time.Now()) {
		status = domain.StatusScheduled
	}
	moderation := spec.Moderation
	if moderation == "" {
		moderation = domain.ModerationOff
	}
	visibility := spec.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}

	session := domain.StreamSession{
		ID:          domain.SessionID(utils.GenerateSessionID()),
		Broadcaster: broadcaster,
		Title:       spec.Title,
		Category:    spec.Category,
		Visibility:  visibility,
		Status:      status,
		Settings: domain.SessionSettings{
			ChatEnabled:      spec.ChatEnabled,
			DonationsEnabled: spec.DonationsEnabled,
			RecordingEnabled: spec.RecordingEnabled,
			SubscriberOnly:   spec.SubscriberOnly,
			Moderation:       moderation,
			IngestKey:        utils.GenerateIngestKey(),
			AllowedTiers:     spec.AllowedTiers,
		},
		CreatedAt:   time.Now(),
		ScheduledAt: spec.ScheduledAt,
	}

	s.table.insert(session)
	if err := s.repo.Save(ctx, &session); err != nil {
		s.logger.Warnw("session write-through failed", "session_id", session.ID, "error", err)
	}
	s.metrics.SessionCreated(session.ID)
	s.logger.Infow("session created",
		"session_id", session.ID,
		"broadcaster", broadcaster,
		"status", status,
	)
	return &session, nil
}

// IngestURL returns the broadcaster's publish endpoint for a session. Only
// the key addresses the inbound media; transport details live in config.
func (s *sessionService) IngestURL(session *domain.StreamSession) string {
	return fmt.Sprintf("%s/live/%s", s.cfg.IngestBaseURL, session.Settings.IngestKey)
}

func (s *sessionService) StartSession(ctx context.Context, sessionID domain.SessionID, caller domain.UserID) error {
	h, ok := s.table.get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	h.mu.Lock()
	if caller != "" && caller != h.session.Broadcaster {
		h.mu.Unlock()
		return domain.ErrNotOwner
	}
	switch h.session.Status {
	case domain.StatusScheduled, domain.StatusStarting:
	default:
		status := h.session.Status
		h.mu.Unlock()
		return fmt.Errorf("%w: cannot start from %s", domain.ErrInvalidState, status)
	}
	now := time.Now()
	h.session.Status = domain.StatusLive
	h.session.ActualStart = &now
	snap := h.session
	h.enqueue(delivery{event: "stream_started", payload: sessionEventPayload(&snap)})
	h.mu.Unlock()

	if err := s.repo.Save(ctx, &snap); err != nil {
		s.logger.Warnw("session write-through failed", "session_id", sessionID, "error", err)
	}
	s.metrics.SessionLive(sessionID)

	if snap.Settings.RecordingEnabled && s.recording != nil {
		if err := s.recording.Start(ctx, &snap); err != nil {
			// Recording is best-effort: disable it for this session and move on.
			s.OnRecordingFailure(ctx, sessionID, err)
		}
	}

	s.logger.Infow("session live", "session_id", sessionID)
	return nil
}

func (s *sessionService) EndSession(ctx context.Context, sessionID domain.SessionID, caller domain.UserID) error {
	h, ok := s.table.get(sessionID)
	if !ok {
		// Ending an already-ended session is a no-op success.
		session, err := s.repo.GetByID(ctx, sessionID)
		if err != nil {
			return domain.ErrSessionNotFound
		}
		if session.Status.Terminal() {
			return nil
		}
		return domain.ErrSessionNotFound
	}

	h.mu.Lock()
	if caller != "" && caller != h.session.Broadcaster {
		h.mu.Unlock()
		return domain.ErrNotOwner
	}
	if h.session.Status.Terminal() || h.session.Status == domain.StatusEnding {
		h.mu.Unlock()
		return nil
	}
	wasLive := h.session.Status == domain.StatusLive
	h.session.Status = domain.StatusEnding
	snap := h.session
	h.mu.Unlock()

	s.finish(ctx, h, snap, wasLive)
	return nil
}

// FailSession forces the error path for a session whose ingest or runtime
// failed while starting or live, then cleans up to ended.
func (s *sessionService) FailSession(ctx context.Context, sessionID domain.SessionID, reason error) error {
	h, ok := s.table.get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}

	h.mu.Lock()
	switch h.session.Status {
	case domain.StatusStarting, domain.StatusLive:
	default:
		status := h.session.Status
		h.mu.Unlock()
		return fmt.Errorf("%w: cannot fail from %s", domain.ErrInvalidState, status)
	}
	wasLive := h.session.Status == domain.StatusLive
	h.session.Status = domain.StatusError
	snap := h.session
	h.enqueue(delivery{event: "stream_error", payload: map[string]any{
		"session_id": sessionID,
		"message":    "broadcast ended due to an internal failure",
	}})
	h.mu.Unlock()

	s.logger.Errorw("session failed", "session_id", sessionID, "reason", reason)
	s.metrics.SessionErrored(sessionID)

	h.mu.Lock()
	h.session.Status = domain.StatusEnding
	snap = h.session
	h.mu.Unlock()
	s.finish(ctx, h, snap, wasLive)

	// An aborted broadcast keeps no chat replay.
	if s.chatRepo != nil {
		if err := s.chatRepo.Purge(ctx, sessionID); err != nil {
			s.logger.Warnw("chat purge after failure", "session_id", sessionID, "error", err)
		}
	}
	return nil
}

// finish runs the shared ending → ended path: stop recording, drop viewers,
// stamp times, persist the final snapshot and retire the handle.
func (s *sessionService) finish(ctx context.Context, h *sessionHandle, snap domain.StreamSession, wasLive bool) {
	var recordingPath string
	if wasLive && snap.Settings.RecordingEnabled && s.recording != nil {
		path, err := s.recording.Stop(ctx, snap.ID)
		if err != nil {
			s.logger.Warnw("recording stop failed", "session_id", snap.ID, "error", err)
		} else {
			recordingPath = path
		}
	}

	h.mu.Lock()
	now := time.Now()
	h.session.Status = domain.StatusEnded
	h.session.EndTime = &now
	if h.session.ActualStart != nil {
		h.session.Duration = now.Sub(*h.session.ActualStart)
	}
	h.session.Metadata.CurrentViewers = 0
	h.viewers = make(map[domain.UserID]*domain.Viewer)
	final := h.session
	h.enqueue(delivery{event: "stream_ended", payload: sessionEventPayload(&final)})
	h.mu.Unlock()

	if err := s.repo.Save(ctx, &final); err != nil {
		s.logger.Warnw("final session write failed", "session_id", final.ID, "error", err)
	}
	s.metrics.SessionEnded(final.ID)
	s.table.remove(final.ID)
	s.logger.Infow("session ended",
		"session_id", final.ID,
		"duration", final.Duration,
		"peak_viewers", final.Metadata.PeakViewers,
	)

	if recordingPath != "" {
		go s.finalizeRecording(final.ID, recordingPath)
	}
}

// finalizeRecording uploads the recording artifact after the session has
// ended. Failures are recoverable warnings; the session stays ended either
// way.
func (s *sessionService) finalizeRecording(sessionID domain.SessionID, localPath string) {
	ctx := context.Background()
	url, err := s.recording.Finalize(ctx, sessionID, localPath)
	if err != nil {
		s.logger.Warnw("recording finalization failed",
			"session_id", sessionID,
			"local_path", localPath,
			"error", err,
		)
		return
	}

	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		s.logger.Warnw("recording url not recorded: session lookup failed", "session_id", sessionID, "error", err)
		return
	}
	session.RecordingURL = url
	if err := s.repo.Save(ctx, session); err != nil {
		s.logger.Warnw("recording url write failed", "session_id", sessionID, "error", err)
	}
}

// OnRecordingFailure clears the recording setting for one session after a
// soft failure, leaving the broadcast untouched.
func (s *sessionService) OnRecordingFailure(ctx context.Context, sessionID domain.SessionID, cause error) {
	s.logger.Errorw("recording failure absorbed", "session_id", sessionID, "error", cause)
	s.metrics.RecordingFailed(sessionID)
	h, ok := s.table.get(sessionID)
	if !ok {
		return
	}
	h.mu.Lock()
	h.session.Settings.RecordingEnabled = false
	snap := h.session
	h.mu.Unlock()
	if err := s.repo.Save(ctx, &snap); err != nil {
		s.logger.Warnw("session write-through failed", "session_id", sessionID, "error", err)
	}
}

func (s *sessionService) Get(ctx context.Context, sessionID domain.SessionID) (*domain.StreamSession, error) {
	if h, ok := s.table.get(sessionID); ok {
		snap := h.snapshot()
		return &snap, nil
	}
	return s.repo.GetByID(ctx, sessionID)
}

func (s *sessionService) ListActive(ctx context.Context) ([]*domain.StreamSession, error) {
	handles := s.table.list()
	out := make([]*domain.StreamSession, 0, len(handles))
	for _, h := range handles {
		snap := h.snapshot()
		if !snap.Status.Terminal() {
			out = append(out, &snap)
		}
	}
	return out, nil
}

func (s *sessionService) IncrementLikes(ctx context.Context, sessionID domain.SessionID) (int, error) {
	return s.incrementCounter(sessionID, "stream_like_count", func(m *domain.SessionMetadata) *int { return &m.Likes })
}

func (s *sessionService) IncrementShares(ctx context.Context, sessionID domain.SessionID) (int, error) {
	return s.incrementCounter(sessionID, "stream_share_count", func(m *domain.SessionMetadata) *int { return &m.Shares })
}

func (s *sessionService) incrementCounter(sessionID domain.SessionID, event string, field func(*domain.SessionMetadata) *int) (int, error) {
	h, ok := s.table.get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	h.mu.Lock()
	if h.session.Status != domain.StatusLive {
		status := h.session.Status
		h.mu.Unlock()
		return 0, fmt.Errorf("%w: session is %s", domain.ErrStreamNotLive, status)
	}
	counter := field(&h.session.Metadata)
	*counter++
	count := *counter
	h.enqueue(delivery{event: event, payload: map[string]any{
		"session_id": sessionID,
		"count":      count,
	}})
	h.mu.Unlock()
	return count, nil
}

// RunStartWatchdog periodically fails sessions stuck in starting longer than
// the configured timeout (the ingest never arrived). Blocks until ctx is
// cancelled; run it in its own goroutine.
func (s *sessionService) RunStartWatchdog(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.cfg.StartTimeout)
			for _, h := range s.table.list() {
				snap := h.snapshot()
				if snap.Status == domain.StatusStarting && snap.CreatedAt.Before(cutoff) {
					if err := s.FailSession(ctx, snap.ID, fmt.Errorf("ingest not received within %s", s.cfg.StartTimeout)); err != nil {
						s.logger.Debugw("watchdog fail skipped", "session_id", snap.ID, "error", err)
					}
				}
			}
		}
	}
}

func sessionEventPayload(session *domain.StreamSession) map[string]any {
	return map[string]any{
		"session": session,
	}
}
