package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
	"github.com/Shockvaluemedia/directfanz-project-sub008/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type viewerService struct {
	table   *SessionTable
	access  ports.AccessService
	repo    ports.SessionRepository
	metrics *MetricsService
	logger  *zap.SugaredLogger
}

// NewViewerService builds the per-stream viewer registry. Viewer state lives
// inside the session handles, so count updates are serialized with lifecycle
// transitions of the same session.
func NewViewerService(
	table *SessionTable,
	access ports.AccessService,
	repo ports.SessionRepository,
	metrics *MetricsService,
	logger *zap.SugaredLogger,
) ports.ViewerService {
	return &viewerService{
		table:   table,
		access:  access,
		repo:    repo,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *viewerService) Join(ctx context.Context, sessionID domain.SessionID, userID domain.UserID, info domain.ViewerInfo) (*domain.Viewer, error) {
	h, ok := s.table.get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Access check is I/O-bound: snapshot first, decide, then re-check the
	// live status once the lock is re-acquired.
	snap := h.snapshot()
	if snap.Status != domain.StatusLive {
		return nil, fmt.Errorf("%w: session is %s", domain.ErrStreamNotLive, snap.Status)
	}
	allowed, err := s.access.CanJoin(ctx, userID, &snap)
	if err != nil {
		return nil, fmt.Errorf("join access lookup: %w", err)
	}
	if !allowed {
		return nil, domain.ErrAccessDenied
	}

	quality := info.Quality
	if quality == "" {
		quality = domain.QualityAuto
	}
	if !domain.ValidQuality(quality) {
		return nil, fmt.Errorf("%w: unknown quality %q", domain.ErrInvalidInput, quality)
	}

	now := time.Now()
	viewer := &domain.Viewer{
		ID:           domain.ViewerID(utils.GenerateViewerID()),
		UserID:       userID,
		SessionID:    sessionID,
		Tier:         info.Tier,
		Quality:      quality,
		JoinedAt:     now,
		LastActivity: now,
	}

	h.mu.Lock()
	if h.session.Status != domain.StatusLive {
		status := h.session.Status
		h.mu.Unlock()
		return nil, fmt.Errorf("%w: session is %s", domain.ErrStreamNotLive, status)
	}
	_, rejoin := h.viewers[userID]
	h.viewers[userID] = viewer
	h.session.Metadata.CurrentViewers = len(h.viewers)
	if !rejoin {
		h.session.Metadata.TotalViews++
	}
	if h.session.Metadata.CurrentViewers > h.session.Metadata.PeakViewers {
		h.session.Metadata.PeakViewers = h.session.Metadata.CurrentViewers
	}
	count := h.session.Metadata.CurrentViewers
	updated := h.session
	h.enqueue(delivery{event: "viewer_count", payload: countPayload(sessionID, count)})
	h.mu.Unlock()

	s.metrics.ViewerJoined(sessionID, count)
	if err := s.repo.Save(ctx, &updated); err != nil {
		s.logger.Debugw("viewer-count write-through failed", "session_id", sessionID, "error", err)
	}
	s.logger.Infow("viewer joined",
		"session_id", sessionID,
		"user_id", userID,
		"rejoin", rejoin,
		"viewers", count,
	)
	return viewer, nil
}

func (s *viewerService) Leave(ctx context.Context, sessionID domain.SessionID, userID domain.UserID) error {
	h, ok := s.table.get(sessionID)
	if !ok {
		return nil
	}

	h.mu.Lock()
	if _, present := h.viewers[userID]; !present {
		h.mu.Unlock()
		return nil
	}
	delete(h.viewers, userID)
	delete(h.limiters, userID)
	h.session.Metadata.CurrentViewers = len(h.viewers)
	count := h.session.Metadata.CurrentViewers
	updated := h.session
	h.enqueue(delivery{event: "viewer_count", payload: countPayload(sessionID, count)})
	h.mu.Unlock()

	s.metrics.ViewerLeft(sessionID, count)
	if err := s.repo.Save(ctx, &updated); err != nil {
		s.logger.Debugw("viewer-count write-through failed", "session_id", sessionID, "error", err)
	}
	s.logger.Infow("viewer left", "session_id", sessionID, "user_id", userID, "viewers", count)
	return nil
}

func (s *viewerService) Count(ctx context.Context, sessionID domain.SessionID) (int, error) {
	h, ok := s.table.get(sessionID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers), nil
}

func (s *viewerService) ChangeQuality(ctx context.Context, sessionID domain.SessionID, userID domain.UserID, quality domain.StreamQuality) error {
	if !domain.ValidQuality(quality) {
		return fmt.Errorf("%w: unknown quality %q", domain.ErrInvalidInput, quality)
	}
	h, ok := s.table.get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	viewer, present := h.viewers[userID]
	if !present {
		return domain.ErrViewerNotFound
	}
	viewer.Quality = quality
	viewer.LastActivity = time.Now()
	return nil
}

func (s *viewerService) Purge(ctx context.Context, sessionID domain.SessionID) error {
	h, ok := s.table.get(sessionID)
	if !ok {
		return nil
	}
	h.mu.Lock()
	h.viewers = make(map[domain.UserID]*domain.Viewer)
	h.limiters = make(map[domain.UserID]*rate.Limiter)
	h.session.Metadata.CurrentViewers = 0
	updated := h.session
	h.enqueue(delivery{event: "viewer_count", payload: countPayload(sessionID, 0)})
	h.mu.Unlock()

	s.metrics.ViewerLeft(sessionID, 0)
	if err := s.repo.Save(ctx, &updated); err != nil {
		s.logger.Debugw("viewer-count write-through failed", "session_id", sessionID, "error", err)
	}
	return nil
}

func countPayload(sessionID domain.SessionID, count int) map[string]any {
	return map[string]any{
		"session_id": sessionID,
		"count":      count,
	}
}
