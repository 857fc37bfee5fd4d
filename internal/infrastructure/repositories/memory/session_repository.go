package memory

import (
	"context"
	"sync"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"
)

type MemorySessionRepository struct {
	sessions map[domain.SessionID]*domain.StreamSession
	mu       sync.RWMutex
}

func NewMemorySessionRepository() ports.SessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[domain.SessionID]*domain.StreamSession),
	}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *domain.StreamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Save is an upsert: it mirrors every lifecycle transition.
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *MemorySessionRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.StreamSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; !exists {
		return domain.ErrSessionNotFound
	}

	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) ListActive(ctx context.Context) ([]*domain.StreamSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*domain.StreamSession
	for _, session := range r.sessions {
		if !session.Status.Terminal() && session.Status != domain.StatusError {
			copied := *session
			active = append(active, &copied)
		}
	}

	return active, nil
}
