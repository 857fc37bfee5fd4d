package ports

import (
	"context"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
)

// SessionRepository is the write-through persistence mirror of the in-memory
// registry. The registry stays authoritative while a session is active; the
// repository is updated on every lifecycle transition and metadata flush.
type SessionRepository interface {
	Save(ctx context.Context, session *domain.StreamSession) error
	GetByID(ctx context.Context, id domain.SessionID) (*domain.StreamSession, error)
	Delete(ctx context.Context, id domain.SessionID) error
	ListActive(ctx context.Context) ([]*domain.StreamSession, error)
}

// ChatRepository persists accepted chat messages per session, bounded to the
// most recent entries.
type ChatRepository interface {
	Append(ctx context.Context, msg *domain.ChatMessage) error
	Recent(ctx context.Context, sessionID domain.SessionID, limit int) ([]*domain.ChatMessage, error)
	Purge(ctx context.Context, sessionID domain.SessionID) error
}

// DonationRepository records donations and their status transitions.
type DonationRepository interface {
	Save(ctx context.Context, donation *domain.Donation) error
	GetByID(ctx context.Context, id domain.DonationID) (*domain.Donation, error)
	ListBySession(ctx context.Context, sessionID domain.SessionID) ([]*domain.Donation, error)
}
