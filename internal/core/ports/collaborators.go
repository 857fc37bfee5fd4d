package ports

import (
	"context"
	"io"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
)

// Identity is a verified actor on a connection.
type Identity struct {
	UserID   domain.UserID
	Username string
}

// IdentityVerifier resolves a bearer token into an identity at the
// connection boundary.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, token string) (*Identity, error)
}

// EntitlementChecker answers subscription-tier questions against the
// persistence collaborator.
type EntitlementChecker interface {
	CanStream(ctx context.Context, userID domain.UserID) (bool, error)
	CheckEntitlement(ctx context.Context, userID domain.UserID, tiers []string) (bool, error)
	TierFor(ctx context.Context, userID domain.UserID) (string, error)
}

// PaymentProcessor captures a donation charge. A non-nil error means the
// charge did not happen.
type PaymentProcessor interface {
	ProcessDonationPayment(ctx context.Context, donation *domain.Donation) error
}

// ArtifactStore uploads finished recording files to durable storage.
type ArtifactStore interface {
	UploadArtifact(ctx context.Context, key string, body io.Reader, size int64) (url string, err error)
}

// Notifier delivers out-of-band user notifications (fire and forget).
type Notifier interface {
	Notify(ctx context.Context, userID domain.UserID, event string, payload any)
}

// EventSink delivers server events to connected participants. Implemented by
// the websocket gateway; services address recipients by user identity.
type EventSink interface {
	SendToUser(sessionID domain.SessionID, userID domain.UserID, event string, payload any)
	BroadcastToSession(sessionID domain.SessionID, event string, payload any)
}
