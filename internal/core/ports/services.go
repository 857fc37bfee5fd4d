package ports

import (
	"context"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"

	"github.com/pion/webrtc/v3"
)

// SessionService owns the lifecycle state machine for broadcast sessions.
type SessionService interface {
	CreateSession(ctx context.Context, broadcaster domain.UserID, spec domain.SessionSpec) (*domain.StreamSession, error)
	StartSession(ctx context.Context, sessionID domain.SessionID, caller domain.UserID) error
	EndSession(ctx context.Context, sessionID domain.SessionID, caller domain.UserID) error
	FailSession(ctx context.Context, sessionID domain.SessionID, reason error) error
	Get(ctx context.Context, sessionID domain.SessionID) (*domain.StreamSession, error)
	ListActive(ctx context.Context) ([]*domain.StreamSession, error)
	IncrementLikes(ctx context.Context, sessionID domain.SessionID) (int, error)
	IncrementShares(ctx context.Context, sessionID domain.SessionID) (int, error)
	IngestURL(session *domain.StreamSession) string
	OnRecordingFailure(ctx context.Context, sessionID domain.SessionID, cause error)
	RunStartWatchdog(ctx context.Context, interval time.Duration)
}

// ViewerService tracks connected viewers per session.
type ViewerService interface {
	Join(ctx context.Context, sessionID domain.SessionID, userID domain.UserID, info domain.ViewerInfo) (*domain.Viewer, error)
	Leave(ctx context.Context, sessionID domain.SessionID, userID domain.UserID) error
	Count(ctx context.Context, sessionID domain.SessionID) (int, error)
	ChangeQuality(ctx context.Context, sessionID domain.SessionID, userID domain.UserID, quality domain.StreamQuality) error
	Purge(ctx context.Context, sessionID domain.SessionID) error
}

// ChatService validates, moderates and fans out chat traffic.
type ChatService interface {
	PostMessage(ctx context.Context, sessionID domain.SessionID, author domain.UserID, content string) (*domain.ChatMessage, error)
	PostSystemMessage(ctx context.Context, sessionID domain.SessionID, content string) (*domain.ChatMessage, error)
	PostDonationMessage(ctx context.Context, sessionID domain.SessionID, donation *domain.Donation) (*domain.ChatMessage, error)
	History(ctx context.Context, sessionID domain.SessionID) ([]*domain.ChatMessage, error)
}

// DonationService runs the donation workflow: validate, charge, record,
// then announce through the ChatService on success.
type DonationService interface {
	Donate(ctx context.Context, sessionID domain.SessionID, donor domain.UserID, amount float64, message string) (*domain.Donation, error)
}

// RelayService forwards WebRTC negotiation payloads between the broadcaster
// and viewers of a session. It never inspects or stores media.
type RelayService interface {
	RelayOffer(ctx context.Context, sessionID domain.SessionID, sender domain.UserID, offer webrtc.SessionDescription, target domain.UserID) error
	RelayAnswer(ctx context.Context, sessionID domain.SessionID, sender domain.UserID, answer webrtc.SessionDescription) error
	RelayICECandidate(ctx context.Context, sessionID domain.SessionID, sender domain.UserID, candidate webrtc.ICECandidateInit) error
}

// AccessService decides whether an identity may stream or join.
type AccessService interface {
	CanStream(ctx context.Context, userID domain.UserID) (bool, error)
	CanJoin(ctx context.Context, userID domain.UserID, session *domain.StreamSession) (bool, error)
}

// RecordingService supervises the external recording process of a session.
// Failures are soft: they never affect the live broadcast.
type RecordingService interface {
	Start(ctx context.Context, session *domain.StreamSession) error
	Stop(ctx context.Context, sessionID domain.SessionID) (localPath string, err error)
	Finalize(ctx context.Context, sessionID domain.SessionID, localPath string) (url string, err error)
}
