package domain

import "errors"

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotOwner         = errors.New("caller is not the session broadcaster")
	ErrAccessDenied     = errors.New("access denied")
	ErrSessionNotFound  = errors.New("session not found")
	ErrViewerNotFound   = errors.New("viewer not found")
	ErrDonationNotFound = errors.New("donation not found")
	ErrInvalidState     = errors.New("invalid session state transition")
	ErrStreamNotLive    = errors.New("stream is not live")
	ErrNotParticipant   = errors.New("sender is not a participant of the session")
	ErrChatDisabled     = errors.New("chat is disabled for this session")
	ErrInvalidInput     = errors.New("invalid input")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrRecordingFailure = errors.New("recording failure")
	ErrUploadFailure    = errors.New("recording upload failed")
)
