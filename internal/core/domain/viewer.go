package domain

import "time"

type StreamQuality string

const (
	QualityAuto   StreamQuality = "auto"
	QualityLow    StreamQuality = "low"
	QualityMedium StreamQuality = "medium"
	QualityHigh   StreamQuality = "high"
	QualitySource StreamQuality = "source"
)

// ValidQuality reports whether q is a selectable quality name.
func ValidQuality(q StreamQuality) bool {
	switch q {
	case QualityAuto, QualityLow, QualityMedium, QualityHigh, QualitySource:
		return true
	}
	return false
}

// Viewer is a user's active presence in one session. At most one Viewer
// exists per (session, user) pair; a rejoin replaces the previous record.
type Viewer struct {
	ID           ViewerID      `json:"id"`
	UserID       UserID        `json:"user_id"`
	SessionID    SessionID     `json:"session_id"`
	Tier         string        `json:"tier,omitempty"`
	Quality      StreamQuality `json:"quality"`
	JoinedAt     time.Time     `json:"joined_at"`
	LastActivity time.Time     `json:"last_activity"`
}

// ViewerInfo is the join-time input for a viewer record.
type ViewerInfo struct {
	Tier    string
	Quality StreamQuality
}
