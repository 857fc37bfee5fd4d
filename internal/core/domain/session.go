package domain

import (
	"time"
)

type SessionID string
type UserID string
type ViewerID string
type MessageID string
type DonationID string

// SessionStatus is the lifecycle state of a broadcast session.
type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusStarting  SessionStatus = "starting"
	StatusLive      SessionStatus = "live"
	StatusEnding    SessionStatus = "ending"
	StatusEnded     SessionStatus = "ended"
	StatusError     SessionStatus = "error"
)

// Terminal reports whether no further lifecycle transitions are possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusEnded
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type ModerationMode string

const (
	ModerationOff     ModerationMode = "off"
	ModerationKeyword ModerationMode = "keyword"
)

// SessionSettings are the broadcaster-chosen options, fixed at creation.
type SessionSettings struct {
	ChatEnabled      bool           `json:"chat_enabled"`
	DonationsEnabled bool           `json:"donations_enabled"`
	RecordingEnabled bool           `json:"recording_enabled"`
	SubscriberOnly   bool           `json:"subscriber_only"`
	Moderation       ModerationMode `json:"moderation"`
	IngestKey        string         `json:"ingest_key"`
	AllowedTiers     []string       `json:"allowed_tiers,omitempty"`
}

// SessionMetadata carries live counters. CurrentViewers always equals the
// cardinality of the session's viewer set; PeakViewers never decreases.
type SessionMetadata struct {
	CurrentViewers int     `json:"current_viewers"`
	PeakViewers    int     `json:"peak_viewers"`
	TotalViews     int     `json:"total_views"`
	TotalDonations float64 `json:"total_donations"`
	ChatMessages   int     `json:"chat_messages"`
	Likes          int     `json:"likes"`
	Shares         int     `json:"shares"`
}

type StreamSession struct {
	ID           SessionID       `json:"id"`
	Broadcaster  UserID          `json:"broadcaster"`
	Title        string          `json:"title"`
	Category     string          `json:"category"`
	Visibility   Visibility      `json:"visibility"`
	Status       SessionStatus   `json:"status"`
	Settings     SessionSettings `json:"settings"`
	Metadata     SessionMetadata `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
	ScheduledAt  *time.Time      `json:"scheduled_at,omitempty"`
	ActualStart  *time.Time      `json:"actual_start,omitempty"`
	EndTime      *time.Time      `json:"end_time,omitempty"`
	Duration     time.Duration   `json:"duration,omitempty"`
	RecordingURL string          `json:"recording_url,omitempty"`
}

// SessionSpec is the broadcaster's create request.
type SessionSpec struct {
	Title            string
	Category         string
	Visibility       Visibility
	ChatEnabled      bool
	DonationsEnabled bool
	RecordingEnabled bool
	SubscriberOnly   bool
	Moderation       ModerationMode
	AllowedTiers     []string
	ScheduledAt      *time.Time
}
