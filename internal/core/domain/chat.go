package domain

import "time"

type MessageType string

const (
	MessageTypeChat         MessageType = "message"
	MessageTypeDonation     MessageType = "donation"
	MessageTypeSubscription MessageType = "subscription"
	MessageTypeSystem       MessageType = "system"
)

// ChatMessage is immutable once broadcast. Ordering is acceptance order at
// the session's serialization point, not creation-time order.
type ChatMessage struct {
	ID          MessageID   `json:"id"`
	SessionID   SessionID   `json:"session_id"`
	Author      UserID      `json:"author,omitempty"`
	Content     string      `json:"content"`
	Type        MessageType `json:"type"`
	IsModerated bool        `json:"is_moderated"`
	CreatedAt   time.Time   `json:"created_at"`

	// Set for donation/subscription messages only.
	Amount float64 `json:"amount,omitempty"`
	Tier   string  `json:"tier,omitempty"`
}
