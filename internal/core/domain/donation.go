package domain

import "time"

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
)

// Donation contributes to the session's running total only once its status
// reaches completed.
type Donation struct {
	ID        DonationID     `json:"id"`
	SessionID SessionID      `json:"session_id"`
	Donor     UserID         `json:"donor"`
	Amount    float64        `json:"amount"`
	Message   string         `json:"message,omitempty"`
	Status    DonationStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}
