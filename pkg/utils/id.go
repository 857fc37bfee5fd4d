package utils

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/google/uuid"
)

// GenerateSessionID generates a unique broadcast session ID.
func GenerateSessionID() string {
	return "sess_" + uuid.NewString()
}

// GenerateViewerID generates a unique per-connection viewer ID.
func GenerateViewerID() string {
	return "view_" + uuid.NewString()
}

// GenerateMessageID generates a unique chat message ID.
func GenerateMessageID() string {
	return "msg_" + uuid.NewString()
}

// GenerateDonationID generates a unique donation ID.
func GenerateDonationID() string {
	return "don_" + uuid.NewString()
}

// GenerateIngestKey returns a 32-hex-char credential that uniquely and
// securely addresses a session's inbound media feed.
// A short read here would issue a guessable credential, so entropy failure
// is fatal, matching how uuid.NewString treats it.
func GenerateIngestKey() string {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		panic("ingest key entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
