package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// SessionIDRegex validates session ID format.
	SessionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// IngestKeyRegex validates ingest credential format.
	IngestKeyRegex = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// ValidateChatContent checks a chat message body before acceptance.
func ValidateChatContent(content string, maxLength int) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content is required")
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("message content is not valid UTF-8")
	}
	if utf8.RuneCountInString(content) > maxLength {
		return fmt.Errorf("message exceeds maximum length of %d characters", maxLength)
	}
	return nil
}

// ValidateTitle checks a session title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > 140 {
		return fmt.Errorf("title is too long (max 140 characters)")
	}
	return nil
}

// ValidateSessionID checks session ID format.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session_id is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("session_id is too long")
	}
	if !SessionIDRegex.MatchString(id) {
		return fmt.Errorf("session_id contains invalid characters")
	}
	return nil
}

// ValidateIngestKey checks the ingest credential format.
func ValidateIngestKey(key string) error {
	if !IngestKeyRegex.MatchString(key) {
		return fmt.Errorf("invalid ingest key")
	}
	return nil
}

// SanitizeContent strips control characters (keeping newlines and tabs) and
// trims surrounding whitespace.
func SanitizeContent(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
