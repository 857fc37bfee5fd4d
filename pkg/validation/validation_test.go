package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChatContent(t *testing.T) {
	assert.NoError(t, ValidateChatContent("hello", 500))
	assert.NoError(t, ValidateChatContent(strings.Repeat("я", 500), 500))

	assert.Error(t, ValidateChatContent("", 500))
	assert.Error(t, ValidateChatContent("   \t  ", 500))
	assert.Error(t, ValidateChatContent(strings.Repeat("a", 501), 500))
	assert.Error(t, ValidateChatContent("bad\xff\xfeutf8", 500))
}

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Friday Night Stream"))
	assert.NoError(t, ValidateTitle(strings.Repeat("t", 140)))

	assert.Error(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle("   "))
	assert.Error(t, ValidateTitle(strings.Repeat("t", 141)))
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("sess_48f3c9c2-9d4a-4b7e-b6cb-2f6f8a3e9d10"))

	assert.Error(t, ValidateSessionID(""))
	assert.Error(t, ValidateSessionID("has spaces"))
	assert.Error(t, ValidateSessionID("semi;colon"))
	assert.Error(t, ValidateSessionID(strings.Repeat("a", 101)))
}

func TestValidateIngestKey(t *testing.T) {
	assert.NoError(t, ValidateIngestKey("0123456789abcdef0123456789abcdef"))

	assert.Error(t, ValidateIngestKey(""))
	assert.Error(t, ValidateIngestKey("0123456789ABCDEF0123456789ABCDEF"))
	assert.Error(t, ValidateIngestKey("0123456789abcdef"))
}

func TestSanitizeContent(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeContent("  hello world  "))
	assert.Equal(t, "line1\nline2", SanitizeContent("line1\nline2"))
	assert.Equal(t, "nocontrol", SanitizeContent("no\x00con\x07trol"))
}
