package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":8081", cfg.Signal.Address)
	assert.Equal(t, 45*time.Second, cfg.Signal.BroadcasterGrace)
	assert.Equal(t, 20, cfg.Chat.MessagesPerMinute)
	assert.Equal(t, 1.00, cfg.Donations.MinAmount)
	assert.Equal(t, 10000.00, cfg.Donations.MaxAmount)
	assert.False(t, cfg.Recording.Enabled)
	assert.Equal(t, 3, cfg.Recording.UploadAttempts)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty server address", func(c *Config) { c.Server.Address = "" }},
		{"empty signal address", func(c *Config) { c.Signal.Address = "" }},
		{"negative grace", func(c *Config) { c.Signal.BroadcasterGrace = -time.Second }},
		{"empty ingest base url", func(c *Config) { c.Sessions.IngestBaseURL = "" }},
		{"zero start timeout", func(c *Config) { c.Sessions.StartTimeout = 0 }},
		{"zero chat length", func(c *Config) { c.Chat.MaxMessageLength = 0 }},
		{"max below min donation", func(c *Config) { c.Donations.MaxAmount = 0.5 }},
		{"recording without command", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.Command = ""
		}},
		{"recording without upload attempts", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.UploadAttempts = 0
		}},
		{"tracing sample rate out of range", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRate = 1.5
		}},
		{"redis enabled without address", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Address = ""
		}},
		{"empty jwt secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"rate limiting without rps", func(c *Config) {
			c.RateLimiting.Enabled = true
			c.RateLimiting.HTTP.RequestsPerSecond = 0
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  address: ":9090"
chat:
  messages_per_minute: 5
  moderation_keywords:
    - spamword
donations:
  max_amount: 500
recording:
  upload_attempts: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 5, cfg.Chat.MessagesPerMinute)
	assert.Equal(t, []string{"spamword"}, cfg.Chat.ModerationKeywords)
	assert.Equal(t, 500.0, cfg.Donations.MaxAmount)
	assert.Equal(t, 5, cfg.Recording.UploadAttempts)
	// Untouched sections keep their defaults.
	assert.Equal(t, ":8081", cfg.Signal.Address)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \"\"\n"), 0644))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COORDINATOR_SERVER_ADDRESS", ":7070")
	t.Setenv("COORDINATOR_JWT_SECRET", "from-env")
	t.Setenv("COORDINATOR_REDIS_ADDRESS", "redis.test:6379")
	t.Setenv("COORDINATOR_ACCOUNTS_URL", "http://accounts.test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.test:6379", cfg.Redis.Address)
	assert.Equal(t, "http://accounts.test", cfg.Accounts.BaseURL)
}
