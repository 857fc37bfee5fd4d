package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestFullBroadcastLifecycle walks one session from creation to teardown the
// way a real broadcast runs: go live, admit a viewer, chat, take a donation,
// lose the viewer, end.
func TestFullBroadcastLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.access.On("CanStream", mock.Anything, domain.UserID("caster-1")).Return(true, nil).Once()
	session, err := env.sessions.CreateSession(ctx, "caster-1", domain.SessionSpec{
		Title:            "Launch Party",
		Category:         "music",
		ChatEnabled:      true,
		DonationsEnabled: true,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusStarting, session.Status)
	require.NotEmpty(t, session.Settings.IngestKey)

	require.NoError(t, env.sessions.StartSession(ctx, session.ID, "caster-1"))
	env.sink.waitForBroadcast(t, "stream_started")

	viewer := env.joinViewer(t, session.ID, "fan-1")
	assert.Equal(t, domain.QualityAuto, viewer.Quality)

	_, err = env.chat.PostMessage(ctx, session.ID, "fan-1", "first!")
	require.NoError(t, err)

	env.payments.On("ProcessDonationPayment", mock.Anything, mock.Anything).Return(nil).Once()
	env.notifier.On("Notify", mock.Anything, domain.UserID("caster-1"), "donation_received", mock.Anything).Once()
	donation, err := env.donations.Donate(ctx, session.ID, "fan-1", 10, "keep it up")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationCompleted, donation.Status)

	require.NoError(t, env.viewers.Leave(ctx, session.ID, "fan-1"))
	require.NoError(t, env.sessions.EndSession(ctx, session.ID, "caster-1"))
	env.sink.waitForBroadcast(t, "stream_ended")

	final, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, final.Status)
	assert.Greater(t, final.Duration, time.Duration(0))
	assert.Equal(t, 0, final.Metadata.CurrentViewers)
	assert.Equal(t, 1, final.Metadata.PeakViewers)
	assert.Equal(t, 1, final.Metadata.TotalViews)
	assert.Equal(t, 10.0, final.Metadata.TotalDonations)
	assert.Equal(t, 2, final.Metadata.ChatMessages)

	// History survives the session through the chat repository.
	history, err := env.chat.History(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	active, err := env.sessions.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}
