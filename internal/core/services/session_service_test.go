package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionRequiresStreamPermission(t *testing.T) {
	env := newTestEnv(t)
	env.access.On("CanStream", mock.Anything, domain.UserID("viewer-1")).Return(false, nil).Once()

	_, err := env.sessions.CreateSession(context.Background(), "viewer-1", domain.SessionSpec{Title: "My Stream"})

	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	env.access.AssertExpectations(t)
}

func TestCreateSessionRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Once()

	_, err := env.sessions.CreateSession(context.Background(), "caster-1", domain.SessionSpec{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateSessionGeneratesIngestKey(t *testing.T) {
	env := newTestEnv(t)
	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Twice()
	ctx := context.Background()

	first, err := env.sessions.CreateSession(ctx, "caster-1", domain.SessionSpec{Title: "One"})
	require.NoError(t, err)
	second, err := env.sessions.CreateSession(ctx, "caster-1", domain.SessionSpec{Title: "Two"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusStarting, first.Status)
	assert.Len(t, first.Settings.IngestKey, 32)
	assert.NotEqual(t, first.Settings.IngestKey, second.Settings.IngestKey)
	assert.True(t, strings.HasSuffix(env.sessions.IngestURL(first), first.Settings.IngestKey))
}

func TestCreateSessionScheduledInFuture(t *testing.T) {
	env := newTestEnv(t)
	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Once()
	at := time.Now().Add(time.Hour)

	session, err := env.sessions.CreateSession(context.Background(), "caster-1", domain.SessionSpec{
		Title:       "Later",
		ScheduledAt: &at,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusScheduled, session.Status)
}

func TestStartSessionRejectsNonOwner(t *testing.T) {
	env := newTestEnv(t)
	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Once()
	session, err := env.sessions.CreateSession(context.Background(), "caster-1", domain.SessionSpec{Title: "Show"})
	require.NoError(t, err)

	err = env.sessions.StartSession(context.Background(), session.ID, "intruder")

	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestStartSessionRejectsLiveSession(t *testing.T) {
	env := newTestEnv(t)
	session := env.createLiveSession(t, "caster-1", domain.SessionSpec{Title: "Show"})

	err := env.sessions.StartSession(context.Background(), session.ID, "caster-1")

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestEndSessionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createLiveSession(t, "caster-1", domain.SessionSpec{Title: "Show"})

	require.NoError(t, env.sessions.EndSession(ctx, session.ID, "caster-1"))
	require.NoError(t, env.sessions.EndSession(ctx, session.ID, "caster-1"))

	final, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, final.Status)
	require.NotNil(t, final.EndTime)
	assert.Greater(t, final.Duration, time.Duration(0))

	env.sink.waitForBroadcast(t, "stream_ended")
	assert.Len(t, env.sink.Broadcasts("stream_ended"), 1)
}

func TestEndSessionClearsViewers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createLiveSession(t, "caster-1", domain.SessionSpec{Title: "Show", Visibility: domain.VisibilityPublic})
	env.joinViewer(t, session.ID, "fan-1")
	env.joinViewer(t, session.ID, "fan-2")

	require.NoError(t, env.sessions.EndSession(ctx, session.ID, "caster-1"))

	final, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Metadata.CurrentViewers)
	assert.Equal(t, 2, final.Metadata.PeakViewers)
}

func TestFailSessionBroadcastsErrorThenEnds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createLiveSession(t, "caster-1", domain.SessionSpec{Title: "Show"})

	require.NoError(t, env.sessions.FailSession(ctx, session.ID, errors.New("ingest died")))

	env.sink.waitForBroadcast(t, "stream_error")
	env.sink.waitForBroadcast(t, "stream_ended")
	final, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, final.Status)
}

func TestFailSessionPurgesChatHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createLiveSession(t, "caster-1", domain.SessionSpec{Title: "Show", ChatEnabled: true})

	_, err := env.chat.PostMessage(ctx, session.ID, "caster-1", "doomed message")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		stored, err := env.chatRepo.Recent(ctx, session.ID, 0)
		return err == nil && len(stored) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, env.sessions.FailSession(ctx, session.ID, errors.New("ingest died")))

	stored, err := env.chatRepo.Recent(ctx, session.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestLikesAndSharesRequireLiveSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Once()
	at := time.Now().Add(time.Hour)
	scheduled, err := env.sessions.CreateSession(ctx, "caster-1", domain.SessionSpec{Title: "Later", ScheduledAt: &at})
	require.NoError(t, err)

	_, err = env.sessions.IncrementLikes(ctx, scheduled.ID)
	assert.ErrorIs(t, err, domain.ErrStreamNotLive)

	live := env.createLiveSession(t, "caster-2", domain.SessionSpec{Title: "Now"})
	count, err := env.sessions.IncrementLikes(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = env.sessions.IncrementShares(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	env.sink.waitForBroadcast(t, "stream_like_count")
	env.sink.waitForBroadcast(t, "stream_share_count")
}

func TestRecordingFailureKeepsStreamLive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Once()
	env.recording.On("Start", mock.Anything, mock.Anything).Return(errors.New("recorder exec failed")).Once()

	session, err := env.sessions.CreateSession(ctx, "caster-1", domain.SessionSpec{
		Title:            "Show",
		RecordingEnabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, env.sessions.StartSession(ctx, session.ID, "caster-1"))

	live, err := env.sessions.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLive, live.Status)
	assert.False(t, live.Settings.RecordingEnabled)
	env.recording.AssertExpectations(t)
}

func TestEndSessionStopsAndFinalizesRecording(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Once()
	env.recording.On("Start", mock.Anything, mock.Anything).Return(nil).Once()

	session, err := env.sessions.CreateSession(ctx, "caster-1", domain.SessionSpec{
		Title:            "Show",
		RecordingEnabled: true,
	})
	require.NoError(t, err)
	require.NoError(t, env.sessions.StartSession(ctx, session.ID, "caster-1"))

	env.recording.On("Stop", mock.Anything, session.ID).Return("/tmp/rec.mp4", nil).Once()
	env.recording.On("Finalize", mock.Anything, session.ID, "/tmp/rec.mp4").
		Return("https://cdn.test/recordings/rec.mp4", nil).Once()

	require.NoError(t, env.sessions.EndSession(ctx, session.ID, "caster-1"))

	require.Eventually(t, func() bool {
		final, err := env.sessions.Get(ctx, session.ID)
		return err == nil && final.RecordingURL == "https://cdn.test/recordings/rec.mp4"
	}, time.Second, 5*time.Millisecond)
	env.recording.AssertExpectations(t)
}

func TestStartWatchdogFailsStuckSessions(t *testing.T) {
	env := newTestEnv(t, withSessionConfig(services.SessionConfig{
		IngestBaseURL: "rtmp://ingest.test/live",
		StartTimeout:  20 * time.Millisecond,
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.access.On("CanStream", mock.Anything, mock.Anything).Return(true, nil).Once()
	session, err := env.sessions.CreateSession(ctx, "caster-1", domain.SessionSpec{Title: "Stuck"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusStarting, session.Status)

	go env.sessions.RunStartWatchdog(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		final, err := env.sessions.Get(ctx, session.ID)
		return err == nil && final.Status == domain.StatusEnded
	}, time.Second, 5*time.Millisecond)
	env.sink.waitForBroadcast(t, "stream_error")
}

func TestListActiveExcludesEndedSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	live := env.createLiveSession(t, "caster-1", domain.SessionSpec{Title: "A"})
	ended := env.createLiveSession(t, "caster-2", domain.SessionSpec{Title: "B"})
	require.NoError(t, env.sessions.EndSession(ctx, ended.ID, "caster-2"))

	active, err := env.sessions.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, live.ID, active[0].ID)
}
