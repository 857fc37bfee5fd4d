package recording

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu       sync.Mutex
	uploads  int
	failures int // fail this many uploads before succeeding
	lastKey  string
	lastSize int64
}

func (f *fakeStore) UploadArtifact(ctx context.Context, key string, body io.Reader, size int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploads <= f.failures {
		return "", errors.New("upload failed")
	}
	f.lastKey = key
	f.lastSize = size
	return "https://cdn.test/" + key, nil
}

func testSession(id string) *domain.StreamSession {
	return &domain.StreamSession{
		ID: domain.SessionID(id),
		Settings: domain.SessionSettings{
			IngestKey: "0123456789abcdef0123456789abcdef",
		},
	}
}

func newTestSupervisor(t *testing.T, store *fakeStore, cfg Config) *Supervisor {
	t.Helper()
	if cfg.WorkDir == "" {
		cfg.WorkDir = t.TempDir()
	}
	return NewSupervisor(store, cfg, zap.NewNop().Sugar())
}

func TestStartAndStopRecorder(t *testing.T) {
	sup := newTestSupervisor(t, &fakeStore{}, Config{
		Command:  "sleep",
		Args:     []string{"30"},
		StopWait: 2 * time.Second,
	})
	session := testSession("sess_rec1")

	require.NoError(t, sup.Start(context.Background(), session))

	path, err := sup.Stop(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "sess_rec1.mp4", filepath.Base(path))
}

// Stop must not call Wait itself: the watcher goroutine already owns the
// Wait call, and a second concurrent Wait on the same process races. The
// race detector flags this test if Stop ever waits directly again.
func TestStopWhileWatcherIsWaiting(t *testing.T) {
	sup := newTestSupervisor(t, &fakeStore{}, Config{
		Command:  "sleep",
		Args:     []string{"30"},
		StopWait: 2 * time.Second,
	})
	sup.SetFailureHandler(func(ctx context.Context, sessionID domain.SessionID, cause error) {
		t.Errorf("stop reported as failure for %s: %v", sessionID, cause)
	})
	session := testSession("sess_waiter")

	require.NoError(t, sup.Start(context.Background(), session))

	// Give the watcher time to block in Wait before stopping.
	time.Sleep(100 * time.Millisecond)

	path, err := sup.Stop(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "sess_waiter.mp4", filepath.Base(path))

	_, err = sup.Stop(context.Background(), session.ID)
	assert.ErrorIs(t, err, domain.ErrRecordingFailure)
}

func TestStartRejectsDuplicateRecorder(t *testing.T) {
	sup := newTestSupervisor(t, &fakeStore{}, Config{
		Command:  "sleep",
		Args:     []string{"30"},
		StopWait: 2 * time.Second,
	})
	session := testSession("sess_dup")

	require.NoError(t, sup.Start(context.Background(), session))
	defer sup.Stop(context.Background(), session.ID)

	err := sup.Start(context.Background(), session)
	assert.ErrorIs(t, err, domain.ErrRecordingFailure)
}

func TestCrashedRecorderReportsFailure(t *testing.T) {
	sup := newTestSupervisor(t, &fakeStore{}, Config{Command: "false"})

	var mu sync.Mutex
	var failedSession domain.SessionID
	sup.SetFailureHandler(func(ctx context.Context, sessionID domain.SessionID, cause error) {
		mu.Lock()
		defer mu.Unlock()
		failedSession = sessionID
		assert.ErrorIs(t, cause, domain.ErrRecordingFailure)
	})

	require.NoError(t, sup.Start(context.Background(), testSession("sess_crash")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failedSession == "sess_crash"
	}, 2*time.Second, 10*time.Millisecond)

	// The proc slot is released after the crash.
	_, err := sup.Stop(context.Background(), "sess_crash")
	assert.ErrorIs(t, err, domain.ErrRecordingFailure)
}

func TestStopWithoutRecorder(t *testing.T) {
	sup := newTestSupervisor(t, &fakeStore{}, Config{})

	_, err := sup.Stop(context.Background(), "sess_none")

	assert.ErrorIs(t, err, domain.ErrRecordingFailure)
}

func TestFinalizeUploadsAndRemovesLocalFile(t *testing.T) {
	store := &fakeStore{}
	sup := newTestSupervisor(t, store, Config{})
	local := filepath.Join(t.TempDir(), "sess_fin.mp4")
	require.NoError(t, os.WriteFile(local, []byte("fake mp4 bytes"), 0644))

	url, err := sup.Finalize(context.Background(), "sess_fin", local)

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/recordings/sess_fin.mp4", url)
	assert.Equal(t, "recordings/sess_fin.mp4", store.lastKey)
	assert.EqualValues(t, 14, store.lastSize)
	_, statErr := os.Stat(local)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFinalizeRetriesTransientUploadFailure(t *testing.T) {
	store := &fakeStore{failures: 1}
	sup := newTestSupervisor(t, store, Config{UploadAttempts: 3})
	local := filepath.Join(t.TempDir(), "sess_retry.mp4")
	require.NoError(t, os.WriteFile(local, []byte("data"), 0644))

	url, err := sup.Finalize(context.Background(), "sess_retry", local)

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/recordings/sess_retry.mp4", url)
	assert.Equal(t, 2, store.uploads)
}

func TestFinalizeGivesUpAfterAttemptBudget(t *testing.T) {
	store := &fakeStore{failures: 100}
	sup := newTestSupervisor(t, store, Config{UploadAttempts: 2})
	local := filepath.Join(t.TempDir(), "sess_fail.mp4")
	require.NoError(t, os.WriteFile(local, []byte("data"), 0644))

	_, err := sup.Finalize(context.Background(), "sess_fail", local)

	assert.ErrorIs(t, err, domain.ErrUploadFailure)
	assert.Equal(t, 2, store.uploads)
	// The local artifact is kept for manual recovery.
	_, statErr := os.Stat(local)
	assert.NoError(t, statErr)
}

func TestFinalizeMissingArtifact(t *testing.T) {
	sup := newTestSupervisor(t, &fakeStore{}, Config{})

	_, err := sup.Finalize(context.Background(), "sess_gone", "/nonexistent/path.mp4")

	assert.ErrorIs(t, err, domain.ErrUploadFailure)
}
