package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDependency = errors.New("dependency failed")

func failing(ctx context.Context) error { return errDependency }

func succeeding(ctx context.Context) error { return nil }

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := New(DefaultConfig())

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(context.Background(), succeeding))
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, failing), errDependency)
	}
	assert.Equal(t, StateOpen, cb.State())

	// Calls now fail fast without reaching the dependency.
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	assert.Error(t, cb.Execute(ctx, failing))
	assert.Error(t, cb.Execute(ctx, failing))
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Error(t, cb.Execute(ctx, failing))
	assert.Error(t, cb.Execute(ctx, failing))

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := New(Config{FailureThreshold: 2, SuccessThreshold: 2, Timeout: 10 * time.Millisecond, MaxRequestsHalfOpen: 2})
	ctx := context.Background()

	assert.Error(t, cb.Execute(ctx, failing))
	assert.Error(t, cb.Execute(ctx, failing))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(15 * time.Millisecond)

	require.NoError(t, cb.Execute(ctx, succeeding))
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := New(Config{FailureThreshold: 2, SuccessThreshold: 2, Timeout: 10 * time.Millisecond})
	ctx := context.Background()

	assert.Error(t, cb.Execute(ctx, failing))
	assert.Error(t, cb.Execute(ctx, failing))
	time.Sleep(15 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(ctx, failing), errDependency)
	assert.Equal(t, StateOpen, cb.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
