package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMissesAfterExpiry(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Stop()

	c.SetWithTTL("tier:user-1", "gold", 20*time.Millisecond)

	value, ok := c.Get("tier:user-1")
	require.True(t, ok)
	assert.Equal(t, "gold", value)

	time.Sleep(30 * time.Millisecond)

	_, ok = c.Get("tier:user-1")
	assert.False(t, ok)
}

func TestGetOrFetchCachesResult(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Stop()

	calls := 0
	fetch := func(context.Context) (interface{}, error) {
		calls++
		return "silver", nil
	}

	for i := 0; i < 3; i++ {
		value, err := c.GetOrFetch(context.Background(), "tier:user-2", fetch)
		require.NoError(t, err)
		assert.Equal(t, "silver", value)
	}
	assert.Equal(t, 1, calls)
}

func TestGetOrFetchDoesNotCacheErrors(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Stop()

	errUpstream := errors.New("upstream down")
	calls := 0
	fetch := func(context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errUpstream
		}
		return "bronze", nil
	}

	_, err := c.GetOrFetch(context.Background(), "tier:user-3", fetch)
	require.ErrorIs(t, err, errUpstream)

	value, err := c.GetOrFetch(context.Background(), "tier:user-3", fetch)
	require.NoError(t, err)
	assert.Equal(t, "bronze", value)
	assert.Equal(t, 2, calls)
}

func TestDeleteForcesRefetch(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Stop()

	c.Set("tier:user-4", "gold")
	require.Equal(t, 1, c.Len())

	c.Delete("tier:user-4")
	_, ok := c.Get("tier:user-4")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	c := NewTTLCache(20 * time.Millisecond)
	defer c.Stop()

	c.Set("a", 1)
	c.Set("b", 2)

	require.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond)
}
