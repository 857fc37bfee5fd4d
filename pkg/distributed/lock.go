package distributed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock key only when this holder still owns it.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// LeaderLock elects a single coordinator replica for background work that
// must not run twice, such as the start watchdog. It is a Redis SET NX
// lease renewed at half TTL while the holder is alive.
type LeaderLock struct {
	client *redis.Client
	key    string
	holder string
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewLeaderLock(client *redis.Client, key string, ttl time.Duration, logger *zap.SugaredLogger) *LeaderLock {
	return &LeaderLock{
		client: client,
		key:    key,
		holder: newHolderID(),
		ttl:    ttl,
		logger: logger,
	}
}

func newHolderID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// TryAcquire attempts to take the lease without blocking.
func (l *LeaderLock) TryAcquire(ctx context.Context) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key, l.holder, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire leader lock: %w", err)
	}
	return acquired, nil
}

// Renew extends the lease. It reports false when the lease has been lost
// to another holder, which means leadership must be surrendered.
func (l *LeaderLock) Renew(ctx context.Context) (bool, error) {
	current, err := l.client.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check leader lock: %w", err)
	}
	if current != l.holder {
		return false, nil
	}
	if err := l.client.Expire(ctx, l.key, l.ttl).Err(); err != nil {
		return false, fmt.Errorf("renew leader lock: %w", err)
	}
	return true, nil
}

// Release gives up the lease if this holder still owns it.
func (l *LeaderLock) Release(ctx context.Context) error {
	if err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.holder).Err(); err != nil {
		return fmt.Errorf("release leader lock: %w", err)
	}
	return nil
}

// RunWhenLeader campaigns for the lease and runs fn while it is held. fn
// receives a context that is cancelled when leadership is lost. The call
// returns when ctx is done.
func (l *LeaderLock) RunWhenLeader(ctx context.Context, fn func(context.Context)) {
	campaign := time.NewTicker(l.ttl)
	defer campaign.Stop()

	for {
		acquired, err := l.TryAcquire(ctx)
		if err != nil && l.logger != nil {
			l.logger.Warnw("leader campaign failed", "key", l.key, "error", err)
		}
		if acquired {
			l.lead(ctx, fn)
			if ctx.Err() != nil {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-campaign.C:
		}
	}
}

// lead runs fn and keeps the lease renewed until it is lost or ctx ends.
func (l *LeaderLock) lead(ctx context.Context, fn func(context.Context)) {
	leadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(leadCtx)
	}()

	renew := time.NewTicker(l.ttl / 2)
	defer renew.Stop()

	for {
		select {
		case <-ctx.Done():
			releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 2*time.Second)
			l.Release(releaseCtx)
			releaseCancel()
			cancel()
			<-done
			return
		case <-done:
			return
		case <-renew.C:
			held, err := l.Renew(ctx)
			if err != nil && l.logger != nil {
				l.logger.Warnw("leader lease renewal failed", "key", l.key, "error", err)
			}
			if !held {
				if l.logger != nil {
					l.logger.Infow("leader lease lost", "key", l.key)
				}
				cancel()
				<-done
				return
			}
		}
	}
}
