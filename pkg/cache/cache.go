package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

func (e entry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// TTLCache is a small in-memory cache with per-entry expiry. It backs
// lookups against slow collaborators so hot paths do not repeat the same
// remote call for every event.
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	stopSweep  chan struct{}
	stopOnce   sync.Once
}

func NewTTLCache(defaultTTL time.Duration) *TTLCache {
	c := &TTLCache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		stopSweep:  make(chan struct{}),
	}
	go c.sweep(defaultTTL / 2)
	return c
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired() {
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

func (c *TTLCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// GetOrFetch returns the cached value for key, or calls fetch and caches
// the result. Fetch errors are never cached.
func (c *TTLCache) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(key, value)
	return value, nil
}

func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache) sweep(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for key, e := range c.entries {
				if e.expired() {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *TTLCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopSweep) })
}
