// internal/cache/ttl.go
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TTLCache is a mutex-guarded map cache whose entries expire after a
// fixed duration. Expired entries are dropped lazily on Get and can be
// swept with CleanExpired.
type TTLCache[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]ttlItem[T]
	now   func() time.Time
}

type ttlItem[T any] struct {
	data      T
	expiresAt time.Time
}

// NewTTLCache creates a cache whose entries live for ttl.
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		ttl:   ttl,
		items: make(map[string]ttlItem[T]),
		now:   time.Now,
	}
}

// WithClock replaces the cache's notion of now. Tests use this to step
// time past the TTL without sleeping.
func (c *TTLCache[T]) WithClock(now func() time.Time) *TTLCache[T] {
	c.now = now
	return c
}

// Get retrieves a value from the cache.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	item, exists := c.items[key]
	if !exists {
		return zero, false
	}
	if c.now().After(item.expiresAt) {
		delete(c.items, key)
		return zero, false
	}
	return item.data, true
}

// Set stores a value, resetting its expiry.
func (c *TTLCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = ttlItem[T]{
		data:      data,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Delete removes a key from the cache.
func (c *TTLCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Size returns the current number of items, including not yet swept
// expired ones.
func (c *TTLCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// SweepEvery runs CleanExpired at the given interval until ctx is
// cancelled. Run it in its own goroutine.
func (c *TTLCache[T]) SweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.CleanExpired(); removed > 0 {
				slog.Debug("cache sweep", "removed", removed)
			}
		}
	}
}

// CleanExpired removes all expired entries and returns how many were
// dropped.
func (c *TTLCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}
