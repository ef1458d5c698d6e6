// Package flagcache is a small explicit TTL cache for values that are safe
// to read stale for a bounded window. It replaces the module-level mutable
// cache pattern with an injected object whose TTL and invalidation are
// visible and testable.
package flagcache

import (
	"context"
	"sync"
	"time"
)

type Cache[T any] struct {
	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool

	ttl  time.Duration
	load func(ctx context.Context) (T, error)
	now  func() time.Time
}

func New[T any](ttl time.Duration, load func(ctx context.Context) (T, error)) *Cache[T] {
	return &Cache[T]{ttl: ttl, load: load, now: time.Now}
}

// Get returns the cached value, reloading it once the TTL has elapsed. A
// failed reload does not serve a stale value: staleness is bounded by the
// TTL, errors are not papered over.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.value, nil
	}

	value, err := c.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = value
	c.fetchedAt = c.now()
	c.valid = true
	return value, nil
}

// Invalidate drops the cached value so the next Get reloads.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
