// Package cache holds short-lived values keyed by string, such as derived
// sealing keys and proxy health results.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL expires every entry a fixed time after it was stored. Expired entries
// are dropped lazily on access and by a sweep at most once per TTL.
type TTL[V any] struct {
	mu        sync.Mutex
	entries   map[string]entry[V]
	ttl       time.Duration
	now       func() time.Time
	onEvict   func(string, V)
	lastSweep time.Time

	loads singleflight.Group
}

type Option[V any] func(*TTL[V])

// WithClock replaces time.Now.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *TTL[V]) { c.now = now }
}

// WithOnEvict is called for every entry that leaves the cache, whether it
// expired, was replaced or was cleared. Secret values are zeroed there.
func WithOnEvict[V any](fn func(key string, value V)) Option[V] {
	return func(c *TTL[V]) { c.onEvict = fn }
}

func New[V any](ttl time.Duration, opts ...Option[V]) *TTL[V] {
	c := &TTL[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastSweep = c.now()
	return c
}

func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expiresAt) {
		c.evict(key, e)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if old, ok := c.entries[key]; ok {
		c.evict(key, old)
	}
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}

	if now.Sub(c.lastSweep) >= c.ttl {
		c.sweep(now)
	}
}

// GetOrLoad returns the cached value or calls load once, however many
// callers ask for the same key at the same time. Errors are not cached.
func (c *TTL[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.loads.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	val, _ := v.(V)
	return val, nil
}

func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear evicts everything.
func (c *TTL[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		c.evict(k, e)
	}
}

func (c *TTL[V]) sweep(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			c.evict(k, e)
		}
	}
	c.lastSweep = now
}

// evict must be called with mu held.
func (c *TTL[V]) evict(key string, e entry[V]) {
	delete(c.entries, key)
	if c.onEvict != nil {
		c.onEvict(key, e.value)
	}
}
