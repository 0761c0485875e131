// Package ratelimit throttles bridge callers per peer.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/spounge-ai/rosetta/internal/infra/config"
)

// Limiter decides whether a caller may proceed.
type Limiter interface {
	// Allow reports whether identifier (a peer address) may make a request now.
	Allow(identifier string) bool
}

// New builds the limiter described by cfg. A disabled limiter allows
// everything.
func New(cfg config.RateLimiterConfig) Limiter {
	if !cfg.Enabled {
		return allowAll{}
	}
	return NewInMemoryRateLimiter(rate.Limit(cfg.Rate), cfg.Burst, defaultIdleTTL)
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

const defaultIdleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InMemoryRateLimiter keeps one token bucket per identifier. Buckets idle
// for longer than idleTTL are dropped on the next Allow.
type InMemoryRateLimiter struct {
	rate    rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

func NewInMemoryRateLimiter(r rate.Limit, burst int, idleTTL time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		rate:    r,
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

func (l *InMemoryRateLimiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	c, exists := l.clients[identifier]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[identifier] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Len returns the number of tracked identifiers.
func (l *InMemoryRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *InMemoryRateLimiter) sweep(now time.Time) {
	if l.idleTTL <= 0 || now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for id, c := range l.clients {
		if now.Sub(c.lastSeen) > l.idleTTL {
			delete(l.clients, id)
		}
	}
}
