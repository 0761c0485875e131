package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/spounge-ai/rosetta/internal/infra/config"
)

func TestBurstThenThrottle(t *testing.T) {
	l := NewInMemoryRateLimiter(rate.Limit(1), 2, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "peers have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
}

func TestIdleClientsAreDropped(t *testing.T) {
	l := NewInMemoryRateLimiter(rate.Limit(1), 1, time.Minute)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	now = now.Add(2 * time.Minute)
	l.Allow("b")
	assert.Equal(t, 1, l.Len())
}

func TestDisabledAllowsEverything(t *testing.T) {
	l := New(config.RateLimiterConfig{Enabled: false})
	for range 100 {
		assert.True(t, l.Allow("x"))
	}
}
