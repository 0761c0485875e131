package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spounge-ai/rosetta/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestGetExpires(t *testing.T) {
	clock := newClock()
	c := cache.New(time.Minute, cache.WithClock[string](clock.Now))

	c.Set("a", "1")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	clock.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestSetSweepsExpiredEntries(t *testing.T) {
	clock := newClock()
	var evicted []string
	c := cache.New(time.Minute,
		cache.WithClock[int](clock.Now),
		cache.WithOnEvict(func(k string, _ int) { evicted = append(evicted, k) }),
	)

	c.Set("old", 1)
	clock.Advance(2 * time.Minute)
	c.Set("new", 2)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"old"}, evicted)
}

func TestOnEvictZeroesReplacedAndCleared(t *testing.T) {
	c := cache.New(time.Hour, cache.WithOnEvict(func(_ string, b []byte) { clear(b) }))

	first := []byte("secret")
	c.Set("k", first)
	c.Set("k", []byte("other"))
	assert.Equal(t, make([]byte, 6), first)

	second, ok := c.Get("k")
	require.True(t, ok)
	c.Clear()
	assert.Equal(t, make([]byte, 5), second)
	assert.Zero(t, c.Len())
}

func TestGetOrLoadSharesConcurrentLoads(t *testing.T) {
	c := cache.New[int](time.Minute)
	var loads atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
				loads.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool { return loads.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 42, v)
	}
	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (int, error) {
		return 0, errors.New("should not load")
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int32(1), loads.Load())
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := cache.New[bool](time.Minute)
	boom := errors.New("proxy down")

	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (bool, error) { return false, boom })
	require.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	v, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (bool, error) { return true, nil })
	require.NoError(t, err)
	assert.True(t, v)
}
