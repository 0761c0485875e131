package execution

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff describes how often and how patiently to retry.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	// Retryable reports whether an error is worth another attempt. Nil
	// retries every error.
	Retryable func(error) bool
}

// delay doubles per attempt up to Max, then picks a random point in the
// upper half of that window.
func (b Backoff) delay(attempt int) time.Duration {
	d := b.Initial << attempt
	if d <= 0 || (b.Max > 0 && d > b.Max) {
		d = b.Max
	}
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(half)
}

// Retry calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	attempts := max(b.Attempts, 1)

	var (
		result T
		err    error
	)
	for attempt := range attempts {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == attempts-1 || (b.Retryable != nil && !b.Retryable(err)) {
			break
		}

		timer := time.NewTimer(b.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}
	return result, err
}
