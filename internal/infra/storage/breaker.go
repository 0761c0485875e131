package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spounge-ai/rosetta/pkg/patterns/circuitbreaker"
)

type getResult struct {
	value []byte
	found bool
}

// Breaker guards a remote backend with separate read and write circuit
// breakers so a failing write path does not block reads.
type Breaker struct {
	next  Store
	read  *circuitbreaker.Breaker[getResult]
	write *circuitbreaker.Breaker[struct{}]
}

func NewBreaker(next Store, maxFailures int, resetTimeout time.Duration, logger *slog.Logger) *Breaker {
	onChange := func(name string) func(from, to circuitbreaker.State) {
		return func(from, to circuitbreaker.State) {
			logger.Warn("storage circuit breaker changed state", "path", name, "from", from, "to", to)
		}
	}

	// A caller giving up says nothing about the backend.
	countable := func(err error) bool {
		return err != nil && !errors.Is(err, context.Canceled)
	}

	return &Breaker{
		next: next,
		read: circuitbreaker.New(maxFailures,
			circuitbreaker.WithResetTimeout[getResult](resetTimeout),
			circuitbreaker.WithStateChange[getResult](onChange("read")),
			circuitbreaker.WithFailurePredicate[getResult](countable),
		),
		write: circuitbreaker.New(maxFailures,
			circuitbreaker.WithResetTimeout[struct{}](resetTimeout),
			circuitbreaker.WithStateChange[struct{}](onChange("write")),
			circuitbreaker.WithFailurePredicate[struct{}](countable),
		),
	}
}

func (b *Breaker) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.read.Execute(ctx, func(ctx context.Context) (getResult, error) {
		value, found, err := b.next.Get(ctx, key)
		return getResult{value: value, found: found}, err
	})
	return res.value, res.found, err
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.write.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.next.Set(ctx, key, value)
	})
	return err
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	_, err := b.write.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.next.Delete(ctx, key)
	})
	return err
}
