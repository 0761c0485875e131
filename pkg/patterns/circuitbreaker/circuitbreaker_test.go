package circuitbreaker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spounge-ai/rosetta/pkg/patterns/circuitbreaker"
)

var errDown = errors.New("backend down")

func fail(context.Context) (int, error) { return 0, errDown }
func ok(context.Context) (int, error)   { return 1, nil }

func TestOpensAfterMaxFailures(t *testing.T) {
	var transitions []string
	cb := circuitbreaker.New(2,
		circuitbreaker.WithResetTimeout[int](time.Hour),
		circuitbreaker.WithStateChange[int](func(from, to circuitbreaker.State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	_, _ = cb.Execute(context.Background(), fail)
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
	_, _ = cb.Execute(context.Background(), fail)
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())

	_, err := cb.Execute(context.Background(), ok)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestHalfOpenRecovers(t *testing.T) {
	cb := circuitbreaker.New(1, circuitbreaker.WithResetTimeout[int](time.Millisecond))

	_, _ = cb.Execute(context.Background(), fail)
	assert.Equal(t, circuitbreaker.StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)
	v, err := cb.Execute(context.Background(), ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}

func TestFailurePredicate(t *testing.T) {
	cb := circuitbreaker.New(1, circuitbreaker.WithFailurePredicate[int](func(err error) bool {
		return err != nil && !errors.Is(err, errDown)
	}))

	_, _ = cb.Execute(context.Background(), fail)
	assert.Equal(t, circuitbreaker.StateClosed, cb.State())
}
