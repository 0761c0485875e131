package circuitbreaker

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open")

const DefaultResetTimeout = 30 * time.Second

// Breaker is a generic, thread-safe circuit breaker.
type Breaker[T any] struct {
	maxFailures      int64
	resetTimeout     time.Duration
	halfOpenRequests int64
	onStateChange    func(from, to State)
	isFailure        func(error) bool

	state           atomic.Int32
	failures        atomic.Int64
	lastFailureTime atomic.Int64 // Unix nano
	successCount    atomic.Int64
}

// Option configures a Breaker.
type Option[T any] func(*Breaker[T])

func WithResetTimeout[T any](d time.Duration) Option[T] {
	return func(b *Breaker[T]) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// WithHalfOpenRequests sets how many successes close a half-open circuit.
func WithHalfOpenRequests[T any](n int) Option[T] {
	return func(b *Breaker[T]) {
		if n > 0 {
			b.halfOpenRequests = int64(n)
		}
	}
}

// WithStateChange registers a callback run after every transition.
func WithStateChange[T any](fn func(from, to State)) Option[T] {
	return func(b *Breaker[T]) {
		b.onStateChange = fn
	}
}

// WithFailurePredicate decides which errors count against the circuit.
// By default every non-nil error does.
func WithFailurePredicate[T any](fn func(error) bool) Option[T] {
	return func(b *Breaker[T]) {
		b.isFailure = fn
	}
}

// New creates a new generic Circuit Breaker.
func New[T any](maxFailures int, opts ...Option[T]) *Breaker[T] {
	cb := &Breaker[T]{
		maxFailures:      int64(maxFailures),
		resetTimeout:     DefaultResetTimeout,
		halfOpenRequests: 1,
		isFailure:        func(err error) bool { return err != nil },
	}
	for _, opt := range opts {
		opt(cb)
	}
	cb.state.Store(int32(StateClosed))
	return cb
}

func (cb *Breaker[T]) State() State {
	return State(cb.state.Load())
}

// Execute wraps a function call with the circuit breaker logic.
func (cb *Breaker[T]) Execute(ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	if !cb.canExecute() {
		var zero T
		return zero, ErrOpen
	}

	result, err := fn(ctx)
	cb.recordResult(err)

	return result, err
}

func (cb *Breaker[T]) canExecute() bool {
	switch State(cb.state.Load()) {
	case StateClosed:
		return true
	case StateOpen:
		now := time.Now().UnixNano()
		if now > cb.lastFailureTime.Load()+cb.resetTimeout.Nanoseconds() {
			if cb.transition(StateOpen, StateHalfOpen) {
				cb.successCount.Store(0)
			}
			return true
		}
		return false
	case StateHalfOpen:
		return cb.successCount.Load() < cb.halfOpenRequests
	default:
		return false
	}
}

func (cb *Breaker[T]) recordResult(err error) {
	if cb.isFailure(err) {
		newFailures := cb.failures.Add(1)
		cb.lastFailureTime.Store(time.Now().UnixNano())

		current := State(cb.state.Load())
		if current == StateHalfOpen || (current == StateClosed && newFailures >= cb.maxFailures) {
			cb.transition(current, StateOpen)
		}
		return
	}

	if State(cb.state.Load()) == StateHalfOpen {
		if cb.successCount.Add(1) >= cb.halfOpenRequests {
			if cb.transition(StateHalfOpen, StateClosed) {
				cb.failures.Store(0)
			}
		}
		return
	}
	cb.failures.Store(0)
}

func (cb *Breaker[T]) transition(from, to State) bool {
	if !cb.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
	return true
}
