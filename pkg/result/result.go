// Package result carries the outcome of an operation across a process or
// context boundary, where Go's (value, error) pair cannot travel as is.
package result

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Coded is implemented by errors that expose a stable code and a message
// meant for end users.
type Coded interface {
	error
	ErrorCode() string
	UserMessage() string
}

// Result is either a success holding a value or a failure holding an error.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps an error. A nil error is replaced so that a failed Result always
// carries a reason.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Result[T]{err: err}
}

// Of builds a Result from a conventional (value, error) pair.
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

func (r Result[T]) Success() bool {
	return r.err == nil
}

func (r Result[T]) Err() error {
	return r.err
}

// Unwrap returns the pair form again.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// ErrorBody is the serialized form of a failure.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	UserMsg string `json:"userMessage,omitempty"`
}

func (e ErrorBody) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e ErrorBody) ErrorCode() string   { return e.Code }
func (e ErrorBody) UserMessage() string { return e.UserMsg }

type envelope[T any] struct {
	Success bool       `json:"success"`
	Data    *T         `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.err == nil {
		v := r.value
		return json.Marshal(envelope[T]{Success: true, Data: &v})
	}

	body := ErrorBody{Code: "UNKNOWN_ERROR", Message: r.err.Error()}
	var coded Coded
	if errors.As(r.err, &coded) {
		body.Code = coded.ErrorCode()
		body.UserMsg = coded.UserMessage()
	}
	return json.Marshal(envelope[T]{Error: &body})
}

// UnmarshalJSON restores a Result. Failures come back as ErrorBody values.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Success {
		if env.Data != nil {
			r.value = *env.Data
		}
		r.err = nil
		return nil
	}
	if env.Error == nil {
		return errors.New("failed result without error body")
	}
	var zero T
	r.value = zero
	r.err = *env.Error
	return nil
}
