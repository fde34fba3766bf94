package types

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind classifies why a call to an external collaborator produced no usable value.
type FailureKind string

const (
	// FailureError means the collaborator returned an error.
	FailureError FailureKind = "error"
	// FailureTimeout means the call exceeded its deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureMalformed means the collaborator answered, but the answer did not
	// satisfy the expected schema.
	FailureMalformed FailureKind = "malformed"
	// FailurePanic means the collaborator panicked.
	FailurePanic FailureKind = "panic"
)

// Failure describes a failed collaborator call.
type Failure struct {
	Kind FailureKind
	Err  error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure classifies err: deadline errors become FailureTimeout, anything
// else FailureError.
func NewFailure(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Failure{Kind: FailureTimeout, Err: err}
	}
	return &Failure{Kind: FailureError, Err: err}
}

// Outcome is a tagged result of a collaborator call: exactly one of a value or
// a Failure. Callers branch on Ok and apply their own fail-open or
// fail-closed policy instead of handling a returned error.
type Outcome[T any] struct {
	value   T
	failure *Failure
}

// Succeeded wraps a value.
func Succeeded[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Failed wraps a failure.
func Failed[T any](f *Failure) Outcome[T] {
	if f == nil {
		f = &Failure{Kind: FailureError, Err: errors.New("unspecified failure")}
	}
	return Outcome[T]{failure: f}
}

// Ok reports whether the outcome carries a value.
func (o Outcome[T]) Ok() bool {
	return o.failure == nil
}

// Value returns the value and whether it is present.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.failure == nil
}

// Failure returns the failure, or nil for a successful outcome.
func (o Outcome[T]) Failure() *Failure {
	return o.failure
}
