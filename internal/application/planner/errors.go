package planner

import (
	"errors"
	"fmt"
)

// Failure taxonomy for the generation pipeline. All four kinds are
// recovered locally for full-plan generation; for single-meal
// regeneration they are collected and reported to the caller.

var (
	// ErrServiceUnavailable covers network, auth and quota failures from
	// the generation backend, including empty completions.
	ErrServiceUnavailable = errors.New("generation service unavailable")

	// ErrTimeout is returned when the bounded time budget for a model
	// invocation elapses before a response arrives.
	ErrTimeout = errors.New("generation timed out")

	// ErrMalformedResponse is returned when no recoverable JSON document
	// can be extracted from the model output.
	ErrMalformedResponse = errors.New("no recoverable JSON in model response")
)

// ValidationError reports a parsed payload that fails the plan or meal
// invariants. Reason carries enough detail to log which invariant failed.
type ValidationError struct {
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plan validation failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("plan validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func validationErr(reason string, cause error) *ValidationError {
	return &ValidationError{Reason: reason, Cause: cause}
}

func validationErrf(cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...), Cause: cause}
}
