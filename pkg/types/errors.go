package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrInvalidState indicates a lifecycle contract violation by the
	// caller, such as starting a worker twice.
	ErrInvalidState = errors.New("worker in invalid state")

	// ErrCancelled is returned by Future.Result for a cancelled worker.
	// It is deliberately distinct from any body failure.
	ErrCancelled = errors.New("worker cancelled")

	// ErrNotDone is returned by non-blocking result accessors while the
	// worker is still Pending or Running.
	ErrNotDone = errors.New("worker not done")
)

// InvalidTransitionError reports a completion-state transition out of
// order. It indicates an internal bug: completion state has a single
// writer (the worker's own goroutine) and each transition is valid from
// exactly one source state.
type InvalidTransitionError struct {
	// Op is the attempted transition, e.g. "markSucceeded".
	Op string

	// From is the state the completion record was in.
	From Status

	// To is the state the transition would have produced.
	To Status
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid completion transition %s: %s -> %s", e.Op, e.From, e.To)
}

// FailureError wraps an error captured from a worker body, carrying the
// worker identity and, for panics, the recovered stack.
type FailureError struct {
	// Worker is the diagnostic name of the failed worker.
	Worker string

	// Cause is the underlying error or recovered panic value.
	Cause error

	// Stack is the goroutine stack captured at panic time, empty for
	// ordinary error returns.
	Stack string
}

// Error implements the error interface
func (e *FailureError) Error() string {
	return fmt.Sprintf("worker %s failed: %v", e.Worker, e.Cause)
}

// Unwrap returns the underlying error
func (e *FailureError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *FailureError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewFailureError creates a new FailureError
func NewFailureError(worker string, cause error) *FailureError {
	return &FailureError{Worker: worker, Cause: cause}
}

// PrematureExitError reports that a daemon's body returned while the
// stop signal had not been requested. It is routed to the daemon's exit
// handler, never to the Future.
type PrematureExitError struct {
	// Worker is the diagnostic name of the daemon.
	Worker string

	// Cause is the error the body returned, or nil if it simply
	// returned without error.
	Cause error
}

// Error implements the error interface
func (e *PrematureExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("daemon %s exited prematurely: %v", e.Worker, e.Cause)
	}
	return fmt.Sprintf("daemon %s exited prematurely", e.Worker)
}

// Unwrap returns the underlying error
func (e *PrematureExitError) Unwrap() error {
	return e.Cause
}

// IsPrematureExit checks whether err is a premature-exit report.
func IsPrematureExit(err error) bool {
	var pe *PrematureExitError
	return errors.As(err, &pe)
}
