package types

import (
	"context"
	"time"
)

// Status describes where a worker is in its lifecycle.
//
// Transitions are strictly Pending -> Running -> {Succeeded, Failed,
// Cancelled}; the three terminal states are absorbing and write-once.
type Status int32

const (
	// StatusPending means the worker has been constructed but not started.
	StatusPending Status = iota
	// StatusRunning means the worker goroutine is executing its body.
	StatusRunning
	// StatusSucceeded means the body returned normally.
	StatusSucceeded
	// StatusFailed means the body returned an error or panicked.
	StatusFailed
	// StatusCancelled means the worker honored a stop/cancel request.
	StatusCancelled
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is one of the absorbing states.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Runner is the body of a worker. Run receives a context that is
// cancelled when the worker's stop signal is requested; a well-behaved
// body selects on ctx.Done() (or calls worker.Sleep) at a bounded
// interval and returns ctx.Err() once cancellation is observed.
type Runner interface {
	Run(ctx context.Context) (any, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context) (any, error)

// Run executes the function.
func (f RunnerFunc) Run(ctx context.Context) (any, error) {
	return f(ctx)
}

// EventSource is the capability pair an event-loop worker is built
// around. Concrete sources supply both methods; the loop skeleton is
// fixed by the library.
type EventSource interface {
	// NextEvent blocks until the next event is available and returns it.
	// Returning a nil event yields control back to the loop so it can
	// re-check the stop signal; implementations should do so within a
	// bounded interval rather than blocking indefinitely, or
	// responsiveness to Stop degrades.
	NextEvent(ctx context.Context) (any, error)

	// HandleEvent processes a non-nil event returned by NextEvent.
	HandleEvent(ctx context.Context, event any) error
}

// Future is a read-only, thread-safe view over a worker's completion
// state. All methods may be called from any goroutine; terminal-state
// publication happens-before any Wait/Result return and before any
// registered callback fires.
type Future interface {
	// Done returns a channel closed when the worker reaches a terminal
	// state. Suitable for select.
	Done() <-chan struct{}

	// IsDone reports whether a terminal state has been published.
	IsDone() bool

	// Status returns the current lifecycle status.
	Status() Status

	// Wait blocks until the worker is terminal or the timeout elapses;
	// timeout <= 0 waits indefinitely. Returns true iff terminal was
	// reached.
	Wait(timeout time.Duration) bool

	// Result blocks until terminal and returns the body's value. A
	// Failed worker yields the captured error; a Cancelled worker yields
	// ErrCancelled.
	Result() (any, error)

	// ResultNow is the non-blocking variant of Result; it returns
	// ErrNotDone while the worker is still Pending or Running.
	ResultNow() (any, error)

	// Err blocks until terminal and returns the captured error, nil on
	// success, or ErrCancelled.
	Err() error

	// OnDone registers fn to be invoked exactly once after terminal
	// publication, on the worker's goroutine - or synchronously if the
	// future is already done at registration time.
	OnDone(fn func(Future))

	// OnSuccess registers fn to be invoked only if the worker succeeds.
	OnSuccess(fn func(result any))

	// OnFailure registers fn to be invoked only if the worker fails or
	// is cancelled (with ErrCancelled).
	OnFailure(fn func(err error))
}

// Profiler is an opaque recorder that can be attached to a worker. The
// worker brackets its body with Start/Stop; Report may be read after
// completion. Report data is best-effort relative to terminal-state
// publication.
type Profiler interface {
	Start()
	Stop()
	Report() ProfileReport
}

// ProfileReport is the aggregate produced by a Profiler.
type ProfileReport struct {
	// Samples is the total number of samples recorded.
	Samples int

	// Duration is the total time the profiler was running.
	Duration time.Duration

	// ByFunction counts samples by innermost function name.
	ByFunction map[string]int
}

// Metrics receives worker lifecycle notifications. Implementations must
// be safe for concurrent use. Defaults to NilMetrics.
type Metrics interface {
	// WorkerStarted is called when a worker's body begins executing.
	WorkerStarted(name string)

	// WorkerCompleted is called after terminal-state publication.
	WorkerCompleted(name string, status Status, runtime time.Duration)

	// PrematureExit is called when a daemon's body returns without its
	// stop signal having been requested.
	PrematureExit(name string)
}

// NilMetrics is a no-op Metrics implementation.
type NilMetrics struct{}

func (NilMetrics) WorkerStarted(string)                          {}
func (NilMetrics) WorkerCompleted(string, Status, time.Duration) {}
func (NilMetrics) PrematureExit(string)                          {}

// ErrorHandler handles a recoverable error from a daemon iteration.
// Returning a non-nil error aborts the daemon with that error.
type ErrorHandler func(err error) error

// ExitHandler is the collaborator invoked when a daemon exits
// prematurely. It receives a *PrematureExitError carrying the worker
// identity and the captured error, if any.
type ExitHandler func(err error)

// Option defines a configuration option function.
type Option[T any] func(T)
