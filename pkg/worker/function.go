package worker

import (
	"context"
)

// FunctionWorker runs an arbitrary zero-argument function as a task.
//
// It is explicitly not well-behaved: the function has no stop-check
// points, so Cancel only takes effect when called strictly before
// Start. Once running, cancellation requests are refused and the
// function runs to completion on its own. Arbitrary functions cannot be
// made interruptible without their cooperation; prefer Task with a
// context-aware body where cancellation matters.
type FunctionWorker struct {
	*Task
}

// NewFunction creates a worker around fn.
func NewFunction(fn func() (any, error), opts ...Option) *FunctionWorker {
	t := NewTask(func(ctx context.Context) (any, error) {
		return fn()
	}, opts...)
	return &FunctionWorker{Task: t}
}

// Cancel prevents the function from ever running when called before
// Start. After Start it returns false and has no effect.
func (f *FunctionWorker) Cancel(reason string) bool {
	if f.IsStarted() {
		return false
	}
	return f.Task.Cancel(reason)
}
