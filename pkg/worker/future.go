package worker

import (
	"time"

	"github.com/jzx17/workerkit/pkg/types"
)

// future is the read-only adapter over a Completion. It carries no state
// of its own, so any number of views may exist concurrently.
type future struct {
	c *Completion
}

var _ types.Future = (*future)(nil)

func (f *future) Done() <-chan struct{} {
	return f.c.Done()
}

func (f *future) IsDone() bool {
	return f.c.IsDone()
}

func (f *future) Status() types.Status {
	return f.c.Status()
}

func (f *future) Wait(timeout time.Duration) bool {
	return f.c.Wait(timeout)
}

func (f *future) Result() (any, error) {
	f.c.Wait(0)
	return f.resultLocked()
}

func (f *future) ResultNow() (any, error) {
	if !f.c.IsDone() {
		return nil, types.ErrNotDone
	}
	return f.resultLocked()
}

func (f *future) resultLocked() (any, error) {
	status, result, err := f.c.snapshot()
	switch status {
	case types.StatusSucceeded:
		return result, nil
	case types.StatusFailed:
		return nil, err
	case types.StatusCancelled:
		return nil, types.ErrCancelled
	default:
		return nil, types.ErrNotDone
	}
}

func (f *future) Err() error {
	_, err := f.Result()
	return err
}

func (f *future) OnDone(fn func(types.Future)) {
	f.c.addCallback(fn)
}

func (f *future) OnSuccess(fn func(result any)) {
	f.c.addCallback(func(fut types.Future) {
		if result, err := fut.ResultNow(); err == nil {
			fn(result)
		}
	})
}

func (f *future) OnFailure(fn func(err error)) {
	f.c.addCallback(func(fut types.Future) {
		if _, err := fut.ResultNow(); err != nil {
			fn(err)
		}
	})
}
