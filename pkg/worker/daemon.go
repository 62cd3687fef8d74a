package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/workerkit/pkg/types"
)

// Daemon is a Worker meant to run for as long as the process: its body
// should only exit in response to a stop request. A body that returns -
// by value or by error - without the stop signal having been requested
// is a premature exit, routed to the exit handler rather than silently
// completing.
type Daemon struct {
	*Worker

	mu          sync.Mutex
	exitHandler types.ExitHandler
	iterHandler types.ErrorHandler

	premature int32 // atomic
}

// NewDaemon creates a daemon around a full body. The body is expected
// to loop, observing ctx.Done() at a bounded interval, and return
// ctx.Err() once stopping.
func NewDaemon(runner types.Runner, opts ...Option) *Daemon {
	d := &Daemon{}
	d.Worker = New(runner, opts...)
	d.Worker.onExit = d.handleExit
	return d
}

// NewDaemonLoop creates a daemon whose body is a framework-provided
// loop calling iter until a stop is requested. An error returned by
// iter goes to the iteration error handler; by default it is logged and
// the loop continues. A handler returning a non-nil error aborts the
// daemon with it.
func NewDaemonLoop(iter func(ctx context.Context) error, opts ...Option) *Daemon {
	d := &Daemon{}
	d.Worker = New(types.RunnerFunc(func(ctx context.Context) (any, error) {
		return nil, d.runLoop(ctx, iter)
	}), opts...)
	d.Worker.onExit = d.handleExit
	return d
}

// SetExitHandler installs the premature-exit collaborator. Call before
// Start. The default handler logs at error level.
func (d *Daemon) SetExitHandler(fn types.ExitHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exitHandler = fn
}

// SetIterationErrorHandler installs the handler for errors returned by
// the loop iteration (NewDaemonLoop only). Call before Start.
func (d *Daemon) SetIterationErrorHandler(fn types.ErrorHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.iterHandler = fn
}

// Stop requests a stop and waits for the daemon to terminate; timeout
// <= 0 waits indefinitely. Returns whether the daemon actually stopped
// within the timeout. The stop request stays latched either way.
func (d *Daemon) Stop(timeout time.Duration) bool {
	d.RequestStop("stop")
	return d.Join(timeout)
}

// StoppedPrematurely reports whether the body exited without a stop
// having been requested.
func (d *Daemon) StoppedPrematurely() bool {
	return atomic.LoadInt32(&d.premature) == 1
}

func (d *Daemon) runLoop(ctx context.Context, iter func(ctx context.Context) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := iter(ctx); err != nil {
			if isCancellation(err) {
				return err
			}
			if herr := d.handleIterationError(err); herr != nil {
				return herr
			}
		}
	}
}

func (d *Daemon) handleIterationError(err error) error {
	d.mu.Lock()
	h := d.iterHandler
	d.mu.Unlock()

	if h == nil {
		logger := d.Logger()
		logger.Error().Err(err).Msg("iteration error")
		return nil
	}
	return h(err)
}

// handleExit runs on the worker goroutine, once, after terminal
// publication.
func (d *Daemon) handleExit(err error, stopped bool) {
	if stopped {
		return
	}
	atomic.StoreInt32(&d.premature, 1)

	pe := &types.PrematureExitError{Worker: d.Name(), Cause: err}
	d.metrics.PrematureExit(d.Name())

	d.mu.Lock()
	h := d.exitHandler
	d.mu.Unlock()

	if h == nil {
		logger := d.Logger()
		logger.Error().Err(pe.Cause).Msg("exiting prematurely")
		return
	}
	h(pe)
}
