package worker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzx17/workerkit/pkg/types"
)

// Completion holds a worker's result-or-error pair plus start/end
// timestamps, published exactly once.
//
// Completion has a single writer: the worker's own goroutine mutates it
// at lifecycle edges via the Mark methods. Any goroutine may read it
// through the Future view. The terminal transition writes all fields and
// closes the done channel under one critical section, so no observer
// ever sees a partially written record.
type Completion struct {
	mu        sync.Mutex
	clock     types.Clock
	logger    zerolog.Logger
	status    types.Status
	result    any
	err       error
	startedAt time.Time
	endedAt   time.Time
	done      chan struct{}
	callbacks []func(types.Future)
}

// NewCompletion creates a completion record in the Pending state.
func NewCompletion(clock types.Clock, logger zerolog.Logger) *Completion {
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &Completion{
		clock:  clock,
		logger: logger,
		status: types.StatusPending,
		done:   make(chan struct{}),
	}
}

// MarkRunning transitions Pending -> Running and timestamps startedAt.
func (c *Completion) MarkRunning() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != types.StatusPending {
		return &types.InvalidTransitionError{Op: "markRunning", From: c.status, To: types.StatusRunning}
	}
	c.status = types.StatusRunning
	c.startedAt = c.clock.Now()
	return nil
}

// MarkSucceeded publishes the Succeeded terminal state with the body's
// return value.
func (c *Completion) MarkSucceeded(result any) error {
	return c.markTerminal("markSucceeded", types.StatusSucceeded, result, nil)
}

// MarkFailed publishes the Failed terminal state with the captured error.
func (c *Completion) MarkFailed(err error) error {
	return c.markTerminal("markFailed", types.StatusFailed, nil, err)
}

// MarkCancelled publishes the Cancelled terminal state.
func (c *Completion) MarkCancelled() error {
	return c.markTerminal("markCancelled", types.StatusCancelled, nil, nil)
}

// markTerminal is the single synchronized publish point: state, result,
// error and endedAt are written and the done channel closed under one
// critical section. Registered callbacks fire after publication, outside
// the lock, on the calling (worker) goroutine.
func (c *Completion) markTerminal(op string, to types.Status, result any, err error) error {
	c.mu.Lock()
	if c.status != types.StatusRunning {
		from := c.status
		c.mu.Unlock()
		return &types.InvalidTransitionError{Op: op, From: from, To: to}
	}
	c.status = to
	c.result = result
	c.err = err
	c.endedAt = c.clock.Now()
	callbacks := c.callbacks
	c.callbacks = nil
	close(c.done)
	c.mu.Unlock()

	fut := c.Future()
	for _, fn := range callbacks {
		c.invokeCallback(fn, fut)
	}
	return nil
}

func (c *Completion) invokeCallback(fn func(types.Future), fut types.Future) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("completion callback panicked")
		}
	}()
	fn(fut)
}

// Status returns the current lifecycle status.
func (c *Completion) Status() types.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Done returns a channel closed at terminal publication.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// IsDone reports whether a terminal state has been published.
func (c *Completion) IsDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until terminal or until the timeout elapses; timeout <= 0
// waits indefinitely. Returns true iff terminal was reached.
func (c *Completion) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-c.done
		return true
	}

	timer := c.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-c.done:
		return true
	case <-timer.C():
		return c.IsDone()
	}
}

// StartedAt returns the time the worker began running, zero if not
// started.
func (c *Completion) StartedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startedAt
}

// EndedAt returns the terminal publication time, zero if not terminal.
func (c *Completion) EndedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endedAt
}

// Runtime returns the elapsed execution time: endedAt-startedAt once
// terminal, time since start while running, zero before start.
func (c *Completion) Runtime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.startedAt.IsZero() {
		return 0
	}
	if c.endedAt.IsZero() {
		return c.clock.Since(c.startedAt)
	}
	return c.endedAt.Sub(c.startedAt)
}

// snapshot returns the published terminal record; valid only once done.
func (c *Completion) snapshot() (types.Status, any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.result, c.err
}

// addCallback registers fn to run after terminal publication, or
// synchronously if already terminal.
func (c *Completion) addCallback(fn func(types.Future)) {
	c.mu.Lock()
	if c.status.Terminal() {
		c.mu.Unlock()
		c.invokeCallback(fn, c.Future())
		return
	}
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

// Future returns the read-only view of this completion record.
func (c *Completion) Future() types.Future {
	return &future{c: c}
}
