package worker

import (
	"context"
	"time"

	"github.com/jzx17/workerkit/pkg/types"
)

// Task is a single-shot Worker: perform one piece of work and finish.
// It shares the stop-signal machinery with Daemon but under cancel
// vocabulary. A well-behaved task body observes ctx.Done() (or calls
// Sleep) at a bounded interval and returns ctx.Err() once cancelled,
// producing the Cancelled terminal state.
type Task struct {
	*Worker
}

// NewTask creates a task around the given body.
func NewTask(fn func(ctx context.Context) (any, error), opts ...Option) *Task {
	return NewTaskRunner(types.RunnerFunc(fn), opts...)
}

// NewTaskRunner creates a task around a Runner.
func NewTaskRunner(runner types.Runner, opts ...Option) *Task {
	return &Task{Worker: New(runner, opts...)}
}

// Cancel requests cancellation. Returns whether the request was
// accepted: false once the task is terminal or a cancel was already
// requested. Called before Start, it prevents the body from ever
// running. A timed-out wait elsewhere never retracts the request.
func (t *Task) Cancel(reason string) bool {
	if reason == "" {
		reason = "cancelled"
	}
	if t.IsDone() {
		return false
	}
	if t.stop.Request(reason) {
		t.logger.Info().Str("reason", reason).Msg("cancel requested")
		return true
	}
	return false
}

// IsCancelled reports whether the task terminated via cancellation.
func (t *Task) IsCancelled() bool {
	return t.Status() == types.StatusCancelled
}

// ExpiringTask is a Task with a deadline: an internal timer armed at
// Start cancels the task once the TTL elapses, independent of any
// external caller.
type ExpiringTask struct {
	*Task
	ttl time.Duration
}

// NewExpiringTask creates a task that self-cancels after ttl of
// execution.
func NewExpiringTask(fn func(ctx context.Context) (any, error), ttl time.Duration, opts ...Option) *ExpiringTask {
	return &ExpiringTask{
		Task: NewTask(fn, opts...),
		ttl:  ttl,
	}
}

// TTL returns the configured time-to-live.
func (t *ExpiringTask) TTL() time.Duration {
	return t.ttl
}

// Deadline returns the absolute auto-cancel time, zero before Start.
func (t *ExpiringTask) Deadline() time.Time {
	startedAt := t.StartedAt()
	if startedAt.IsZero() {
		return time.Time{}
	}
	return startedAt.Add(t.ttl)
}

// Start starts the task and arms the expiry watchdog.
func (t *ExpiringTask) Start() error {
	if err := t.Task.Start(); err != nil {
		return err
	}

	go t.watchdog()
	return nil
}

func (t *ExpiringTask) watchdog() {
	timer := t.clock.NewTimer(t.ttl)
	defer timer.Stop()

	select {
	case <-timer.C():
		t.Cancel("expired")
	case <-t.completion.Done():
	}
}
