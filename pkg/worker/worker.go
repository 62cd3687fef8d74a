package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzx17/workerkit/pkg/types"
)

// workerIDCounter is the global worker name counter
var workerIDCounter int64

// defaultLogger writes to stderr at warn level, so error-class events
// (premature exits, body failures) are never silently discarded even
// when the caller configures nothing.
var defaultLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger().Level(zerolog.WarnLevel)

// Option configures a Worker at construction time.
type Option = types.Option[*Worker]

// WithName sets the diagnostic label of the worker.
func WithName(name string) Option {
	return func(w *Worker) {
		w.name = name
	}
}

// WithClock sets the clock used for timestamps, timeouts and timers.
func WithClock(clock types.Clock) Option {
	return func(w *Worker) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithLogger sets the logger. The worker name is attached as a field.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithProfiler attaches a profiler; the worker brackets its body with
// Start/Stop and exposes the report after completion.
func WithProfiler(p types.Profiler) Option {
	return func(w *Worker) {
		w.profiler = p
	}
}

// WithMetrics sets the lifecycle metrics sink.
func WithMetrics(m types.Metrics) Option {
	return func(w *Worker) {
		if m != nil {
			w.metrics = m
		}
	}
}

// Worker is the base execution unit: one goroutine bound to one
// StopSignal and one Completion record. A Worker is used exactly once;
// re-starting a started Worker fails with ErrInvalidState.
//
// Worker provides no forced termination. Cancellation is cooperative:
// the body's context is cancelled when the stop signal is requested,
// and a well-behaved body observes it at a bounded interval.
type Worker struct {
	name     string
	clock    types.Clock
	logger   zerolog.Logger
	runner   types.Runner
	stop     *StopSignal
	profiler types.Profiler
	metrics  types.Metrics

	completion *Completion

	started int32 // atomic; 0 = pending, 1 = started
	gid     int64 // atomic; body goroutine id while running

	// onExit, when set, is invoked once after terminal publication with
	// the body error and whether the stop signal had been requested.
	// Used by Daemon for premature-exit detection.
	onExit func(err error, stopped bool)
}

// New creates a Worker around the given body.
func New(runner types.Runner, opts ...Option) *Worker {
	w := &Worker{
		name:    fmt.Sprintf("worker-%d", atomic.AddInt64(&workerIDCounter, 1)),
		clock:   types.NewRealClock(),
		logger:  defaultLogger,
		runner:  runner,
		metrics: types.NilMetrics{},
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.With().Str("worker", w.name).Logger()
	w.stop = NewStopSignalWithClock(w.clock)
	w.completion = NewCompletion(w.clock, w.logger)
	return w
}

// NewFunc creates a Worker around a plain context-aware function.
func NewFunc(fn func(ctx context.Context) (any, error), opts ...Option) *Worker {
	return New(types.RunnerFunc(fn), opts...)
}

// Name returns the diagnostic label.
func (w *Worker) Name() string {
	return w.name
}

// Clock returns the worker clock.
func (w *Worker) Clock() types.Clock {
	return w.clock
}

// Logger returns the worker logger.
func (w *Worker) Logger() zerolog.Logger {
	return w.logger
}

// Start spawns the execution goroutine and transitions the worker to
// Running. It fails with ErrInvalidState if the worker has already been
// started or has no body.
func (w *Worker) Start() error {
	if w.runner == nil {
		return fmt.Errorf("%w: worker %s has no runner", types.ErrInvalidState, w.name)
	}
	if !atomic.CompareAndSwapInt32(&w.started, 0, 1) {
		return fmt.Errorf("%w: worker %s already started", types.ErrInvalidState, w.name)
	}
	if err := w.completion.MarkRunning(); err != nil {
		return err
	}

	go w.run()
	return nil
}

// run is the goroutine body wrapper. It is the single writer of the
// completion record.
func (w *Worker) run() {
	atomic.StoreInt64(&w.gid, currentGoroutineID())
	defer atomic.StoreInt64(&w.gid, 0)

	ctx, cancel := context.WithCancel(types.WithClock(context.Background(), w.clock))
	defer cancel()

	// Bridge the stop signal into the body context. The bridging
	// goroutine exits when the worker completes.
	go func() {
		select {
		case <-w.stop.Signalled():
			cancel()
		case <-w.completion.Done():
		}
	}()

	w.metrics.WorkerStarted(w.name)
	if w.profiler != nil {
		w.profiler.Start()
	}

	var (
		result any
		err    error
		ran    bool
	)
	if w.stop.IsSet() {
		w.logger.Info().Msg("not starting, stop already requested")
	} else {
		w.logger.Info().Msg("starting")
		ran = true
		result, err = w.invoke(ctx)
	}

	if w.profiler != nil {
		w.profiler.Stop()
	}

	stopped := w.stop.IsSet()
	w.publish(ran, result, err, stopped)

	if w.onExit != nil {
		w.onExit(err, stopped)
	}

	status := w.completion.Status()
	elapsed := w.completion.Runtime()
	w.metrics.WorkerCompleted(w.name, status, elapsed)
	w.logger.Info().Stringer("status", status).Dur("runtime", elapsed).Msg("done")
}

// invoke executes the body with panic recovery.
func (w *Worker) invoke(ctx context.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [8192]byte
			n := runtime.Stack(buf[:], false)

			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = &types.FailureError{Worker: w.name, Cause: cause, Stack: string(buf[:n])}
		}
	}()

	return w.runner.Run(ctx)
}

// publish maps the body outcome onto the terminal state:
//
//   - body never ran (stop requested before start) -> Cancelled
//   - body returned context.Canceled with the stop latched -> Cancelled
//   - body returned any other error -> Failed
//   - body returned normally -> Succeeded, even if a stop had been
//     requested meanwhile: the work finished.
func (w *Worker) publish(ran bool, result any, err error, stopped bool) {
	var terr error
	switch {
	case !ran:
		terr = w.completion.MarkCancelled()
	case err == nil:
		terr = w.completion.MarkSucceeded(result)
	case stopped && isCancellation(err):
		terr = w.completion.MarkCancelled()
	default:
		w.logger.Error().Err(err).Msg("worker failed")
		terr = w.completion.MarkFailed(err)
	}
	if terr != nil {
		// Single-writer discipline makes this unreachable; indicates an
		// internal bug.
		w.logger.Error().Err(terr).Msg("completion transition rejected")
	}
}

// RequestStop latches the stop signal, cancelling the body context.
// Safe to call from any goroutine, any number of times, before or after
// Start. The request is never retracted.
func (w *Worker) RequestStop(reason string) {
	if w.stop.Request(reason) {
		w.logger.Info().Str("reason", reason).Msg("stop requested")
	}
}

// IsStarted reports whether Start has been called.
func (w *Worker) IsStarted() bool {
	return atomic.LoadInt32(&w.started) == 1
}

// IsStopping reports whether a stop has been requested but the worker
// has not yet reached a terminal state.
func (w *Worker) IsStopping() bool {
	return w.stop.IsSet() && !w.completion.IsDone()
}

// IsDone reports whether the worker reached a terminal state.
func (w *Worker) IsDone() bool {
	return w.completion.IsDone()
}

// Status returns the current lifecycle status.
func (w *Worker) Status() types.Status {
	return w.completion.Status()
}

// Join blocks until the worker is terminal or the timeout elapses;
// timeout <= 0 waits indefinitely. Returns true iff terminal was
// reached. A timed-out Join never retracts a pending stop request.
func (w *Worker) Join(timeout time.Duration) bool {
	return w.completion.Wait(timeout)
}

// Wait blocks until the worker reaches a terminal state.
func (w *Worker) Wait() {
	w.completion.Wait(0)
}

// Future returns the read-only completion view for cross-goroutine
// consumption.
func (w *Worker) Future() types.Future {
	return w.completion.Future()
}

// StartedAt returns the time the body began running, zero before Start.
func (w *Worker) StartedAt() time.Time {
	return w.completion.StartedAt()
}

// EndedAt returns the terminal publication time, zero until then.
func (w *Worker) EndedAt() time.Time {
	return w.completion.EndedAt()
}

// Runtime returns the elapsed execution time so far, or the total once
// terminal.
func (w *Worker) Runtime() time.Duration {
	return w.completion.Runtime()
}

// StackSnapshot returns a point-in-time capture of the live body
// goroutine's call stack, or "" while the worker is not running.
// Best-effort: the snapshot may be slightly stale.
func (w *Worker) StackSnapshot() string {
	return stackByGoroutineID(atomic.LoadInt64(&w.gid))
}

// AttachProfiler attaches a profiler before Start. It fails with
// ErrInvalidState once the worker has started, since the body is
// bracketed with Start/Stop at spawn time.
func (w *Worker) AttachProfiler(p types.Profiler) error {
	if w.IsStarted() {
		return fmt.Errorf("%w: worker %s already started", types.ErrInvalidState, w.name)
	}
	w.profiler = p
	return nil
}

// ProfileReport returns the attached profiler's report, if any.
func (w *Worker) ProfileReport() (types.ProfileReport, bool) {
	if w.profiler == nil {
		return types.ProfileReport{}, false
	}
	return w.profiler.Report(), true
}

// isCancellation reports whether err represents the body observing its
// cancelled context.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
