// Package types defines the core vocabulary of the workerkit library:
// the Clock abstraction, worker status, shared interfaces and the error
// taxonomy.
package types

import (
	"context"
	"time"
)

// Clock abstracts time operations so that timing-sensitive behavior
// (expiring tasks, stop timeouts, profiler sampling) can be driven by a
// mock clock in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that delivers the current time after d.
	After(d time.Duration) <-chan time.Time
	// Sleep blocks for the given duration.
	Sleep(d time.Duration)
	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
	// NewTimer creates a new Timer.
	NewTimer(d time.Duration) Timer
	// NewTicker creates a new Ticker.
	NewTicker(d time.Duration) Ticker
}

// Timer provides timer operations.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// Ticker provides ticker operations.
type Ticker interface {
	C() <-chan time.Time
	Stop()
	Reset(d time.Duration)
}

// RealClock implements Clock using the time package.
type RealClock struct{}

// NewRealClock creates a clock backed by real time.
func NewRealClock() Clock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

func (c *RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

func (c *RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}

func (t *realTimer) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}

type realTicker struct {
	ticker *time.Ticker
}

func (t *realTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *realTicker) Stop() {
	t.ticker.Stop()
}

func (t *realTicker) Reset(d time.Duration) {
	t.ticker.Reset(d)
}

type clockKey struct{}

// WithClock returns a context carrying the given clock. Worker bodies
// receive a context prepared this way, so cooperative helpers such as
// worker.Sleep stay mockable.
func WithClock(ctx context.Context, clock Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, clock)
}

// ClockFromContext retrieves the clock from ctx, or a RealClock if none
// was attached.
func ClockFromContext(ctx context.Context) Clock {
	if clock, ok := ctx.Value(clockKey{}).(Clock); ok {
		return clock
	}
	return NewRealClock()
}
