package testutils

import (
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/jzx17/workerkit/pkg/types"
)

// NewMockClock creates a quartz mock clock for testing.
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper adapts quartz.Mock to the types.Clock interface.
type ClockWrapper struct {
	*quartz.Mock
}

var _ types.Clock = (*ClockWrapper)(nil)

// NewClockWrapper creates a new ClockWrapper.
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// After returns a channel that delivers the current time after d.
func (c *ClockWrapper) After(d time.Duration) <-chan time.Time {
	timer := c.Mock.NewTimer(d)
	return timer.C
}

// Sleep blocks for the given duration of mock time.
func (c *ClockWrapper) Sleep(d time.Duration) {
	timer := c.Mock.NewTimer(d)
	<-timer.C
}

// Now returns the current mock time.
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the mock time elapsed since t.
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// NewTimer creates a mock-driven Timer.
func (c *ClockWrapper) NewTimer(d time.Duration) types.Timer {
	return &timerWrapper{timer: c.Mock.NewTimer(d)}
}

// NewTicker creates a mock-driven Ticker.
func (c *ClockWrapper) NewTicker(d time.Duration) types.Ticker {
	return &tickerWrapper{ticker: c.Mock.NewTicker(d)}
}

type timerWrapper struct {
	timer *quartz.Timer
}

func (t *timerWrapper) C() <-chan time.Time {
	return t.timer.C
}

func (t *timerWrapper) Stop() bool {
	return t.timer.Stop()
}

func (t *timerWrapper) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}

type tickerWrapper struct {
	ticker *quartz.Ticker
}

func (t *tickerWrapper) C() <-chan time.Time {
	return t.ticker.C
}

func (t *tickerWrapper) Stop() {
	t.ticker.Stop()
}

func (t *tickerWrapper) Reset(d time.Duration) {
	t.ticker.Reset(d)
}
