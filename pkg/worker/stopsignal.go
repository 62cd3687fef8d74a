package worker

import (
	"sync"
	"time"

	"github.com/jzx17/workerkit/pkg/types"
)

// StopSignal is a monotonic, thread-safe latch shared between a worker
// body and its controller. Once requested it never clears for the
// lifetime of the worker instance.
//
// Request may be called from any goroutine, concurrently with reads
// from the worker body.
type StopSignal struct {
	mu        sync.Mutex
	requested bool
	reason    string
	ch        chan struct{}
	clock     types.Clock
}

// NewStopSignal creates a stop signal with a real clock.
func NewStopSignal() *StopSignal {
	return NewStopSignalWithClock(types.NewRealClock())
}

// NewStopSignalWithClock creates a stop signal with the specified clock.
func NewStopSignalWithClock(clock types.Clock) *StopSignal {
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &StopSignal{
		ch:    make(chan struct{}),
		clock: clock,
	}
}

// Request sets the latch and wakes all waiters. Idempotent; only the
// first call's reason is retained. Returns true iff this call latched
// the signal.
func (s *StopSignal) Request(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requested {
		return false
	}
	s.requested = true
	s.reason = reason
	close(s.ch)
	return true
}

// IsSet reports whether a stop has been requested.
func (s *StopSignal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requested
}

// Reason returns the reason passed to the first Request call, or ""
// if the signal has not been requested.
func (s *StopSignal) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Signalled returns a channel closed once a stop has been requested.
func (s *StopSignal) Signalled() <-chan struct{} {
	return s.ch
}

// Wait blocks until the signal is set or the timeout elapses;
// timeout <= 0 waits indefinitely. Returns whether the signal is set.
func (s *StopSignal) Wait(timeout time.Duration) bool {
	if timeout <= 0 {
		<-s.ch
		return true
	}

	timer := s.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ch:
		return true
	case <-timer.C():
		return s.IsSet()
	}
}
