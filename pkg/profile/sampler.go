// Package profile provides an attachable sampling profiler for workers.
//
// A Sampler periodically captures a worker's live stack snapshot and
// aggregates sample counts by innermost function. The report is a
// coarse statistical picture of where the body spends its time; it is
// best-effort and eventually consistent relative to the worker's
// terminal state.
package profile

import (
	"strings"
	"sync"
	"time"

	"github.com/jzx17/workerkit/pkg/types"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = 10 * time.Millisecond

// Sampler implements types.Profiler by polling a stack-snapshot
// function on a timer. The snapshot function is typically a worker's
// StackSnapshot method; empty snapshots (worker not running yet, or
// already finished) are skipped.
type Sampler struct {
	interval time.Duration
	snapshot func() string
	clock    types.Clock

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	startedAt time.Time
	elapsed   time.Duration
	samples   int
	byFunc    map[string]int
}

var _ types.Profiler = (*Sampler)(nil)

// NewSampler creates a sampler over the given snapshot function.
// interval <= 0 selects DefaultInterval.
func NewSampler(snapshot func() string, interval time.Duration) *Sampler {
	return NewSamplerWithClock(snapshot, interval, types.NewRealClock())
}

// NewSamplerWithClock creates a sampler with the specified clock.
func NewSamplerWithClock(snapshot func() string, interval time.Duration, clock types.Clock) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &Sampler{
		interval: interval,
		snapshot: snapshot,
		clock:    clock,
		byFunc:   make(map[string]int),
	}
}

// Start begins sampling. Idempotent while running.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.snapshot == nil {
		return
	}
	s.running = true
	s.startedAt = s.clock.Now()
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.loop(s.stopCh, s.doneCh)
}

// Stop ends sampling and waits for the sampling goroutine to exit.
// Idempotent.
func (s *Sampler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.elapsed += s.clock.Since(s.startedAt)
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done
}

// Report returns the aggregate collected so far. May be called while
// sampling is still in progress.
func (s *Sampler) Report() types.ProfileReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	byFunc := make(map[string]int, len(s.byFunc))
	for fn, n := range s.byFunc {
		byFunc[fn] = n
	}

	duration := s.elapsed
	if s.running {
		duration += s.clock.Since(s.startedAt)
	}

	return types.ProfileReport{
		Samples:    s.samples,
		Duration:   duration,
		ByFunction: byFunc,
	}
}

func (s *Sampler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			s.record(s.snapshot())
		}
	}
}

func (s *Sampler) record(stack string) {
	fn := innermostFunction(stack)
	if fn == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples++
	s.byFunc[fn]++
}

// innermostFunction extracts the function name from the first frame of
// a runtime.Stack block ("goroutine N [state]:" header, then
// alternating function/location lines).
func innermostFunction(stack string) string {
	lines := strings.Split(stack, "\n")
	if len(lines) < 2 {
		return ""
	}

	frame := strings.TrimSpace(lines[1])
	if i := strings.IndexByte(frame, '('); i > 0 {
		frame = frame[:i]
	}
	return frame
}
