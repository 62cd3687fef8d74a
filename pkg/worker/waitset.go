package worker

import (
	"sync"
	"time"

	"github.com/jzx17/workerkit/pkg/types"
)

// WaitSet waits on a collection of futures: all at once, those done
// within a window, or one by one as they complete.
type WaitSet struct {
	mu      sync.Mutex
	clock   types.Clock
	futures []types.Future
}

// NewWaitSet creates a wait-set over the given futures.
func NewWaitSet(futures ...types.Future) *WaitSet {
	return NewWaitSetWithClock(types.NewRealClock(), futures...)
}

// NewWaitSetWithClock creates a wait-set with the specified clock.
func NewWaitSetWithClock(clock types.Clock, futures ...types.Future) *WaitSet {
	if clock == nil {
		clock = types.NewRealClock()
	}
	return &WaitSet{
		clock:   clock,
		futures: append([]types.Future(nil), futures...),
	}
}

// Add adds a future to the set. Futures added while a wait is in
// progress are not observed by that wait.
func (ws *WaitSet) Add(f types.Future) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.futures = append(ws.futures, f)
}

// Len returns the number of futures in the set.
func (ws *WaitSet) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.futures)
}

func (ws *WaitSet) snapshot() []types.Future {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]types.Future(nil), ws.futures...)
}

// WaitAll blocks until every future in the set is terminal, or the
// timeout elapses; timeout <= 0 waits indefinitely. Returns true iff
// all completed.
func (ws *WaitSet) WaitAll(timeout time.Duration) bool {
	var limit <-chan time.Time
	if timeout > 0 {
		timer := ws.clock.NewTimer(timeout)
		defer timer.Stop()
		limit = timer.C()
	}

	for _, f := range ws.snapshot() {
		select {
		case <-f.Done():
		case <-limit:
			return false
		}
	}
	return true
}

// Completed blocks up to timeout (timeout <= 0: until all are done) and
// returns the futures that reached a terminal state within the window,
// in completion order.
func (ws *WaitSet) Completed(timeout time.Duration) []types.Future {
	var limit <-chan time.Time
	if timeout > 0 {
		timer := ws.clock.NewTimer(timeout)
		defer timer.Stop()
		limit = timer.C()
	}

	done := make([]types.Future, 0, ws.Len())
	ch := ws.AsCompleted()
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return done
			}
			done = append(done, f)
		case <-limit:
			return done
		}
	}
}

// AsCompleted returns a channel yielding each future exactly once, in
// completion order (ties broken arbitrarily). The channel is closed
// once every future in the set has been delivered. The channel is
// buffered to the size of the set, so an abandoned receiver leaks no
// goroutines beyond the futures' own lifetimes.
func (ws *WaitSet) AsCompleted() <-chan types.Future {
	futures := ws.snapshot()
	out := make(chan types.Future, len(futures))

	var wg sync.WaitGroup
	for _, f := range futures {
		wg.Add(1)
		go func(f types.Future) {
			defer wg.Done()
			<-f.Done()
			out <- f
		}(f)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}
