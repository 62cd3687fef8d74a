package worker

import (
	"context"
	"sync"

	"github.com/jzx17/workerkit/pkg/types"
)

// EventLoop is a Daemon specialization running a fixed fetch/handle
// loop over a caller-supplied EventSource. The loop re-checks the stop
// signal between fetches, which is why NextEvent should return (a nil
// event is fine) within a bounded interval.
type EventLoop struct {
	*Daemon

	src types.EventSource

	mu              sync.Mutex
	eventErrHandler func(event any, err error) error
}

// NewEventLoop creates an event-loop daemon over src.
func NewEventLoop(src types.EventSource, opts ...Option) *EventLoop {
	l := &EventLoop{src: src}
	l.Daemon = NewDaemonLoop(l.iteration, opts...)
	return l
}

// SetEventErrorHandler installs the handler for errors returned by
// HandleEvent. Call before Start. The default logs the event and error
// and keeps the loop running. A handler returning a non-nil error
// forwards it to the daemon's iteration error handler.
func (l *EventLoop) SetEventErrorHandler(fn func(event any, err error) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eventErrHandler = fn
}

func (l *EventLoop) iteration(ctx context.Context) error {
	event, err := l.src.NextEvent(ctx)
	if err != nil {
		// Fetch errors go to the daemon's iteration error handler.
		return err
	}
	if event == nil {
		// Poll-yield: control returns to the loop to re-check the stop
		// signal.
		return nil
	}

	if err := l.src.HandleEvent(ctx, event); err != nil {
		if isCancellation(err) {
			return err
		}
		return l.handleEventError(event, err)
	}
	return nil
}

func (l *EventLoop) handleEventError(event any, err error) error {
	l.mu.Lock()
	h := l.eventErrHandler
	l.mu.Unlock()

	if h == nil {
		logger := l.Logger()
		logger.Error().Err(err).Interface("event", event).Msg("error handling event")
		return nil
	}
	return h(event, err)
}
