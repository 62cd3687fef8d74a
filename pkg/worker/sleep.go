package worker

import (
	"context"
	"time"

	"github.com/jzx17/workerkit/pkg/types"
)

// Sleep blocks for d or until ctx is cancelled, whichever comes first,
// using the clock carried by the worker context. It returns ctx.Err()
// when cancellation was observed, nil otherwise.
//
// This is the natural stop-check point for a well-behaved body: calling
// Sleep (or selecting on ctx.Done()) at a bounded interval is what makes
// cooperative cancellation responsive. The interval is the caller's
// trade-off between responsiveness and overhead.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := types.ClockFromContext(ctx).NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
