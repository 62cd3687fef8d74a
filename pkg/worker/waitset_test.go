package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/workerkit/internal/testutils"
	"github.com/jzx17/workerkit/pkg/types"
)

// sleeperTask finishes after d, or earlier when cancelled.
func sleeperTask(d time.Duration, result any) *Task {
	return NewTask(func(ctx context.Context) (any, error) {
		if err := Sleep(ctx, d); err != nil {
			return nil, err
		}
		return result, nil
	})
}

func startSleepers(t *testing.T, durations ...time.Duration) []types.Future {
	t.Helper()
	futures := make([]types.Future, len(durations))
	for i, d := range durations {
		task := sleeperTask(d, i)
		require.NoError(t, task.Start())
		futures[i] = task.Future()
	}
	return futures
}

func TestWaitSet_WaitAll(t *testing.T) {
	futures := startSleepers(t, 10*time.Millisecond, 30*time.Millisecond, 50*time.Millisecond)
	ws := NewWaitSet(futures...)

	assert.Equal(t, 3, ws.Len())

	start := time.Now()
	assert.True(t, ws.WaitAll(testutils.LongTimeout))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	for _, f := range futures {
		assert.True(t, f.IsDone())
	}
}

func TestWaitSet_WaitAllTimeout(t *testing.T) {
	futures := startSleepers(t, 5*time.Millisecond, 500*time.Millisecond)
	ws := NewWaitSet(futures...)

	assert.False(t, ws.WaitAll(30*time.Millisecond))

	// The slow future is untouched by the timeout and still finishes.
	assert.True(t, futures[1].Wait(testutils.LongTimeout))
}

func TestWaitSet_AsCompletedYieldsEachExactlyOnce(t *testing.T) {
	futures := startSleepers(t, 60*time.Millisecond, 20*time.Millisecond, 40*time.Millisecond)
	ws := NewWaitSet(futures...)

	var order []int
	for f := range ws.AsCompleted() {
		result, err := f.Result()
		require.NoError(t, err)
		order = append(order, result.(int))
	}

	// Each future exactly once, in completion order.
	assert.Equal(t, []int{1, 2, 0}, order)
}

func TestWaitSet_CompletedWithinWindow(t *testing.T) {
	futures := startSleepers(t, 10*time.Millisecond, 15*time.Millisecond, 500*time.Millisecond)
	ws := NewWaitSet(futures...)

	done := ws.Completed(100 * time.Millisecond)
	assert.Len(t, done, 2)
	for _, f := range done {
		assert.True(t, f.IsDone())
	}
}

func TestWaitSet_CompletedNoTimeoutWaitsForAll(t *testing.T) {
	futures := startSleepers(t, 10*time.Millisecond, 20*time.Millisecond)
	ws := NewWaitSet(futures...)

	done := ws.Completed(0)
	assert.Len(t, done, 2)
}

func TestWaitSet_Add(t *testing.T) {
	ws := NewWaitSet()
	assert.Equal(t, 0, ws.Len())

	for _, f := range startSleepers(t, 5*time.Millisecond, 5*time.Millisecond) {
		ws.Add(f)
	}
	assert.Equal(t, 2, ws.Len())
	assert.True(t, ws.WaitAll(testutils.LongTimeout))
}

func TestWaitSet_Empty(t *testing.T) {
	ws := NewWaitSet()
	assert.True(t, ws.WaitAll(10*time.Millisecond))
	assert.Empty(t, ws.Completed(10*time.Millisecond))
}
