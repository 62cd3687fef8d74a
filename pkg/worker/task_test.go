package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/workerkit/internal/testutils"
	"github.com/jzx17/workerkit/pkg/types"
)

// pollingTask loops until cancelled, checking the signal every poll
// interval.
func pollingTask(poll time.Duration) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		for {
			if err := Sleep(ctx, poll); err != nil {
				return nil, err
			}
		}
	}
}

func TestTask_CancelDuringRun(t *testing.T) {
	const poll = 10 * time.Millisecond

	task := NewTask(pollingTask(poll))
	require.NoError(t, task.Start())
	time.Sleep(2 * poll)

	start := time.Now()
	assert.True(t, task.Cancel("testing"))
	assert.True(t, task.Join(testutils.LongTimeout))

	assert.Less(t, time.Since(start), 10*poll)
	assert.True(t, task.IsCancelled())
	assert.Equal(t, types.StatusCancelled, task.Status())

	_, err := task.Future().Result()
	assert.ErrorIs(t, err, types.ErrCancelled)
}

func TestTask_CancelBeforeStart(t *testing.T) {
	var ran int64
	task := NewTask(func(ctx context.Context) (any, error) {
		atomic.AddInt64(&ran, 1)
		return nil, nil
	})

	assert.True(t, task.Cancel("testing"))
	require.NoError(t, task.Start())
	testutils.RequireStatus(t, task.Future(), types.StatusCancelled)

	assert.True(t, task.IsCancelled())
	assert.Equal(t, int64(0), atomic.LoadInt64(&ran))
}

func TestTask_CancelReturnValues(t *testing.T) {
	task := NewTask(pollingTask(5 * time.Millisecond))

	assert.True(t, task.Cancel(""))
	// Second request is not accepted.
	assert.False(t, task.Cancel("again"))

	require.NoError(t, task.Start())
	testutils.RequireDone(t, task.Future())

	// Terminal task refuses cancellation.
	assert.False(t, task.Cancel("late"))
}

func TestTask_CompletesNormally(t *testing.T) {
	task := NewTask(func(ctx context.Context) (any, error) {
		return "done", nil
	})

	require.NoError(t, task.Start())
	testutils.RequireStatus(t, task.Future(), types.StatusSucceeded)
	assert.False(t, task.IsCancelled())

	result, err := task.Future().Result()
	require.NoError(t, err)
	assert.Equal(t, "done", result)
}

func TestExpiringTask_AutoCancelsAtDeadline(t *testing.T) {
	const ttl = 100 * time.Millisecond

	task := NewExpiringTask(pollingTask(10*time.Millisecond), ttl)
	assert.Equal(t, ttl, task.TTL())
	assert.True(t, task.Deadline().IsZero())

	start := time.Now()
	require.NoError(t, task.Start())

	// No external Cancel call: the watchdog fires on its own.
	assert.True(t, task.Join(testutils.LongTimeout))
	elapsed := time.Since(start)

	assert.True(t, task.IsCancelled())
	assert.GreaterOrEqual(t, elapsed, ttl)
	assert.Less(t, elapsed, 3*ttl)
	assert.Equal(t, task.StartedAt().Add(ttl), task.Deadline())
}

func TestExpiringTask_FastBodyBeatsDeadline(t *testing.T) {
	task := NewExpiringTask(func(ctx context.Context) (any, error) {
		return 7, nil
	}, time.Second)

	require.NoError(t, task.Start())
	testutils.RequireStatus(t, task.Future(), types.StatusSucceeded)

	result, err := task.Future().Result()
	require.NoError(t, err)
	assert.Equal(t, 7, result)
}

func TestExpiringTask_ExternalCancelStillWorks(t *testing.T) {
	task := NewExpiringTask(pollingTask(5*time.Millisecond), time.Minute)

	require.NoError(t, task.Start())
	time.Sleep(15 * time.Millisecond)

	assert.True(t, task.Cancel("manual"))
	assert.True(t, task.Join(testutils.LongTimeout))
	assert.True(t, task.IsCancelled())
}

func TestFunctionWorker_RunsToCompletion(t *testing.T) {
	fw := NewFunction(func() (any, error) {
		return 42, nil
	})

	require.NoError(t, fw.Start())
	testutils.RequireStatus(t, fw.Future(), types.StatusSucceeded)

	result, err := fw.Future().Result()
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestFunctionWorker_CancelAfterStartRefused(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fw := NewFunction(func() (any, error) {
		close(started)
		<-release
		return "finished", nil
	})

	require.NoError(t, fw.Start())
	<-started

	// Not well-behaved: cancellation after start has no effect.
	assert.False(t, fw.Cancel("too late"))

	close(release)
	testutils.RequireStatus(t, fw.Future(), types.StatusSucceeded)

	result, err := fw.Future().Result()
	require.NoError(t, err)
	assert.Equal(t, "finished", result)
}

func TestFunctionWorker_CancelBeforeStartPreventsRun(t *testing.T) {
	var ran int64
	fw := NewFunction(func() (any, error) {
		atomic.AddInt64(&ran, 1)
		return nil, nil
	})

	assert.True(t, fw.Cancel("never mind"))
	require.NoError(t, fw.Start())
	testutils.RequireStatus(t, fw.Future(), types.StatusCancelled)

	assert.Equal(t, int64(0), atomic.LoadInt64(&ran))
}
