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

func startLoopDaemon(t *testing.T, name string) *Daemon {
	t.Helper()
	d := NewDaemonLoop(func(ctx context.Context) error {
		return Sleep(ctx, time.Millisecond)
	}, WithName(name))
	require.NoError(t, d.Start())
	return d
}

func TestRegistry_StopAll(t *testing.T) {
	r := NewRegistry()
	d1 := startLoopDaemon(t, "first")
	d2 := startLoopDaemon(t, "second")
	r.Register(d1)
	r.Register(d2)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"first", "second"}, r.Names())

	assert.True(t, r.StopAll(testutils.LongTimeout))
	assert.Equal(t, types.StatusCancelled, d1.Status())
	assert.Equal(t, types.StatusCancelled, d2.Status())
}

func TestRegistry_StopAllTimeoutLatchesRequest(t *testing.T) {
	r := NewRegistry()

	release := make(chan struct{})
	stubborn := NewDaemon(types.RunnerFunc(func(ctx context.Context) (any, error) {
		<-release // ignores cancellation until released
		return nil, ctx.Err()
	}), WithName("stubborn"))
	require.NoError(t, stubborn.Start())
	r.Register(stubborn)

	assert.False(t, r.StopAll(30*time.Millisecond))

	// The request stays latched, so the daemon still winds down once it
	// starts cooperating.
	assert.True(t, stubborn.IsStopping())
	close(release)
	require.True(t, stubborn.Join(testutils.LongTimeout))
	assert.Equal(t, types.StatusCancelled, stubborn.Status())
}

func TestRegistry_StopAllEmpty(t *testing.T) {
	assert.True(t, NewRegistry().StopAll(10*time.Millisecond))
}

func TestRegistry_StopAllBeforeStart(t *testing.T) {
	r := NewRegistry()
	d := NewDaemonLoop(func(ctx context.Context) error {
		return Sleep(ctx, time.Millisecond)
	})
	r.Register(d)

	// Stop request on an unstarted daemon latches; the body never runs.
	assert.False(t, r.StopAll(10*time.Millisecond))
	assert.Equal(t, types.StatusPending, d.Status())
	require.NoError(t, d.Start())
	require.True(t, d.Join(testutils.LongTimeout))
	assert.Equal(t, types.StatusCancelled, d.Status())
}
