// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jzx17/workerkit/pkg/types"
)

// Default timings for lifecycle tests. Short enough to keep the suite
// fast, long enough to absorb scheduler jitter on loaded CI machines.
const (
	ShortDelay  = 10 * time.Millisecond
	LongTimeout = 5 * time.Second
)

// RequireDone fails the test if f does not reach a terminal state
// within LongTimeout.
func RequireDone(t *testing.T, f types.Future) {
	t.Helper()
	require.True(t, f.Wait(LongTimeout), "worker did not finish within %v", LongTimeout)
}

// RequireStatus waits for terminal state and asserts it.
func RequireStatus(t *testing.T, f types.Future, expected types.Status) {
	t.Helper()
	RequireDone(t, f)
	require.Equal(t, expected, f.Status())
}
