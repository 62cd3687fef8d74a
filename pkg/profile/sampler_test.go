package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/workerkit/pkg/worker"
)

const sampleStack = `goroutine 42 [sleep]:
time.Sleep(0x5f5e100)
	/usr/local/go/src/runtime/time.go:195 +0x125
main.busyLoop()
	/tmp/main.go:12 +0x45
`

func TestInnermostFunction(t *testing.T) {
	tests := []struct {
		name  string
		stack string
		want  string
	}{
		{"full block", sampleStack, "time.Sleep"},
		{"no arguments", "goroutine 1 [running]:\nmain.spin\n\t/tmp/main.go:8\n", "main.spin"},
		{"empty snapshot", "", ""},
		{"header only", "goroutine 7 [running]:", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, innermostFunction(tt.stack))
		})
	}
}

func TestSampler_CollectsSamples(t *testing.T) {
	s := NewSampler(func() string { return sampleStack }, time.Millisecond)
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	report := s.Report()
	assert.Greater(t, report.Samples, 0)
	assert.Equal(t, report.Samples, report.ByFunction["time.Sleep"])
	assert.Greater(t, report.Duration, time.Duration(0))
}

func TestSampler_SkipsEmptySnapshots(t *testing.T) {
	s := NewSampler(func() string { return "" }, time.Millisecond)
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Zero(t, s.Report().Samples)
}

func TestSampler_StartStopIdempotent(t *testing.T) {
	s := NewSampler(func() string { return sampleStack }, time.Millisecond)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	// A second run keeps accumulating into the same aggregate.
	first := s.Report().Samples
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	assert.GreaterOrEqual(t, s.Report().Samples, first)
}

func TestSampler_AttachedToWorker(t *testing.T) {
	task := worker.NewTask(func(ctx context.Context) (any, error) {
		return nil, worker.Sleep(ctx, 80*time.Millisecond)
	})
	s := NewSampler(task.StackSnapshot, time.Millisecond)
	require.NoError(t, task.AttachProfiler(s))

	require.NoError(t, task.Start())
	require.True(t, task.Join(5*time.Second))

	report, ok := task.ProfileReport()
	require.True(t, ok)
	assert.Greater(t, report.Samples, 0)

	total := 0
	for _, n := range report.ByFunction {
		total += n
	}
	assert.Equal(t, report.Samples, total)
}
