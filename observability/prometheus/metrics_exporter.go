// Package prometheus adapts workerkit lifecycle metrics to Prometheus
// collectors.
package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jzx17/workerkit/pkg/types"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter implements types.Metrics over Prometheus collectors.
type MetricsExporter struct {
	workersRunning      *prom.GaugeVec
	workerCompleted     *prom.CounterVec
	workerRuntime       *prom.HistogramVec
	prematureExitsTotal *prom.CounterVec
}

var _ types.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for
// worker lifecycle events.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "workerkit"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	runningVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "workers_running",
		Help:      "Number of workers currently executing.",
	}, []string{"worker"})
	completedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "worker_completed_total",
		Help:      "Total number of worker completions by terminal status.",
	}, []string{"worker", "status"})
	runtimeVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "worker_runtime_seconds",
		Help:      "Worker execution runtime in seconds.",
		Buckets:   buckets,
	}, []string{"worker", "status"})
	prematureVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "daemon_premature_exit_total",
		Help:      "Total number of daemon premature exits.",
	}, []string{"worker"})

	var err error
	if runningVec, err = registerCollector(reg, runningVec); err != nil {
		return nil, err
	}
	if completedVec, err = registerCollector(reg, completedVec); err != nil {
		return nil, err
	}
	if runtimeVec, err = registerCollector(reg, runtimeVec); err != nil {
		return nil, err
	}
	if prematureVec, err = registerCollector(reg, prematureVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		workersRunning:      runningVec,
		workerCompleted:     completedVec,
		workerRuntime:       runtimeVec,
		prematureExitsTotal: prematureVec,
	}, nil
}

// WorkerStarted records a worker beginning execution.
func (m *MetricsExporter) WorkerStarted(name string) {
	if m == nil {
		return
	}
	m.workersRunning.WithLabelValues(normalizeLabel(name)).Inc()
}

// WorkerCompleted records terminal-state publication.
func (m *MetricsExporter) WorkerCompleted(name string, status types.Status, runtime time.Duration) {
	if m == nil {
		return
	}
	label := normalizeLabel(name)
	m.workersRunning.WithLabelValues(label).Dec()
	m.workerCompleted.WithLabelValues(label, status.String()).Inc()
	m.workerRuntime.WithLabelValues(label, status.String()).Observe(runtime.Seconds())
}

// PrematureExit records a daemon premature-exit event.
func (m *MetricsExporter) PrematureExit(name string) {
	if m == nil {
		return
	}
	m.prematureExitsTotal.WithLabelValues(normalizeLabel(name)).Inc()
}

func normalizeLabel(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}

// registerCollector registers a collector, reusing an existing identical
// one when the registry already has it.
func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if ok {
			return existing, nil
		}
		var zero T
		return zero, fmt.Errorf("existing collector has unexpected type %T", alreadyRegisteredErr.ExistingCollector)
	}

	var zero T
	return zero, err
}
