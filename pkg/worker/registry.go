package worker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzx17/workerkit/pkg/types"
)

// Registry tracks long-running daemons so a top-level component can
// shut them all down at process exit. It is an explicit, passed-in
// object, not a hidden global; whoever bootstraps daemons owns it.
type Registry struct {
	mu      sync.Mutex
	clock   types.Clock
	logger  zerolog.Logger
	daemons []*Daemon
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clock:  types.NewRealClock(),
		logger: defaultLogger,
	}
}

// NewRegistryWithClock creates a registry with the specified clock.
func NewRegistryWithClock(clock types.Clock) *Registry {
	r := NewRegistry()
	if clock != nil {
		r.clock = clock
	}
	return r
}

// SetLogger sets the registry logger.
func (r *Registry) SetLogger(logger zerolog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a daemon to the registry.
func (r *Registry) Register(d *Daemon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.daemons = append(r.daemons, d)
}

// Len returns the number of registered daemons.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.daemons)
}

// Names returns the diagnostic names of all registered daemons, in
// registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.daemons))
	for i, d := range r.daemons {
		names[i] = d.Name()
	}
	return names
}

// StopAll requests a stop on every registered daemon, then joins each
// within the shared timeout; timeout <= 0 waits indefinitely. All stop
// requests are issued before any join, so daemons wind down
// concurrently. Returns true iff every daemon terminated in time; the
// requests stay latched regardless.
func (r *Registry) StopAll(timeout time.Duration) bool {
	r.mu.Lock()
	daemons := append([]*Daemon(nil), r.daemons...)
	logger := r.logger
	r.mu.Unlock()

	for _, d := range daemons {
		d.RequestStop("registry shutdown")
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = r.clock.Now().Add(timeout)
	}

	all := true
	// Join in reverse registration order: later daemons tend to depend
	// on earlier ones.
	for i := len(daemons) - 1; i >= 0; i-- {
		d := daemons[i]
		if deadline.IsZero() {
			d.Wait()
			continue
		}
		remaining := deadline.Sub(r.clock.Now())
		if remaining <= 0 {
			if !d.IsDone() {
				logger.Warn().Str("worker", d.Name()).Msg("daemon did not stop in time")
				all = false
			}
			continue
		}
		if !d.Join(remaining) {
			logger.Warn().Str("worker", d.Name()).Msg("daemon did not stop in time")
			all = false
		}
	}
	return all
}
