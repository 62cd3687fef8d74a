/*
Package worker provides cooperative worker-lifecycle control: goroutines
with observable completion state, a future-style result interface, and a
cooperative stop/cancel protocol.

# Overview

A Worker binds one goroutine to one StopSignal and one Completion
record. Controllers may concurrently poll or join on completion, request
a stop, and read live diagnostics (stack snapshot, elapsed runtime,
profiler report) while the body runs. There is no forced termination:
cancellation works only because the body polls its context at a bounded
interval.

# Core Components

## Worker

The base execution unit. Start spawns the goroutine; the body outcome is
published exactly once as Succeeded, Failed or Cancelled, with all
blocked Join/Wait callers released and registered callbacks fired after
publication.

## Daemon / EventLoop

Indefinite-run workers. A Daemon's body should only exit in response to
Stop; any other exit is routed to a premature-exit handler. EventLoop
fixes the body as a fetch/handle loop over a two-method EventSource.

## Task / ExpiringTask / FunctionWorker

Single-shot workers with cancel vocabulary. ExpiringTask self-cancels
at a deadline. FunctionWorker wraps an arbitrary function and is
cancellable only before Start.

## WaitSet / Registry

WaitSet waits on collections of futures (all, within-timeout, or
as-completed). Registry gives process bootstrap code one object that
stops and joins every registered daemon.

# Concurrency Safety

StopSignal and Completion are the only state shared across the
worker/controller boundary; both are mutex-guarded, and the terminal
transition is a single synchronized publish-and-notify. Stack snapshots
and profiler reports are best-effort and may be slightly stale.

# Usage

	task := worker.NewTask(func(ctx context.Context) (any, error) {
		for {
			if err := worker.Sleep(ctx, 50*time.Millisecond); err != nil {
				return nil, err // cancelled
			}
			// ... unit of work ...
		}
	})

	if err := task.Start(); err != nil {
		log.Fatal(err)
	}

	task.Cancel("shutting down")
	if task.Join(time.Second) {
		fmt.Println(task.Status()) // cancelled
	}
*/
package worker
