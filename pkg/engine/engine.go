// Package engine wires the Scheduler, Probe Runner, and Broadcast Hub into one lifecycle.
package engine

import (
	"context"
	"sync/atomic"

	"github.com/service-weaver/probe-engine/pkg/hub"
	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/service-weaver/probe-engine/pkg/runner"
	"github.com/service-weaver/probe-engine/pkg/scheduler"
	"github.com/service-weaver/probe-engine/pkg/spec"
)

// Engine is the top-level composition root: a Hub feeding Transport Adapters, a Runner
// executing one probe algorithm, and a Scheduler driving the fixed-tick scan loop.
type Engine struct {
	Hub *hub.Hub

	store     spec.Store
	scheduler *scheduler.Scheduler
	running   atomic.Bool
}

// Status is an operational snapshot of the running Engine, for status/health endpoints.
type Status struct {
	Running      bool
	ServiceCount int
}

// Options configures the Engine's tick cadence, concurrency bound, and Hub inbox capacity.
type Options struct {
	TickSec     int
	MaxInFlight int
	HubInboxCap int
}

// New builds an Engine around store, sink, and deps. The Hub is exposed directly so Transport
// Adapters (websocket, AMQP) can subscribe to it before or after Start.
func New(store spec.Store, sink spec.ResultSink, deps probe.Deps, opts Options) *Engine {
	h := hub.New(opts.HubInboxCap)
	r := runner.New(store, sink, h, deps)
	s := scheduler.New(store, r, opts.TickSec, opts.MaxInFlight)
	return &Engine{Hub: h, store: store, scheduler: s}
}

// Start brings the Hub and Scheduler up. It returns immediately; both run in background
// goroutines until Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.Hub.Run()
	e.scheduler.Start(ctx)
	e.running.Store(true)
}

// Stop is synchronous: it returns only after the scheduler's tick loop has observed
// cancellation and any in-flight tick has finished dispatching, then shuts the Hub down.
func (e *Engine) Stop() {
	e.running.Store(false)
	e.scheduler.Stop()
	e.Hub.Stop()
}

// GetStatus reports whether the Engine is running and how many ServiceSpecs it currently
// knows about. It is a read-only operational summary, not a health verdict on any one service.
func (e *Engine) GetStatus(ctx context.Context) Status {
	status := Status{Running: e.running.Load()}
	if specs, err := e.store.ListAll(ctx); err == nil {
		status.ServiceCount = len(specs)
	}
	return status
}
