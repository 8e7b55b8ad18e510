// Package runner implements the Probe Runner: one dispatch, one persist, one status update.
package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/service-weaver/probe-engine/pkg/hub"
	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/service-weaver/probe-engine/pkg/spec"
)

// Runner executes one probe per invocation of Run and fans the outcome out to persistence,
// the latest-status projection, and the broadcast hub.
type Runner struct {
	store spec.Store
	sink  spec.ResultSink
	hub   *hub.Hub
	deps  probe.Deps
}

// New builds a Runner wired to store, sink, and hub.
func New(store spec.Store, sink spec.ResultSink, h *hub.Hub, deps probe.Deps) *Runner {
	return &Runner{store: store, sink: sink, hub: h, deps: deps}
}

// Run executes the eight-step probe algorithm for one ServiceSpec.
func (r *Runner) Run(ctx context.Context, ps probe.Spec) {
	now := time.Now().UTC()
	r.hub.Publish(hub.StatusUpdate{
		ServiceID: ps.ServiceID,
		Status:    string(probe.StatusChecking),
		Timestamp: now.Format(time.RFC3339),
	})

	start := time.Now()
	deadline := start.Add(time.Duration(ps.TimeoutSec) * time.Second)
	probeCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	result := r.dispatch(probeCtx, ps)
	latencyMs := time.Since(start).Milliseconds()

	status := probe.Classify(ps, result)
	checkedAt := time.Now().UTC()

	errText := ""
	if result.Err != nil {
		errText = result.Err.Error()
	}

	hcResult := spec.HealthcheckResult{
		ServiceID:  ps.ServiceID,
		Status:     status,
		StatusCode: result.StatusCode,
		Error:      errText,
		LatencyMs:  latencyMs,
		CheckedAt:  checkedAt,
	}
	if err := r.sink.AppendResult(ctx, hcResult); err != nil {
		log.Printf("runner: persist result for service %d failed: %v", ps.ServiceID, err)
	}

	if err := r.store.UpdateLatest(ctx, ps.ServiceID, status, checkedAt); err != nil {
		log.Printf("runner: update latest for service %d failed, retrying once: %v", ps.ServiceID, err)
		if err := r.store.UpdateLatest(ctx, ps.ServiceID, status, checkedAt); err != nil {
			log.Printf("runner: update latest for service %d abandoned after retry: %v", ps.ServiceID, err)
		}
	}

	r.hub.Publish(hub.StatusUpdate{
		ServiceID: ps.ServiceID,
		Status:    string(status),
		Timestamp: checkedAt.Format(time.RFC3339),
	})
}

func (r *Runner) dispatch(ctx context.Context, ps probe.Spec) probe.Result {
	res := probe.Dispatch(ctx, ps, r.deps)
	if ctx.Err() != nil {
		return probe.Result{Status: probe.StatusDead, Err: fmt.Errorf("probe timed out after %ds: %w", ps.TimeoutSec, ctx.Err())}
	}
	return res
}
