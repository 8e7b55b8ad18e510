// Package spec defines the contracts the probing engine consumes from its external
// collaborators: a read-only ServiceSpec source and a write-only result sink.
package spec

import (
	"context"
	"time"

	"github.com/service-weaver/probe-engine/pkg/probe"
)

// HealthcheckResult is an append-only record of one completed probe.
type HealthcheckResult struct {
	ServiceID  int64
	Status     probe.Status
	StatusCode *int
	Error      string
	LatencyMs  int64
	CheckedAt  time.Time
}

// Latest is the in-memory/persisted projection of a service's most recent status.
type Latest struct {
	CurrentStatus probe.Status
	LastCheckedAt *time.Time
}

// Store is the ServiceSpecStore consumed contract: a read-only snapshot of probe recipes plus
// idempotent latest-status updates.
type Store interface {
	// ListAll returns a consistent snapshot of every ServiceSpec known to the store.
	ListAll(ctx context.Context) ([]probe.Spec, error)
	// UpdateLatest records the most recent status for a service. Idempotent.
	UpdateLatest(ctx context.Context, serviceID int64, status probe.Status, checkedAt time.Time) error
}

// ResultSink is the write-only contract for persisting HealthcheckResults.
type ResultSink interface {
	AppendResult(ctx context.Context, result HealthcheckResult) error
}
