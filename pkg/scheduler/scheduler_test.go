package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	specs []probe.Spec
	err   error
}

func (f *fakeStore) ListAll(ctx context.Context) ([]probe.Spec, error) { return f.specs, f.err }
func (f *fakeStore) UpdateLatest(ctx context.Context, serviceID int64, status probe.Status, checkedAt time.Time) error {
	return nil
}

type slowRunner struct {
	mu          sync.Mutex
	started     []time.Time
	ended       []time.Time
	concurrent  int32
	maxObserved int32
	runDuration time.Duration
}

func (r *slowRunner) Run(ctx context.Context, ps probe.Spec) {
	cur := atomic.AddInt32(&r.concurrent, 1)
	for {
		max := atomic.LoadInt32(&r.maxObserved)
		if cur <= max || atomic.CompareAndSwapInt32(&r.maxObserved, max, cur) {
			break
		}
	}

	r.mu.Lock()
	r.started = append(r.started, time.Now())
	r.mu.Unlock()

	time.Sleep(r.runDuration)

	r.mu.Lock()
	r.ended = append(r.ended, time.Now())
	r.mu.Unlock()
	atomic.AddInt32(&r.concurrent, -1)
}

func TestScheduler_SkipsBusyServiceOnOverlap(t *testing.T) {
	r := &slowRunner{runDuration: 150 * time.Millisecond}
	store := &fakeStore{specs: []probe.Spec{{ServiceID: 1, Host: "h", Method: probe.MethodTCP, PollingIntervalSec: 1}}}

	s := New(store, r, 1, 0)
	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(1300 * time.Millisecond)

	r.mu.Lock()
	runs := len(r.started)
	r.mu.Unlock()

	// Tick is 1s, run takes 150ms: with exclusion, the service should never have two
	// concurrent runs, and should have run at least once within this window.
	assert.LessOrEqual(t, int32(1), atomic.LoadInt32(&r.maxObserved))
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.maxObserved))
	assert.GreaterOrEqual(t, runs, 1)
}

func TestScheduler_ShouldCheckGate(t *testing.T) {
	r := &slowRunner{}
	s := New(&fakeStore{}, r, 5, 0)

	assert.False(t, s.shouldCheck(probe.Spec{Host: ""}))
	assert.False(t, s.shouldCheck(probe.Spec{Host: "h", Method: probe.MethodHTTP, HealthcheckPath: ""}))
	assert.True(t, s.shouldCheck(probe.Spec{Host: "h", Method: probe.MethodHTTP, HealthcheckPath: "/x"}))
	assert.True(t, s.shouldCheck(probe.Spec{Host: "h", Method: probe.MethodTCP}))

	s.lastChecked[42] = time.Now()
	assert.False(t, s.shouldCheck(probe.Spec{ServiceID: 42, Host: "h", Method: probe.MethodTCP, PollingIntervalSec: 30}))
}

func TestScheduler_ShouldCheckFallsBackToPersistedLastCheckedAt(t *testing.T) {
	r := &slowRunner{}
	s := New(&fakeStore{}, r, 5, 0)

	recently := time.Now()
	assert.False(t, s.shouldCheck(probe.Spec{
		ServiceID: 7, Host: "h", Method: probe.MethodTCP, PollingIntervalSec: 30,
		LastCheckedAt: &recently,
	}))

	longAgo := time.Now().Add(-time.Hour)
	assert.True(t, s.shouldCheck(probe.Spec{
		ServiceID: 8, Host: "h", Method: probe.MethodTCP, PollingIntervalSec: 30,
		LastCheckedAt: &longAgo,
	}))

	assert.True(t, s.shouldCheck(probe.Spec{
		ServiceID: 9, Host: "h", Method: probe.MethodTCP, PollingIntervalSec: 30,
		LastCheckedAt: nil,
	}))
}

func TestScheduler_StoreErrorSkipsTickWithoutCrashing(t *testing.T) {
	r := &slowRunner{}
	store := &fakeStore{err: assertErr{}}
	s := New(store, r, 1, 0)
	s.Start(context.Background())
	time.Sleep(1250 * time.Millisecond)
	s.Stop()

	require.Equal(t, 0, len(r.started))
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
