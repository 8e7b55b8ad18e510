// Package scheduler implements the fixed-tick scan loop that dispatches Probe Runner tasks.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/service-weaver/probe-engine/pkg/spec"
)

// runner is the subset of runner.Runner the scheduler depends on, kept narrow for testability.
type runner interface {
	Run(ctx context.Context, ps probe.Spec)
}

// Scheduler wakes at a fixed tick, evaluates shouldCheck for every known ServiceSpec, and
// dispatches at most one concurrent Probe Runner task per service.
type Scheduler struct {
	store       spec.Store
	runner      runner
	tick        time.Duration
	maxInFlight int

	guardMu sync.Mutex
	guards  map[int64]*sync.Mutex

	lastCheckedMu sync.Mutex
	lastChecked   map[int64]time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a Scheduler ticking every tickSec seconds, with at most maxInFlight probes running
// concurrently per tick (0 or negative disables the bound).
func New(store spec.Store, r runner, tickSec int, maxInFlight int) *Scheduler {
	if tickSec <= 0 {
		tickSec = 5
	}
	return &Scheduler{
		store:       store,
		runner:      r,
		tick:        time.Duration(tickSec) * time.Second,
		maxInFlight: maxInFlight,
		guards:      make(map[int64]*sync.Mutex),
		lastChecked: make(map[int64]time.Time),
	}
}

// Start begins the tick loop in a background goroutine. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.runLoopWithRecover()
}

// Stop cancels the tick loop and waits for the in-flight tick to observe cancellation.
// Already-dispatched probes observe the shared signal and return promptly; since a tick waits
// for every probe it dispatched, Stop returns only after those probe goroutines have exited.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoopWithRecover() {
	defer s.wg.Done()
	for {
		stopped := s.runLoop()
		if stopped {
			return
		}
		log.Printf("scheduler: tick loop panicked, restarting")
	}
}

func (s *Scheduler) runLoop() (stopped bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: recovered panic in tick loop: %v", r)
			stopped = false
		}
	}()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return true
		case <-ticker.C:
			s.runTick()
		}
	}
}

func (s *Scheduler) runTick() {
	specs, err := s.store.ListAll(s.ctx)
	if err != nil {
		log.Printf("scheduler: list service specs failed, skipping tick: %v", err)
		return
	}

	due := make([]probe.Spec, 0, len(specs))
	for _, ps := range specs {
		if s.shouldCheck(ps) {
			due = append(due, ps)
		}
	}
	if len(due) == 0 {
		return
	}

	group, groupCtx := errgroup.WithContext(s.ctx)
	if s.maxInFlight > 0 {
		group.SetLimit(s.maxInFlight)
	}

	for _, ps := range due {
		ps := ps
		guard, busy := s.acquireGuard(ps.ServiceID)
		if busy {
			continue
		}
		group.Go(func() error {
			defer s.releaseGuard(ps.ServiceID, guard)
			s.dispatchOne(groupCtx, ps)
			return nil
		})
	}
	_ = group.Wait()
}

// shouldCheck gates a ServiceSpec for this tick: a non-empty host, a healthcheck path for
// path-requiring methods, and an elapsed polling interval since the last check.
func (s *Scheduler) shouldCheck(ps probe.Spec) bool {
	if ps.Host == "" {
		return false
	}
	if requiresPath(ps.Method) && ps.HealthcheckPath == "" {
		return false
	}

	s.lastCheckedMu.Lock()
	last, ok := s.lastChecked[ps.ServiceID]
	s.lastCheckedMu.Unlock()

	if !ok {
		// Nothing probed yet this process's lifetime; fall back to the persisted
		// last-checked-at from the store so a restart doesn't reprobe every known service on
		// its very first tick.
		if ps.LastCheckedAt == nil {
			return true
		}
		last = *ps.LastCheckedAt
	}
	return time.Since(last) >= time.Duration(ps.PollingIntervalSec)*time.Second
}

func requiresPath(m probe.Method) bool {
	switch m {
	case probe.MethodHTTP, probe.MethodHTTPS, probe.MethodWS, probe.MethodWSS, probe.MethodGRPC:
		return true
	default:
		return false
	}
}

func (s *Scheduler) dispatchOne(ctx context.Context, ps probe.Spec) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("scheduler: recovered panic probing service %d: %v", ps.ServiceID, r)
		}
	}()

	s.runner.Run(ctx, ps)

	s.lastCheckedMu.Lock()
	s.lastChecked[ps.ServiceID] = time.Now()
	s.lastCheckedMu.Unlock()
}

// acquireGuard returns the per-service mutex locked, or (nil, true) if it was already held,
// meaning this service has a probe in flight and must be skipped for the current tick.
func (s *Scheduler) acquireGuard(serviceID int64) (*sync.Mutex, bool) {
	s.guardMu.Lock()
	guard, ok := s.guards[serviceID]
	if !ok {
		guard = &sync.Mutex{}
		s.guards[serviceID] = guard
	}
	s.guardMu.Unlock()

	if !guard.TryLock() {
		return nil, true
	}
	return guard, false
}

func (s *Scheduler) releaseGuard(serviceID int64, guard *sync.Mutex) {
	guard.Unlock()
}
