package runner

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/service-weaver/probe-engine/pkg/hub"
	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/service-weaver/probe-engine/pkg/spec"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	latest  map[int64]spec.Latest
	updates int
}

func newFakeStore() *fakeStore { return &fakeStore{latest: make(map[int64]spec.Latest)} }

func (f *fakeStore) ListAll(ctx context.Context) ([]probe.Spec, error) { return nil, nil }

func (f *fakeStore) UpdateLatest(ctx context.Context, serviceID int64, status probe.Status, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	f.latest[serviceID] = spec.Latest{CurrentStatus: status, LastCheckedAt: &checkedAt}
	return nil
}

type fakeSink struct {
	mu      sync.Mutex
	results []spec.HealthcheckResult
}

func (f *fakeSink) AppendResult(ctx context.Context, result spec.HealthcheckResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func TestRunner_HTTPHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.Listener.Addr().String())

	store := newFakeStore()
	sink := &fakeSink{}
	h := hub.New(10)
	h.Run()
	defer h.Stop()

	sub := h.Subscribe()
	r := New(store, sink, h, probe.Deps{})

	ps := probe.Spec{
		ServiceID:       1,
		Host:            host,
		Port:            port,
		Method:          probe.MethodHTTP,
		HTTPMethod:      "GET",
		HealthcheckPath: "/healthz",
		ExpectedStatus:  200,
		TimeoutSec:      2,
	}
	r.Run(context.Background(), ps)

	msg1, ok := sub.NextMessage()
	require.True(t, ok)
	require.Equal(t, "checking", msg1.Status)

	msg2, ok := sub.NextMessage()
	require.True(t, ok)
	require.Equal(t, "alive", msg2.Status)

	require.Len(t, sink.results, 1)
	require.Equal(t, probe.StatusAlive, sink.results[0].Status)
	require.GreaterOrEqual(t, sink.results[0].LatencyMs, int64(0))

	latest, ok := store.latest[1]
	require.True(t, ok)
	require.Equal(t, probe.StatusAlive, latest.CurrentStatus)
}

func TestRunner_UnsupportedMethodIsDead(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	h := hub.New(10)
	h.Run()
	defer h.Stop()

	r := New(store, sink, h, probe.Deps{})
	ps := probe.Spec{ServiceID: 2, Method: "carrier-pigeon", TimeoutSec: 1}
	r.Run(context.Background(), ps)

	require.Len(t, sink.results, 1)
	require.Equal(t, probe.StatusDead, sink.results[0].Status)
	require.NotEmpty(t, sink.results[0].Error)
}

func TestRunner_TCPTimeoutIsDead(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	h := hub.New(10)
	h.Run()
	defer h.Stop()

	r := New(store, sink, h, probe.Deps{})
	// 192.0.2.0/24 is reserved (TEST-NET-1), guaranteed not to answer.
	ps := probe.Spec{ServiceID: 3, Host: "192.0.2.1", Port: 81, Method: probe.MethodTCP, TimeoutSec: 1}
	r.Run(context.Background(), ps)

	require.Len(t, sink.results, 1)
	require.Equal(t, probe.StatusDead, sink.results[0].Status)
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}
