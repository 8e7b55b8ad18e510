package engine

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/service-weaver/probe-engine/pkg/spec"
)

type testStore struct {
	specs []probe.Spec
}

func (s *testStore) ListAll(ctx context.Context) ([]probe.Spec, error) { return s.specs, nil }

func (s *testStore) UpdateLatest(ctx context.Context, serviceID int64, status probe.Status, checkedAt time.Time) error {
	return nil
}

type noopSink struct{}

func (noopSink) AppendResult(ctx context.Context, result spec.HealthcheckResult) error { return nil }

func TestEngine_StartStopLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	store := &testStore{specs: []probe.Spec{{
		ServiceID: 1, Host: host, Port: port, Method: probe.MethodHTTP,
		HTTPMethod: "GET", HealthcheckPath: "/", ExpectedStatus: 200,
		PollingIntervalSec: 1, TimeoutSec: 1,
	}}}

	e := New(store, noopSink{}, probe.Deps{}, Options{TickSec: 1, HubInboxCap: 10})
	sub := e.Hub.Subscribe()

	e.Start(context.Background())
	defer e.Stop()

	_, ok := sub.NextMessage()
	require.True(t, ok)
}

func TestEngine_GetStatus(t *testing.T) {
	store := &testStore{specs: []probe.Spec{{ServiceID: 1}, {ServiceID: 2}}}
	e := New(store, noopSink{}, probe.Deps{}, Options{TickSec: 5, HubInboxCap: 10})

	status := e.GetStatus(context.Background())
	require.False(t, status.Running)
	require.Equal(t, 2, status.ServiceCount)

	e.Start(context.Background())
	status = e.GetStatus(context.Background())
	require.True(t, status.Running)
	e.Stop()

	status = e.GetStatus(context.Background())
	require.False(t, status.Running)
}
