package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/service-weaver/probe-engine/pkg/database"
	"github.com/service-weaver/probe-engine/pkg/engine"
	"github.com/service-weaver/probe-engine/pkg/probe"
)

// TestIntegration_HTTPHappyPath exercises the full stack end to end: a sqlite-backed
// ServiceSpecStore, the Scheduler's tick loop, the Probe Runner, and the Broadcast Hub,
// against a real HTTP server standing in for the probed service.
func TestIntegration_HTTPHappyPath(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	host, portStr, err := net.SplitHostPort(target.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	db, err := database.New(":memory:")
	require.NoError(t, err)
	defer db.Close()

	store := database.NewSqliteStore(db)
	ctx := context.Background()

	require.NoError(t, store.InsertSpec(ctx, probe.Spec{
		ServiceID:          1,
		Host:               host,
		Port:               port,
		Method:             probe.MethodHTTP,
		HTTPMethod:         "GET",
		HealthcheckPath:    "/healthz",
		ExpectedStatus:     200,
		PollingIntervalSec: 1,
		TimeoutSec:         2,
	}))

	eng := engine.New(store, store, probe.Deps{}, engine.Options{TickSec: 1, HubInboxCap: 10})
	sub := eng.Hub.Subscribe()
	eng.Start(ctx)
	defer eng.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		msg, ok := sub.NextMessage()
		require.True(t, ok)
		if msg.ServiceID == 1 && msg.Status == "alive" {
			latest, err := store.GetLatest(ctx, 1)
			require.NoError(t, err)
			require.Equal(t, probe.StatusAlive, latest.CurrentStatus)

			history, err := store.History(ctx, 1, 10)
			require.NoError(t, err)
			require.NotEmpty(t, history)
			return
		}
	}
	t.Fatal("timed out waiting for the probe engine to report the target as alive")
}
