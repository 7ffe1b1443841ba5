package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
	sqlitesink "github.com/leandromarcosmoreira/ClawController/internal/activity/sqlite"
	"github.com/leandromarcosmoreira/ClawController/internal/probe"
	"github.com/leandromarcosmoreira/ClawController/internal/server"
	"github.com/leandromarcosmoreira/ClawController/internal/watchdog"
)

type toggleProber struct{ healthy atomic.Bool }

func (p *toggleProber) Check(context.Context) probe.Result {
	if p.healthy.Load() {
		return probe.Result{Healthy: true, Message: probe.HealthyMessage}
	}
	return probe.Result{Message: "Gateway status: 502"}
}

// startAPI serves a real watchdog behind the monitoring router.
func startAPI(t *testing.T, lister activity.Lister, sink activity.Sink) (*httptest.Server, *watchdog.Watchdog, *toggleProber) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	p := &toggleProber{}
	w, err := watchdog.New(watchdog.DefaultConfig(), watchdog.Deps{Prober: p, Activity: sink})
	require.NoError(t, err)
	srv := httptest.NewServer(server.NewRouter(w, lister, "/api").Handler())
	t.Cleanup(srv.Close)
	return srv, w, p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := buildRoot(command{out: &out})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	srv, w, _ := startAPI(t, nil, nil)
	w.Poll(context.Background())

	out, err := run(t, "status", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "crashed", st["health_status"])
	assert.Equal(t, float64(1), st["crash_count"])
}

func TestHealthCheckCommand(t *testing.T) {
	srv, w, p := startAPI(t, nil, nil)

	out, err := run(t, "health-check", "--api-url", srv.URL+"/api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Gateway status: 502")
	assert.Contains(t, out, `"is_healthy": false`)

	p.healthy.Store(true)
	out, err = run(t, "health-check", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	assert.Contains(t, out, `"status_message": "Gateway healthy"`)
	assert.Equal(t, "unknown", string(w.State().HealthStatus), "health-check must not change state")
}

func TestRestartCommand(t *testing.T) {
	srv, w, _ := startAPI(t, nil, nil)
	out, err := run(t, "restart", "--api-url", srv.URL+"/api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Restart not supported in this environment")
	assert.Contains(t, out, `"success": false`)
	assert.Equal(t, 1, w.State().RestartCount)
}

func TestActivityCommand(t *testing.T) {
	sink, err := sqlitesink.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	srv, w, _ := startAPI(t, sink, sink)
	w.Poll(context.Background())

	out, err := run(t, "activity", "--limit", "1", "--api-url", srv.URL+"/api")
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "gateway_restart_failed", entries[0]["activity_type"])

	_, err = run(t, "activity", "--limit", "0", "--api-url", srv.URL+"/api")
	require.Error(t, err)
}

func TestActivityCommandWithoutListableSink(t *testing.T) {
	srv, _, _ := startAPI(t, nil, nil)
	_, err := run(t, "activity", "--api-url", srv.URL+"/api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 501")
}

func TestHelpListsCommands(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"serve", "status", "health-check", "restart", "activity"} {
		assert.True(t, strings.Contains(out, name), "help should mention %s", name)
	}
}
