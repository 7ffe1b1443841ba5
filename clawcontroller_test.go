package clawcontroller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	healthy atomic.Bool
	chats   atomic.Int32
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/models":
		if g.healthy.Load() {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	case "/api/chat":
		g.chats.Add(1)
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func writeConfig(t *testing.T, gatewayURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "clawwatch.toml")
	body := fmt.Sprintf(`
[gateway]
url = %q

[watchdog]
interval = "1s"
state = %q

[activity]
sinks = [%q]

[server]
listen = "127.0.0.1:0"
base_path = "/api"
`, gatewayURL, filepath.Join(dir, "state.json"), "sqlite://"+filepath.Join(dir, "activity.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestControllerEndToEnd(t *testing.T) {
	gw := &fakeGateway{}
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	cfg, err := LoadConfig(writeConfig(t, srv.URL))
	require.NoError(t, err)
	c, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	res := c.Poll(context.Background())
	assert.False(t, res.Healthy)
	assert.Equal(t, "Gateway status: 503", res.Message)
	assert.EqualValues(t, 1, gw.chats.Load(), "crash notification")

	gw.healthy.Store(true)
	res = c.Poll(context.Background())
	assert.True(t, res.Healthy)
	assert.EqualValues(t, 2, gw.chats.Load(), "recovery notification")

	st := c.Status()
	assert.Equal(t, "healthy", string(st.HealthStatus))
	assert.Equal(t, 1, st.CrashCount)
	assert.Equal(t, 1, st.RestartCount)

	assert.True(t, c.HealthCheck(context.Background()).Healthy)
	rr := c.Restart(context.Background())
	assert.False(t, rr.Success)

	entries, err := c.RecentActivity(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "manual_restart", string(entries[0].Type))
	assert.Equal(t, "gateway_recovery", string(entries[1].Type))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/monitoring/gateway/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"health_status":"healthy"`)
}

func TestControllerStateSurvivesRestart(t *testing.T) {
	gw := &fakeGateway{}
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)
	cfg, err := LoadConfig(writeConfig(t, srv.URL))
	require.NoError(t, err)

	c, err := New(cfg, nil)
	require.NoError(t, err)
	c.Poll(context.Background())
	c.Poll(context.Background())
	require.NoError(t, c.Close())

	c2, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c2.Close() })
	assert.Equal(t, 2, c2.Status().CrashCount)
	assert.Equal(t, 2, c2.Status().ConsecutiveFailures)
}

func TestNewRejectsBadActivitySink(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "http://127.0.0.1:1"))
	require.NoError(t, err)
	cfg.Activity.Sinks = []string{"redis://localhost"}
	_, err = New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DSN")
}

func TestRegisterMetricsAndServe(t *testing.T) {
	r := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(r))
	require.NoError(t, RegisterMetrics(r))

	srv := NewMetricsServer(":0")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(srv.Addr, ":"))
}
