package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeOnce(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/models" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gw.Close)

	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	cfgPath := filepath.Join(dir, "clawwatch.toml")
	cfg := fmt.Sprintf(`
[gateway]
url = %q

[watchdog]
state = %q

[activity]
sinks = [%q]

[log]
level = "error"
`, gw.URL, statePath, filepath.Join(dir, "activity.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	var out bytes.Buffer
	err := runServeCommand(context.Background(), &ServeFlags{ConfigPath: cfgPath, Once: true}, &out)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, true, res["is_healthy"])
	assert.Equal(t, "Gateway healthy", res["status_message"])

	b, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"health_status": "healthy"`)
}

func TestServeRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[watchdog]\ninterval = \"-1s\"\n"), 0o600))
	err := runServeCommand(context.Background(), &ServeFlags{ConfigPath: cfgPath, Once: true}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watchdog.interval")
}

func TestServeStopsOnCancel(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(gw.Close)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "clawwatch.toml")
	cfg := fmt.Sprintf(`
[gateway]
url = %q

[watchdog]
state = %q

[activity]
sinks = []

[server]
listen = "127.0.0.1:0"

[log]
level = "error"
`, gw.URL, filepath.Join(dir, "state.json"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pid := filepath.Join(dir, "clawwatch.pid")
	err := runServeCommand(ctx, &ServeFlags{ConfigPath: cfgPath, PidFile: pid}, &bytes.Buffer{})
	require.NoError(t, err)
	_, statErr := os.Stat(pid)
	assert.True(t, os.IsNotExist(statErr), "pid file removed on exit")
}
