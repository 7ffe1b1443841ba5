//go:build !windows

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidFile(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "clawwatch.pid")

	require.NoError(t, writePidFile(pidFile, os.Getpid()))
	b, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), strconv.Itoa(os.Getpid())+"\n"))
	assert.NoError(t, ensureNotRunning(pidFile), "own PID must not block startup")

	require.NoError(t, removePidFile(pidFile))
	_, err = os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, removePidFile(""))
}

func TestEnsureNotRunning(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, ensureNotRunning(""))
	assert.NoError(t, ensureNotRunning(filepath.Join(dir, "missing.pid")))

	cmd := exec.Command("sleep", "5")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	live := filepath.Join(dir, "live.pid")
	require.NoError(t, writePidFile(live, cmd.Process.Pid))
	err := ensureNotRunning(live)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	stale := filepath.Join(dir, "stale.pid")
	require.NoError(t, os.WriteFile(stale, []byte("999999999\n"), 0o600))
	assert.NoError(t, ensureNotRunning(stale))
}

func TestDaemonArgs(t *testing.T) {
	in := []string{"serve", "--daemonize", "--logfile", "/tmp/x.log", "--pidfile", "/tmp/x.pid", "--config=c.toml", "--logfile=/tmp/y.log", "--daemonize=true"}
	assert.Equal(t, []string{"serve", "--pidfile", "/tmp/x.pid", "--config=c.toml"}, daemonArgs(in))
}
