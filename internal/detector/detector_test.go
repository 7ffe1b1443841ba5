//go:build !windows

package detector

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

func startSleep(t *testing.T) *exec.Cmd {
	t.Helper()
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})
	return cmd
}

func TestWriteAndReadPIDFile(t *testing.T) {
	pf := filepath.Join(t.TempDir(), "clawwatch.pid")
	if err := WritePIDFile(pf, os.Getpid()); err != nil {
		t.Fatalf("write: %v", err)
	}
	pid, start, err := ReadPIDFile(pf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid = %d, want %d", pid, os.Getpid())
	}
	if cur := getProcStartUnix(pid); cur != start {
		t.Fatalf("start = %d, want %d", start, cur)
	}
	alive, err := PIDFileDetector{PIDFile: pf}.Alive()
	if err != nil || !alive {
		t.Fatalf("own process should be alive: %v %v", alive, err)
	}
}

func TestPIDFileDetectorMissingFile(t *testing.T) {
	alive, err := PIDFileDetector{PIDFile: filepath.Join(t.TempDir(), "none.pid")}.Alive()
	if err != nil || alive {
		t.Fatalf("missing pid file should be not alive without error, got %v %v", alive, err)
	}
}

func TestPIDFileDetectorPlainPID(t *testing.T) {
	cmd := startSleep(t)
	pf := filepath.Join(t.TempDir(), "plain.pid")
	if err := os.WriteFile(pf, []byte(strconv.Itoa(cmd.Process.Pid)), 0o600); err != nil {
		t.Fatal(err)
	}
	d := PIDFileDetector{PIDFile: pf}
	if alive, err := d.Alive(); err != nil || !alive {
		t.Fatalf("expected alive, got %v %v", alive, err)
	}

	_ = cmd.Process.Kill()
	_ = cmd.Wait()
	if alive, _ := d.Alive(); alive {
		t.Fatalf("expected dead process after kill")
	}
}

func TestPIDFileDetectorStartTimeMismatch(t *testing.T) {
	cmd := startSleep(t)
	pid := cmd.Process.Pid
	time.Sleep(20 * time.Millisecond)
	start := getProcStartUnix(pid)
	if start == 0 {
		t.Skip("process start time unavailable on this platform")
	}
	pf := filepath.Join(t.TempDir(), "reused.pid")
	content := fmt.Sprintf("%d\n{\"start_unix\":%d}\n", pid, start-3600)
	if err := os.WriteFile(pf, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if alive, err := (PIDFileDetector{PIDFile: pf}).Alive(); err != nil || alive {
		t.Fatalf("reused pid must not be reported alive, got %v %v", alive, err)
	}
}

func TestReadPIDFileErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.pid")
	_ = os.WriteFile(empty, []byte("\n"), 0o600)
	if _, _, err := ReadPIDFile(empty); !errors.Is(err, ErrEmptyPIDFile) {
		t.Fatalf("expected ErrEmptyPIDFile, got %v", err)
	}
	bad := filepath.Join(dir, "bad.pid")
	_ = os.WriteFile(bad, []byte("not-a-number"), 0o600)
	if _, err := (PIDFileDetector{PIDFile: bad}).Alive(); err == nil {
		t.Fatalf("expected error for invalid pid")
	}
}

func TestProcStartMatchesCreateTime(t *testing.T) {
	got := getProcStartUnix(os.Getpid())
	if got == 0 {
		t.Skip("process start time unavailable on this platform")
	}
	p, err := gopsproc.NewProcess(int32(os.Getpid())) // #nosec G115
	if err != nil {
		t.Fatalf("gopsutil process: %v", err)
	}
	ms, err := p.CreateTime()
	if err != nil {
		t.Fatalf("create time: %v", err)
	}
	if diff := got - ms/1000; diff < -2 || diff > 2 {
		t.Fatalf("start %d differs from create time %d by %ds", got, ms/1000, diff)
	}
	if getProcStartUnix(0) != 0 || getProcStartUnix(-5) != 0 {
		t.Fatalf("non-positive pids must report 0")
	}
}
