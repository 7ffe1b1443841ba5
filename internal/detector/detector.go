// Package detector tells whether the process recorded in a PID file is still
// running, guarding against PID reuse with the recorded start time.
package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyPIDFile is returned for a PID file without a PID line.
var ErrEmptyPIDFile = errors.New("empty pid file")

type pidMeta struct {
	StartUnix int64 `json:"start_unix"`
}

// WritePIDFile records pid and, when available, its start time.
// The format is the PID on the first line and a JSON meta object on the second.
func WritePIDFile(path string, pid int) error {
	var b strings.Builder
	b.WriteString(strconv.Itoa(pid))
	b.WriteByte('\n')
	if start := getProcStartUnix(pid); start > 0 {
		mb, err := json.Marshal(pidMeta{StartUnix: start})
		if err != nil {
			return err
		}
		b.Write(mb)
		b.WriteByte('\n')
	}
	// #nosec G306 -- PID files are meant to be readable by service managers
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// ReadPIDFile returns the PID and recorded start time (0 when absent).
func ReadPIDFile(path string) (int, int64, error) {
	// #nosec G304 -- operator supplied PID path
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	pidStr := strings.TrimSpace(lines[0])
	if pidStr == "" {
		return 0, 0, fmt.Errorf("%w: %s", ErrEmptyPIDFile, path)
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pid in %s: %w", path, err)
	}
	var m pidMeta
	if len(lines) >= 2 {
		_ = json.Unmarshal([]byte(strings.TrimSpace(lines[1])), &m)
	}
	return pid, m.StartUnix, nil
}

// PIDFileDetector detects a process via a PID file.
type PIDFileDetector struct {
	PIDFile string
}

// Alive reports whether the recorded process runs. A missing file is not an error.
func (d PIDFileDetector) Alive() (bool, error) {
	pid, start, err := ReadPIDFile(d.PIDFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if start > 0 {
		if cur := getProcStartUnix(pid); cur > 0 && cur != start {
			return false, nil // PID reused; not our process
		}
	}
	return pidAlive(pid), nil
}

func (d PIDFileDetector) Describe() string { return "pidfile:" + d.PIDFile }
