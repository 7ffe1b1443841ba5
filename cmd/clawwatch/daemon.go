package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/leandromarcosmoreira/ClawController/internal/detector"
)

// daemonize re-executes the current command in the background without --daemonize.
func daemonize(pidFile string, logFile string) error {
	if !isDaemonSupported() {
		return errors.New("daemon mode is not supported on this platform")
	}

	if err := ensureNotRunning(pidFile); err != nil {
		return err
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	// #nosec G204 -- re-executes this binary with the caller's own arguments
	cmd := exec.Command(executable, daemonArgs(os.Args[1:])...)
	configureDaemonAttrs(cmd)
	cmd.Stdin = nil

	if logFile != "" {
		// #nosec G304 -- operator supplied log path
		logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = logF.Close() }()
		cmd.Stdout = logF
		cmd.Stderr = logF
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	if pidFile != "" {
		if err := writePidFile(pidFile, cmd.Process.Pid); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
	}

	fmt.Printf("Daemon started with PID %d\n", cmd.Process.Pid)
	return cmd.Process.Release()
}

// daemonArgs drops the daemonize and logfile flags; the child keeps --pidfile
// so that it removes the file on exit.
func daemonArgs(args []string) []string {
	var out []string
	skipNext := false
	for _, arg := range args {
		if skipNext {
			skipNext = false
			continue
		}
		switch {
		case arg == "--daemonize", strings.HasPrefix(arg, "--daemonize="):
			continue
		case arg == "--logfile":
			skipNext = true
			continue
		case strings.HasPrefix(arg, "--logfile="):
			continue
		}
		out = append(out, arg)
	}
	return out
}

// writePidFile writes the daemon PID and its start time to a file
func writePidFile(pidFile string, pid int) error {
	return detector.WritePIDFile(pidFile, pid)
}

// ensureNotRunning fails when pidFile names another live clawwatch process.
// A stale file or one naming this process is fine.
func ensureNotRunning(pidFile string) error {
	if pidFile == "" {
		return nil
	}
	d := detector.PIDFileDetector{PIDFile: pidFile}
	alive, err := d.Alive()
	if err != nil {
		return fmt.Errorf("check %s: %w", d.Describe(), err)
	}
	if !alive {
		return nil
	}
	pid, _, err := detector.ReadPIDFile(pidFile)
	if err != nil {
		return err
	}
	if pid == os.Getpid() {
		return nil
	}
	return fmt.Errorf("clawwatch already running with PID %d (%s)", pid, pidFile)
}

// removePidFile removes the PID file
func removePidFile(pidFile string) error {
	if pidFile == "" {
		return nil
	}
	return os.Remove(pidFile)
}
