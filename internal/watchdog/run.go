package watchdog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
)

// Run polls immediately and then every interval until Stop is called or ctx ends.
// A zero interval uses the configured one. An in-flight poll is never aborted:
// polls run on a context detached from ctx, bounded by the collaborators' own timeouts.
func (w *Watchdog) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = w.cfg.Interval
	}
	if interval <= 0 {
		return errors.New("watchdog interval must be positive")
	}

	w.runMu.Lock()
	if w.running {
		w.runMu.Unlock()
		return ErrAlreadyRunning
	}
	stop := make(chan struct{})
	w.running, w.stopCh = true, stop
	w.runMu.Unlock()
	defer func() {
		w.runMu.Lock()
		w.running, w.stopCh = false, nil
		w.runMu.Unlock()
	}()

	bg := context.WithoutCancel(ctx)
	w.log.Info("gateway watchdog started", slog.Duration("interval", interval))
	w.record(bg, activity.WatchdogStarted, "Gateway monitoring started")
	defer func() {
		w.log.Info("gateway watchdog stopped")
		w.record(bg, activity.WatchdogStopped, "Gateway monitoring stopped")
	}()

	for {
		w.Poll(bg)

		select {
		case <-stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := time.NewTimer(interval)
		select {
		case <-t.C:
		case <-stop:
			t.Stop()
			return nil
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// Stop asks a running loop to exit. It does not interrupt an in-flight poll.
// Calling Stop when the loop is not running is a no-op.
func (w *Watchdog) Stop() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

// Monitoring reports whether Run is active.
func (w *Watchdog) Monitoring() bool {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.running
}
