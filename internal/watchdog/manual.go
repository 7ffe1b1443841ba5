package watchdog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
	"github.com/leandromarcosmoreira/ClawController/internal/probe"
	"github.com/leandromarcosmoreira/ClawController/internal/restart"
)

// RunHealthCheckOnce probes the gateway without touching watchdog state.
func (w *Watchdog) RunHealthCheckOnce(ctx context.Context) (res probe.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = probe.Result{Message: MonitorErrorPrefix + fmt.Sprint(r), CheckedAt: w.now()}
		}
	}()
	res = w.prober.Check(ctx)
	if res.CheckedAt.IsZero() {
		res.CheckedAt = w.now()
	}
	return res
}

// ManualRestart invokes the restart action outside the crash path and records the outcome.
// It waits for an in-flight poll to finish.
func (w *Watchdog) ManualRestart(ctx context.Context) restart.Result {
	w.cycle.Lock()
	defer w.cycle.Unlock()

	r := w.attemptRestart(ctx)
	outcome := "failed"
	if r.Success {
		outcome = "successful"
	}
	w.record(ctx, activity.ManualRestart, fmt.Sprintf("Manual restart: %s - %s", outcome, r.Message))
	w.persist(ctx)
	return r
}

func (w *Watchdog) callRestart(ctx context.Context) (r restart.Result) {
	defer func() {
		if p := recover(); p != nil {
			w.log.Error("restart action panicked", slog.Any("panic", p))
			r = restart.Result{Message: fmt.Sprintf("restart action panicked: %v", p)}
		}
	}()
	return w.restart.Restart(ctx)
}
