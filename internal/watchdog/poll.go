package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
	"github.com/leandromarcosmoreira/ClawController/internal/metrics"
	"github.com/leandromarcosmoreira/ClawController/internal/notify"
	"github.com/leandromarcosmoreira/ClawController/internal/probe"
	"github.com/leandromarcosmoreira/ClawController/internal/restart"
	"github.com/leandromarcosmoreira/ClawController/internal/state"
)

// MonitorErrorPrefix marks poll results produced by a failure of the monitor itself.
const MonitorErrorPrefix = "monitor_error: "

// Poll performs one health check and applies the resulting transition.
// It never panics; lastCheck is updated and state persisted on every call.
func (w *Watchdog) Poll(ctx context.Context) (res probe.Result) {
	w.cycle.Lock()
	defer w.cycle.Unlock()

	var now time.Time
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			w.log.Error("gateway monitor error", slog.String("error", msg))
			metrics.IncMonitorError()
			w.record(ctx, activity.MonitorError, "Monitoring error: "+msg)
			res = probe.Result{Message: MonitorErrorPrefix + msg, CheckedAt: w.now()}
		}
		if now.IsZero() {
			now = w.now()
		}
		w.mu.Lock()
		w.st.LastCheck = now
		st := w.st
		w.mu.Unlock()
		w.updateGauges(st)
		w.persist(ctx)
	}()

	res = w.prober.Check(ctx)
	now = w.now()
	if res.CheckedAt.IsZero() {
		res.CheckedAt = now
	}
	metrics.ObservePoll(res.Healthy, res.Latency.Seconds())

	if res.Healthy {
		w.onHealthy(ctx, now)
	} else {
		w.onCrash(ctx, now, res.Message)
	}
	return res
}

func (w *Watchdog) onHealthy(ctx context.Context, now time.Time) {
	prev := w.State()
	if prev.HealthStatus != state.HealthHealthy {
		w.recoverFrom(ctx, now, prev)
	}
	w.mu.Lock()
	w.st.HealthStatus = state.HealthHealthy
	w.st.LastHealthy = now
	w.st.ConsecutiveFailures = 0
	if w.st.UptimeStart.IsZero() {
		w.st.UptimeStart = now
	}
	w.mu.Unlock()
}

// recoverFrom handles the crashed -> healthy edge. It is silent unless a crash is on record.
func (w *Watchdog) recoverFrom(ctx context.Context, now time.Time, prev state.State) {
	if prev.LastCrash.IsZero() || prev.HealthStatus != state.HealthCrashed {
		w.log.Info("gateway healthy", slog.String("previous_status", string(prev.HealthStatus)))
		return
	}
	downtime := now.Sub(prev.LastCrash)
	if downtime < 0 {
		downtime = 0
	}
	w.record(ctx, activity.GatewayRecovery, fmt.Sprintf("Gateway recovered after %s", downtime.Round(time.Second)))

	w.mu.Lock()
	w.st.ConsecutiveFailures = 0
	w.st.HealthStatus = state.HealthHealthy
	w.st.LastHealthy = now
	w.st.UptimeStart = now
	restarts := w.st.RestartCount
	w.mu.Unlock()
	w.persist(ctx)

	metrics.IncRecovery()
	w.log.Info("gateway recovered", slog.Duration("downtime", downtime))

	if w.cfg.NotifyOnRecovery {
		w.send(ctx, "recovery", notify.RecoveryMessage(notify.RecoveryInfo{
			RecoveryTime:  now,
			Downtime:      downtime,
			Method:        notify.MethodHealthCheck,
			TotalRestarts: restarts,
		}))
	}
}

// onCrash runs on every unhealthy poll.
func (w *Watchdog) onCrash(ctx context.Context, now time.Time, message string) {
	w.mu.Lock()
	uptimeHours := w.st.StreakHours(now)
	// the streak has ended; later unhealthy polls must not fold it in again
	w.st.UptimeStart = time.Time{}
	w.st.LastCrash = now
	w.st.CrashCount++
	w.st.ConsecutiveFailures++
	w.st.HealthStatus = state.HealthCrashed
	if uptimeHours > 0 {
		w.st.TotalUptimeHours += uptimeHours
	}
	consecutive := w.st.ConsecutiveFailures
	crashes := w.st.CrashCount
	w.mu.Unlock()

	metrics.IncCrash()
	w.log.Warn("gateway unhealthy",
		slog.String("error", message),
		slog.Int("consecutive_failures", consecutive),
		slog.Int("crash_count", crashes))
	w.record(ctx, activity.GatewayCrash, "Gateway crashed: "+message)

	attempts, restarted := 0, false
	if consecutive <= w.cfg.MaxRestartAttempts {
		attempts = 1
		r := w.attemptRestart(ctx)
		restarted = r.Success
		if r.Success {
			w.record(ctx, activity.GatewayRestart, "Gateway auto-restarted successfully")
			w.send(ctx, "recovery", notify.RecoveryMessage(notify.RecoveryInfo{
				RecoveryTime:  w.now(),
				Downtime:      w.now().Sub(now),
				Method:        notify.MethodAutoRestart,
				TotalRestarts: w.State().RestartCount,
			}))
		} else {
			w.record(ctx, activity.GatewayRestartFailed, "Gateway restart failed: "+r.Message)
		}
	} else {
		w.log.Info("restart attempts paused until the gateway is healthy again",
			slog.Int("consecutive_failures", consecutive),
			slog.Int("max_restart_attempts", w.cfg.MaxRestartAttempts))
	}

	if w.notificationDue(now) {
		w.send(ctx, "crash", notify.CrashMessage(notify.CrashInfo{
			CrashTime:           now,
			ErrorMessage:        message,
			UptimeHours:         uptimeHours,
			TotalCrashes:        crashes,
			ConsecutiveFailures: consecutive,
			RestartAttempts:     attempts,
			RestartSuccess:      restarted,
		}))
		w.mu.Lock()
		w.st.LastNotification = now
		w.mu.Unlock()
	}
	w.persist(ctx)
}

// attemptRestart calls the restart action once and counts the attempt.
func (w *Watchdog) attemptRestart(ctx context.Context) restart.Result {
	r := w.callRestart(ctx)
	w.mu.Lock()
	w.st.RestartCount++
	w.mu.Unlock()
	metrics.IncRestartAttempt(r.Success)
	if r.Success {
		w.log.Info("gateway restart succeeded", slog.String("message", r.Message))
	} else {
		w.log.Warn("gateway restart failed", slog.String("message", r.Message))
	}
	return r
}

// notificationDue reports whether the crash notification cooldown has elapsed.
func (w *Watchdog) notificationDue(now time.Time) bool {
	w.mu.Lock()
	last := w.st.LastNotification
	w.mu.Unlock()
	return last.IsZero() || now.Sub(last) > w.cfg.NotificationCooldown
}
