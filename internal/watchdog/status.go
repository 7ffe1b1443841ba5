package watchdog

import (
	"math"
	"time"

	"github.com/leandromarcosmoreira/ClawController/internal/state"
)

// Status is a read-only snapshot served by the monitoring API.
type Status struct {
	Monitoring              bool         `json:"monitoring"`
	HealthStatus            state.Health `json:"health_status"`
	LastCheck               *time.Time   `json:"last_check"`
	LastHealthy             *time.Time   `json:"last_healthy"`
	TimeSinceHealthyMinutes *float64     `json:"time_since_healthy_minutes"`
	CurrentUptimeHours      float64      `json:"current_uptime_hours"`
	TotalUptimeHours        float64      `json:"total_uptime_hours"`
	CrashCount              int          `json:"crash_count"`
	RestartCount            int          `json:"restart_count"`
	ConsecutiveFailures     int          `json:"consecutive_failures"`
	LastCrash               *time.Time   `json:"last_crash"`
	LastNotification        *time.Time   `json:"last_notification"`
	StateLocation           string       `json:"state_location,omitempty"`
	Config                  StatusConfig `json:"config"`
}

type StatusConfig struct {
	CheckIntervalSeconds        float64 `json:"check_interval_seconds"`
	HealthCheckTimeout          float64 `json:"health_check_timeout"`
	MaxRestartAttempts          int     `json:"max_restart_attempts"`
	NotificationCooldownMinutes float64 `json:"notification_cooldown_minutes"`
}

// Status returns a snapshot of the current state. It has no side effects.
func (w *Watchdog) Status() Status {
	now := w.now()
	st := w.State()

	s := Status{
		Monitoring:          w.Monitoring(),
		HealthStatus:        st.HealthStatus,
		LastCheck:           timePtr(st.LastCheck),
		LastHealthy:         timePtr(st.LastHealthy),
		TotalUptimeHours:    round2(st.TotalUptimeHours),
		CrashCount:          st.CrashCount,
		RestartCount:        st.RestartCount,
		ConsecutiveFailures: st.ConsecutiveFailures,
		LastCrash:           timePtr(st.LastCrash),
		LastNotification:    timePtr(st.LastNotification),
		Config: StatusConfig{
			CheckIntervalSeconds:        w.cfg.Interval.Seconds(),
			HealthCheckTimeout:          w.cfg.ProbeTimeout.Seconds(),
			MaxRestartAttempts:          w.cfg.MaxRestartAttempts,
			NotificationCooldownMinutes: w.cfg.NotificationCooldown.Minutes(),
		},
	}
	if w.store != nil {
		s.StateLocation = w.store.Location()
	}
	if st.HealthStatus == state.HealthHealthy {
		s.CurrentUptimeHours = round2(st.StreakHours(now))
	}
	if !st.LastHealthy.IsZero() {
		m := round2(now.Sub(st.LastHealthy).Minutes())
		s.TimeSinceHealthyMinutes = &m
	}
	return s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
