package client

import "time"

// Status mirrors GET /monitoring/gateway/status.
type Status struct {
	Monitoring              bool         `json:"monitoring"`
	HealthStatus            string       `json:"health_status"`
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

// StatusConfig is the watchdog policy reported with a Status.
type StatusConfig struct {
	CheckIntervalSeconds        float64 `json:"check_interval_seconds"`
	HealthCheckTimeout          float64 `json:"health_check_timeout"`
	MaxRestartAttempts          int     `json:"max_restart_attempts"`
	NotificationCooldownMinutes float64 `json:"notification_cooldown_minutes"`
}

// HealthCheck is the result of an on-demand probe.
type HealthCheck struct {
	IsHealthy     bool      `json:"is_healthy"`
	StatusMessage string    `json:"status_message"`
	CheckTime     time.Time `json:"check_time"`
}

// RestartResult is the outcome of a manual restart.
type RestartResult struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	RestartTime time.Time `json:"restart_time"`
}

// ActivityEntry is one row of the activity log.
type ActivityEntry struct {
	ID           string    `json:"id"`
	ActivityType string    `json:"activity_type"`
	AgentID      string    `json:"agent_id,omitempty"`
	TaskID       string    `json:"task_id,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}
