package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "clawcontroller"
	subsystem = "gateway"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "polls_total",
			Help:      "Number of health polls by outcome.",
		}, []string{"result"},
	)
	crashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "crashes_total",
			Help:      "Number of unhealthy polls handled as crashes.",
		},
	)
	recoveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recoveries_total",
			Help:      "Number of confirmed crashed to healthy transitions.",
		},
	)
	restartAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "restart_attempts_total",
			Help:      "Number of restart attempts by result.",
		}, []string{"result"},
	)
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_total",
			Help:      "Number of notifications sent by kind and result.",
		}, []string{"kind", "result"},
	)
	monitorErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "monitor_errors_total",
			Help:      "Number of polls aborted by an internal monitor failure.",
		},
	)
	healthStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "health_status",
			Help:      "Current health status (1 = active state, 0 = inactive).",
		}, []string{"state"},
	)
	consecutiveFailures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "consecutive_failures",
			Help:      "Unhealthy polls since the last healthy one.",
		},
	)
	totalUptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "total_uptime_hours",
			Help:      "Accumulated uptime of completed healthy streaks.",
		},
	)
	probeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "probe_duration_seconds",
			Help:      "Latency of health probes.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Poll outcomes and results used as label values.
const (
	ResultHealthy   = "healthy"
	ResultUnhealthy = "unhealthy"
	ResultSuccess   = "success"
	ResultFailure   = "failure"
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		polls, crashes, recoveries, restartAttempts, notifications,
		monitorErrors, healthStatus, consecutiveFailures, totalUptime, probeDuration,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func ObservePoll(healthy bool, seconds float64) {
	if !regOK.Load() {
		return
	}
	result := ResultUnhealthy
	if healthy {
		result = ResultHealthy
	}
	polls.WithLabelValues(result).Inc()
	probeDuration.Observe(seconds)
}

func IncCrash() {
	if regOK.Load() {
		crashes.Inc()
	}
}

func IncRecovery() {
	if regOK.Load() {
		recoveries.Inc()
	}
}

func IncRestartAttempt(success bool) {
	if regOK.Load() {
		restartAttempts.WithLabelValues(result(success)).Inc()
	}
}

func IncNotification(kind string, success bool) {
	if regOK.Load() {
		notifications.WithLabelValues(kind, result(success)).Inc()
	}
}

func IncMonitorError() {
	if regOK.Load() {
		monitorErrors.Inc()
	}
}

// SetHealth marks current as the single active health state.
func SetHealth(current string, states ...string) {
	if !regOK.Load() {
		return
	}
	for _, s := range states {
		var value float64
		if s == current {
			value = 1
		}
		healthStatus.WithLabelValues(s).Set(value)
	}
}

func SetConsecutiveFailures(n int) {
	if regOK.Load() {
		consecutiveFailures.Set(float64(n))
	}
}

func SetTotalUptimeHours(h float64) {
	if regOK.Load() {
		totalUptime.Set(h)
	}
}

func result(success bool) string {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}
