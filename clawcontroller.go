package clawcontroller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
	activityfactory "github.com/leandromarcosmoreira/ClawController/internal/activity/factory"
	"github.com/leandromarcosmoreira/ClawController/internal/config"
	"github.com/leandromarcosmoreira/ClawController/internal/metrics"
	"github.com/leandromarcosmoreira/ClawController/internal/notify"
	"github.com/leandromarcosmoreira/ClawController/internal/probe"
	"github.com/leandromarcosmoreira/ClawController/internal/restart"
	iapi "github.com/leandromarcosmoreira/ClawController/internal/server"
	"github.com/leandromarcosmoreira/ClawController/internal/store"
	storefactory "github.com/leandromarcosmoreira/ClawController/internal/store/factory"
	itls "github.com/leandromarcosmoreira/ClawController/internal/tls"
	"github.com/leandromarcosmoreira/ClawController/internal/watchdog"
)

// Re-export core types for external consumers.

type Config = config.Config

type Status = watchdog.Status

type ActivityEntry = activity.Entry

type HealthResult = probe.Result

type RestartResult = restart.Result

// Controller is a gateway watchdog wired to the collaborators named in a Config.
type Controller struct {
	cfg      Config
	wd       *watchdog.Watchdog
	store    store.Store
	activity activity.Multi
	log      *slog.Logger
}

func LoadConfig(path string) (Config, error) { return config.Load(path) }

// New builds the state store, activity sinks, probe, notifier and restart action
// described by cfg. Close releases them.
func New(cfg Config, log *slog.Logger) (*Controller, error) {
	if log == nil {
		log = slog.Default()
	}
	st, err := storefactory.New(cfg.Watchdog.State)
	if err != nil {
		return nil, fmt.Errorf("state store: %w", err)
	}
	sinks, err := activityfactory.NewFromDSNs(cfg.Activity.Sinks)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	wd, err := watchdog.New(watchdog.Config{
		Interval:             cfg.Watchdog.Interval,
		ProbeTimeout:         cfg.Watchdog.ProbeTimeout,
		MaxRestartAttempts:   cfg.Watchdog.MaxRestartAttempts,
		NotificationCooldown: cfg.Watchdog.NotificationCooldown,
		NotifyOnRecovery:     cfg.Watchdog.NotifyOnRecovery,
	}, watchdog.Deps{
		Prober:    probe.New(cfg.Gateway.URL, cfg.Watchdog.ProbeTimeout),
		Restarter: restart.FromScript(cfg.Watchdog.RestartCommand, cfg.Watchdog.RestartTimeout, cfg.Watchdog.RestartEnv...),
		Notifier:  notify.New(cfg.Gateway.URL, cfg.Gateway.AgentID, cfg.Watchdog.NotifyTimeout),
		Activity:  sinks,
		Store:     st,
		Logger:    log,
	})
	if err != nil {
		_ = sinks.Close()
		_ = st.Close()
		return nil, err
	}
	return &Controller{cfg: cfg, wd: wd, store: st, activity: sinks, log: log}, nil
}

// Run monitors the gateway at the configured interval until Stop or ctx ends.
func (c *Controller) Run(ctx context.Context) error {
	return c.wd.Run(ctx, c.cfg.Watchdog.Interval)
}

func (c *Controller) Stop()                        { c.wd.Stop() }
func (c *Controller) Status() Status               { return c.wd.Status() }
func (c *Controller) Watchdog() *watchdog.Watchdog { return c.wd }

func (c *Controller) Poll(ctx context.Context) HealthResult { return c.wd.Poll(ctx) }

func (c *Controller) HealthCheck(ctx context.Context) HealthResult {
	return c.wd.RunHealthCheckOnce(ctx)
}

func (c *Controller) Restart(ctx context.Context) RestartResult { return c.wd.ManualRestart(ctx) }

// RecentActivity lists the newest entries from the first readable sink.
func (c *Controller) RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	return c.activity.Recent(ctx, limit)
}

// Handler returns the monitoring API mounted under the configured base path.
func (c *Controller) Handler() http.Handler {
	return iapi.NewRouter(c.wd, c.activity, c.cfg.Server.BasePath).WithLogger(c.log).Handler()
}

// NewHTTPServer starts an HTTP server exposing the monitoring API on the configured address.
// HTTPS is used when the [server.tls] section is enabled.
func (c *Controller) NewHTTPServer() (*http.Server, error) {
	tc, err := itls.SetupTLS(c.cfg.Server.TLS)
	if err != nil {
		return nil, fmt.Errorf("server tls: %w", err)
	}
	return iapi.NewRouter(c.wd, c.activity, c.cfg.Server.BasePath).WithLogger(c.log).Serve(c.cfg.Server.Listen, tc)
}

// Close releases the activity sinks and the state store.
func (c *Controller) Close() error {
	return errors.Join(c.activity.Close(), c.store.Close())
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error {
	if err := metrics.Register(r); err != nil {
		return err
	}
	return metrics.RegisterSelf(r)
}

func RegisterMetricsDefault() error { return RegisterMetrics(prometheus.DefaultRegisterer) }

// NewMetricsServer returns an unstarted server exposing /metrics from the default registry.
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// ServeMetrics serves /metrics on addr in the caller goroutine.
func ServeMetrics(addr string) error {
	return NewMetricsServer(addr).ListenAndServe()
}
