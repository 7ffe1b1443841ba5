package watchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leandromarcosmoreira/ClawController/internal/activity"
	"github.com/leandromarcosmoreira/ClawController/internal/metrics"
	"github.com/leandromarcosmoreira/ClawController/internal/notify"
	"github.com/leandromarcosmoreira/ClawController/internal/probe"
	"github.com/leandromarcosmoreira/ClawController/internal/restart"
	"github.com/leandromarcosmoreira/ClawController/internal/state"
	"github.com/leandromarcosmoreira/ClawController/internal/store"
)

// Config holds the watchdog policy.
type Config struct {
	Interval             time.Duration
	ProbeTimeout         time.Duration // reported in Status; the prober enforces it
	MaxRestartAttempts   int
	NotificationCooldown time.Duration
	NotifyOnRecovery     bool
}

func DefaultConfig() Config {
	return Config{
		Interval:             30 * time.Second,
		ProbeTimeout:         10 * time.Second,
		MaxRestartAttempts:   3,
		NotificationCooldown: 15 * time.Minute,
		NotifyOnRecovery:     true,
	}
}

// Deps are the collaborators of a Watchdog. Only Prober is required.
type Deps struct {
	Prober    probe.Prober
	Restarter restart.Action   // defaults to restart.Unsupported
	Notifier  notify.Notifier  // defaults to a no-op
	Activity  activity.Sink    // defaults to a no-op
	Store     store.Store      // nil keeps state in memory only
	Logger    *slog.Logger     // defaults to slog.Default()
	Now       func() time.Time // defaults to time.Now
}

var (
	ErrAlreadyRunning = errors.New("watchdog is already running")
	ErrNoProber       = errors.New("watchdog requires a health prober")
)

// Watchdog polls the gateway and drives the crash/recovery state machine.
// It is safe for concurrent use.
type Watchdog struct {
	cfg      Config
	prober   probe.Prober
	restart  restart.Action
	notifier notify.Notifier
	sink     activity.Sink
	store    store.Store
	log      *slog.Logger
	clock    func() time.Time

	// cycle serializes Poll and ManualRestart; mu guards st.
	cycle sync.Mutex
	mu    sync.Mutex
	st    state.State

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string) error { return nil }

type nopSink struct{}

func (nopSink) Send(context.Context, activity.Entry) error { return nil }

// New builds a watchdog and loads its persisted state once.
// A missing or unreadable state falls back to defaults.
func New(cfg Config, deps Deps) (*Watchdog, error) {
	if deps.Prober == nil {
		return nil, ErrNoProber
	}
	if cfg.MaxRestartAttempts < 0 {
		return nil, fmt.Errorf("max restart attempts must not be negative, got %d", cfg.MaxRestartAttempts)
	}
	if cfg.NotificationCooldown < 0 {
		return nil, fmt.Errorf("notification cooldown must not be negative, got %s", cfg.NotificationCooldown)
	}
	w := &Watchdog{
		cfg:      cfg,
		prober:   deps.Prober,
		restart:  deps.Restarter,
		notifier: deps.Notifier,
		sink:     deps.Activity,
		store:    deps.Store,
		log:      deps.Logger,
		clock:    deps.Now,
		st:       state.Default(),
	}
	if w.restart == nil {
		w.restart = restart.Unsupported{}
	}
	if w.notifier == nil {
		w.notifier = nopNotifier{}
	}
	if w.sink == nil {
		w.sink = nopSink{}
	}
	if w.log == nil {
		w.log = slog.Default()
	}
	if w.clock == nil {
		w.clock = time.Now
	}
	w.load()
	return w, nil
}

func (w *Watchdog) now() time.Time { return w.clock().UTC() }

func (w *Watchdog) load() {
	if w.store == nil {
		return
	}
	st, err := w.store.Load(context.Background())
	switch {
	case errors.Is(err, store.ErrNotFound):
		w.log.Info("no persisted watchdog state, starting fresh", slog.String("location", w.store.Location()))
		return
	case err != nil:
		w.log.Warn("failed to load gateway watchdog state", slog.String("location", w.store.Location()), slog.Any("error", err))
		return
	}
	w.st = st
	w.updateGauges(st)
}

// State returns a copy of the current state.
func (w *Watchdog) State() state.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.st
}

// persist saves a snapshot; failures are logged and the in-memory state stays authoritative.
func (w *Watchdog) persist(ctx context.Context) {
	if w.store == nil {
		return
	}
	st := w.State()
	err := guard(func() error { return w.store.Save(ctx, st) })
	if err != nil {
		w.log.Error("failed to save gateway watchdog state", slog.String("location", w.store.Location()), slog.Any("error", err))
	}
}

func (w *Watchdog) record(ctx context.Context, t activity.Type, description string) {
	e := activity.NewEntry(t, description, w.now())
	if err := guard(func() error { return w.sink.Send(ctx, e) }); err != nil {
		w.log.Error("failed to log activity", slog.String("type", string(t)), slog.Any("error", err))
	}
}

func (w *Watchdog) send(ctx context.Context, kind, message string) {
	err := guard(func() error { return w.notifier.Send(ctx, message) })
	metrics.IncNotification(kind, err == nil)
	if err != nil {
		w.log.Error("failed to send notification", slog.String("kind", kind), slog.Any("error", err))
		return
	}
	w.log.Info("sent gateway notification", slog.String("kind", kind))
}

// guard converts a panic in a collaborator into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func (w *Watchdog) updateGauges(st state.State) {
	metrics.SetHealth(string(st.HealthStatus),
		string(state.HealthUnknown), string(state.HealthHealthy), string(state.HealthCrashed))
	metrics.SetConsecutiveFailures(st.ConsecutiveFailures)
	metrics.SetTotalUptimeHours(st.TotalUptimeHours)
}
