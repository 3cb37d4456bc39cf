// Package app is the composition root: it wires configuration, storage, the
// activity log, metrics and both entity collections, and owns the autosave
// job and the shutdown flush.
package app

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/collection"
	"git.home.luguber.info/inful/chronodeck/internal/config"
	"git.home.luguber.info/inful/chronodeck/internal/eventstore"
	"git.home.luguber.info/inful/chronodeck/internal/logfields"
	"git.home.luguber.info/inful/chronodeck/internal/metrics"
	"git.home.luguber.info/inful/chronodeck/internal/stopwatch"
	"git.home.luguber.info/inful/chronodeck/internal/storage"
	"git.home.luguber.info/inful/chronodeck/internal/timer"
)

const autosaveJobName = "autosave"

// Option customizes an App.
type Option func(*App)

// WithClock replaces the wall clock (tests).
func WithClock(c clock.Clock) Option { return func(a *App) { a.clk = c } }

// WithLogger sets the logger used by the app and its collections.
func WithLogger(l *slog.Logger) Option { return func(a *App) { a.logger = l } }

// WithStore injects an already open store instead of opening cfg.Storage.
func WithStore(s storage.Store) Option { return func(a *App) { a.store = s } }

// WithHistory injects the activity log instead of opening cfg.History.
func WithHistory(h eventstore.Store) Option { return func(a *App) { a.history = h } }

// WithLevelVar lets config reloads change the log level at runtime.
func WithLevelVar(lv *slog.LevelVar) Option { return func(a *App) { a.levelVar = lv } }

// App owns the timer and stopwatch collections and their persistence.
type App struct {
	cfg      *config.Config
	clk      clock.Clock
	logger   *slog.Logger
	levelVar *slog.LevelVar

	store    storage.Store
	history  eventstore.Store
	recorder metrics.Recorder
	registry *prom.Registry

	timers      *collection.Timers
	stopwatches *collection.Stopwatches

	scheduler  *Scheduler
	autosaveID uuid.UUID

	mu      sync.Mutex
	started bool
	stopped bool
}

// New wires an App from cfg. Nothing runs until Start.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	a.clk = clock.OrReal(a.clk)
	if a.logger == nil {
		a.logger = slog.Default()
	}

	if a.store == nil {
		st, err := openStore(cfg)
		if err != nil {
			return nil, err
		}
		a.store = st
		a.logger.Debug("Storage opened",
			logfields.StorageDriver(string(cfg.Storage.Driver)),
			logfields.Path(cfg.Storage.Path))
	}

	if a.history == nil && cfg.History.IsEnabled() {
		a.history = a.openHistory()
	}

	a.recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Enabled {
		pr := metrics.NewPrometheusRecorder(nil)
		a.recorder = pr
		a.registry = pr.Registry()
	}

	deps := collection.Deps{
		Store:    a.store,
		Clock:    a.clk,
		Logger:   a.logger,
		Recorder: a.recorder,
		History:  a.history,
	}
	defaults := timer.Duration{
		Hours:   derefInt(cfg.Timer.DefaultHours),
		Minutes: derefInt(cfg.Timer.DefaultMinutes),
		Seconds: derefInt(cfg.Timer.DefaultSeconds),
	}
	a.timers = collection.NewTimers(deps, defaults,
		timer.WithClock(a.clk), timer.WithTickInterval(cfg.Timer.Tick.Std()))
	a.stopwatches = collection.NewStopwatches(deps, cfg.Stopwatch.CompensateDrift,
		stopwatch.WithClock(a.clk), stopwatch.WithTickInterval(cfg.Stopwatch.Tick.Std()))

	sched, err := NewScheduler(a.clk)
	if err != nil {
		_ = a.closeStores()
		return nil, err
	}
	a.scheduler = sched
	return a, nil
}

// openHistory opens the activity log. Failing to open it disables history
// rather than the app.
func (a *App) openHistory() eventstore.Store {
	if a.cfg.Storage.Driver == config.StorageMemory {
		return eventstore.NewMemoryStore()
	}
	h, err := eventstore.NewSQLiteStore(a.cfg.History.Path)
	if err != nil {
		a.logger.Warn("Activity log unavailable", logfields.Path(a.cfg.History.Path), logfields.Error(err))
		return nil
	}
	return h
}

// Start restores both collections, resuming entities that were running,
// and starts the autosave job.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}

	a.timers.Restore(ctx)
	a.stopwatches.Restore(ctx)

	id, err := a.scheduler.ScheduleEvery(autosaveJobName, a.cfg.Autosave.Interval.Std(), a.autosave)
	if err != nil {
		return err
	}
	a.autosaveID = id
	a.scheduler.Start()
	a.started = true
	a.logger.Info("chronodeck started",
		slog.Int("timers", a.timers.Len()),
		slog.Int("stopwatches", a.stopwatches.Len()))
	return nil
}

// Stop halts autosave, flushes both collections and closes the stores.
// Entities that were running stay running in the persisted state.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return nil
	}
	a.stopped = true

	var errs []error
	if err := a.scheduler.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := a.timers.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.stopwatches.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.closeStores(); err != nil {
		errs = append(errs, err)
	}
	a.logger.Info("chronodeck stopped")
	return stdErrors.Join(errs...)
}

func (a *App) closeStores() error {
	var errs []error
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close activity log: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return stdErrors.Join(errs...)
}

// PersistAll persists both collections.
func (a *App) PersistAll(ctx context.Context) error {
	return stdErrors.Join(a.timers.Persist(ctx), a.stopwatches.Persist(ctx))
}

func (a *App) autosave() {
	start := time.Now()
	err := a.PersistAll(context.Background())
	a.logger.Debug("Autosave",
		logfields.JobName(autosaveJobName),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
		logfields.Error(err))
}

// SetAutosaveInterval reschedules the autosave job.
func (a *App) SetAutosaveInterval(d time.Duration) error {
	if d < config.MinAutosaveInterval {
		return fmt.Errorf("autosave interval %s below minimum %s", d, config.MinAutosaveInterval)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started || a.stopped {
		a.cfg.Autosave.Interval = config.Duration(d)
		return nil
	}
	if err := a.scheduler.Reschedule(a.autosaveID, autosaveJobName, d, a.autosave); err != nil {
		return err
	}
	a.cfg.Autosave.Interval = config.Duration(d)
	return nil
}

// ApplyConfig applies the reloadable parts of a new configuration: the
// autosave interval and the log level. Other changes need a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg.Autosave.Interval.Std() != a.AutosaveInterval() {
		if err := a.SetAutosaveInterval(cfg.Autosave.Interval.Std()); err != nil {
			a.logger.Warn("Autosave interval not applied", logfields.Error(err))
		}
	}
	if a.levelVar != nil {
		a.levelVar.Set(cfg.Logging.Level.SlogLevel())
	}
	if cfg.Storage != a.cfg.Storage || cfg.History.Path != a.cfg.History.Path {
		a.logger.Warn("Storage changes take effect after restart")
	}
}

// Clock returns the clock shared by every entity.
func (a *App) Clock() clock.Clock { return a.clk }

// Timers returns the timer collection.
func (a *App) Timers() *collection.Timers { return a.timers }

// Stopwatches returns the stopwatch collection.
func (a *App) Stopwatches() *collection.Stopwatches { return a.stopwatches }

// History returns the activity log, or nil when disabled.
func (a *App) History() eventstore.Store { return a.history }

// MetricsRegistry returns the Prometheus registry, or nil when metrics are disabled.
func (a *App) MetricsRegistry() *prom.Registry { return a.registry }

// AutosaveInterval returns the current autosave interval.
func (a *App) AutosaveInterval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.Autosave.Interval.Std()
}

// ResetState deletes every persisted collection key from the configured store.
func ResetState(ctx context.Context, cfg *config.Config) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	return st.Delete(ctx,
		storage.KeyTimers, storage.KeyTimerCounter,
		storage.KeyStopwatches, storage.KeyStopwatchCounter)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	return storage.Open(string(cfg.Storage.Driver), cfg.Storage.Path,
		storage.WithRetryPolicy(cfg.Storage.Retry.Policy()))
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
