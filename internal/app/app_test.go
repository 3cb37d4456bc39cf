package app

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/config"
	"git.home.luguber.info/inful/chronodeck/internal/eventstore"
	"git.home.luguber.info/inful/chronodeck/internal/stopwatch"
	"git.home.luguber.info/inful/chronodeck/internal/storage"
	"git.home.luguber.info/inful/chronodeck/internal/timer"
)

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageMemory
	cfg.Storage.Path = ""
	return cfg
}

func TestStartRestoresDefaults(t *testing.T) {
	fc := clockwork.NewFakeClock()
	a, err := New(memoryConfig(), WithClock(fc))
	require.NoError(t, err)
	require.NoError(t, a.Start(t.Context()))
	defer func() { _ = a.Stop(t.Context()) }()

	require.Equal(t, 1, a.Timers().Len())
	require.Equal(t, 1, a.Stopwatches().Len())
	tm := a.Timers().List()[0]
	assert.Equal(t, "Timer 1", tm.Label())
	assert.Equal(t, 300, tm.Remaining())
	assert.Equal(t, "Stopwatch 1", a.Stopwatches().List()[0].Label())
	assert.Nil(t, a.MetricsRegistry())
}

func TestAutosavePersistsLiveStopwatch(t *testing.T) {
	fc := clockwork.NewFakeClock()
	st := storage.NewMemoryStore()
	a, err := New(memoryConfig(), WithClock(fc), WithStore(st))
	require.NoError(t, err)
	ctx := t.Context()
	require.NoError(t, a.Start(ctx))
	defer func() { _ = a.Stop(ctx) }()

	sw := a.Stopwatches().List()[0]
	sw.Start()

	persistedElapsed := func() int64 {
		raw, ok, err := st.Get(ctx, storage.KeyStopwatches)
		if err != nil || !ok {
			return 0
		}
		var snaps []stopwatch.Snapshot
		if json.Unmarshal(raw, &snaps) != nil || len(snaps) == 0 {
			return 0
		}
		return snaps[0].ElapsedTime
	}
	require.Equal(t, int64(0), persistedElapsed(), "start persisted the zero value")

	// Only the autosave job writes while nothing else changes.
	require.Eventually(t, func() bool {
		fc.Advance(time.Second)
		return persistedElapsed() > 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestStopKeepsRunningStateForNextStart(t *testing.T) {
	base := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(base)
	st := storage.NewMemoryStore()
	history := eventstore.NewMemoryStore()
	ctx := t.Context()

	first, err := New(memoryConfig(), WithClock(fc), WithStore(st), WithHistory(history))
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	tm, err := first.Timers().Add(ctx, "Tea", timer.Duration{Minutes: 2})
	require.NoError(t, err)
	tm.Start()
	require.NoError(t, first.Stop(ctx))
	require.NoError(t, first.Stop(ctx), "idempotent")

	fc.Advance(45 * time.Second)

	// The store was closed by Stop; MemoryStore keeps its data regardless.
	second, err := New(memoryConfig(), WithClock(fc), WithStore(st))
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))
	defer func() { _ = second.Stop(ctx) }()

	restored, ok := second.Timers().Get(tm.ID())
	require.True(t, ok)
	assert.True(t, restored.Running())
	assert.Equal(t, 120-45, restored.Remaining())

	events, err := history.ByEntity(ctx, "timer", tm.ID())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "created", events[0].Type)
	assert.Equal(t, "started", events[1].Type)
}

func TestSQLiteBackedApp(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(dir, "deck.db")
	cfg.History.Path = filepath.Join(dir, "history.db")
	cfg.Metrics.Enabled = true
	ctx := t.Context()

	a, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(ctx))
	_, err = a.Timers().Add(ctx, "Laundry", timer.Duration{Minutes: 40})
	require.NoError(t, err)
	require.NotNil(t, a.MetricsRegistry())
	require.NoError(t, a.Stop(ctx))

	b, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, b.Start(ctx))
	defer func() { _ = b.Stop(ctx) }()
	var labels []string
	for _, tm := range b.Timers().List() {
		labels = append(labels, tm.Label())
	}
	assert.Equal(t, []string{"Timer 1", "Laundry"}, labels)

	recent, err := b.History().Recent(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, recent)
}

func TestSetAutosaveInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	a, err := New(memoryConfig(), WithClock(fc))
	require.NoError(t, err)
	require.NoError(t, a.Start(t.Context()))
	defer func() { _ = a.Stop(t.Context()) }()

	require.NoError(t, a.SetAutosaveInterval(30*time.Second))
	assert.Equal(t, 30*time.Second, a.AutosaveInterval())
	assert.Error(t, a.SetAutosaveInterval(time.Millisecond))

	updated := memoryConfig()
	updated.Autosave.Interval = config.Duration(10 * time.Second)
	a.ApplyConfig(updated)
	assert.Equal(t, 10*time.Second, a.AutosaveInterval())
}

func TestResetState(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageFile
	cfg.Storage.Path = filepath.Join(dir, "deck.json")
	ctx := t.Context()

	st, err := storage.Open(string(cfg.Storage.Driver), cfg.Storage.Path)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, storage.KeyTimers, []byte(fmt.Sprintf(`[{"id":1,"lastSaved":%d}]`, clock.EpochMillis(time.Now())))))
	require.NoError(t, st.Close())

	require.NoError(t, ResetState(ctx, cfg))

	st, err = storage.Open(string(cfg.Storage.Driver), cfg.Storage.Path)
	require.NoError(t, err)
	_, ok, err := st.Get(ctx, storage.KeyTimers)
	require.NoError(t, err)
	assert.False(t, ok)
}
