package interactive

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/chronodeck/internal/app"
	"git.home.luguber.info/inful/chronodeck/internal/config"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// take returns and clears everything written so far.
func (b *syncBuffer) take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

func newTestShell(t *testing.T, mutate ...func(*config.Config)) (*Shell, *app.App, *syncBuffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageMemory
	for _, m := range mutate {
		m(cfg)
	}
	a, err := app.New(cfg, app.WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)

	out := &syncBuffer{}
	sh := newWithWriter(out)
	sh.Attach(a)
	require.NoError(t, a.Start(t.Context()))
	t.Cleanup(func() { _ = a.Stop(t.Context()) })
	out.take()
	return sh, a, out
}

func TestAddTimerWithLabelAndDuration(t *testing.T) {
	sh, a, out := newTestShell(t)
	ctx := t.Context()

	assert.False(t, sh.Exec(ctx, "add-timer Soft boiled eggs 0 6 30"))
	assert.Contains(t, out.take(), "Added timer 2 (Soft boiled eggs, 06:30)")

	tm, ok := a.Timers().Get(2)
	require.True(t, ok)
	assert.Equal(t, 390, tm.Remaining())

	sh.Exec(ctx, "add-timer")
	tm3, ok := a.Timers().Get(3)
	require.True(t, ok)
	assert.Equal(t, "Timer 3", tm3.Label())
	assert.Equal(t, 300, tm3.Remaining())

	sh.Exec(ctx, "add-timer Pizza")
	tm4, _ := a.Timers().Get(4)
	assert.Equal(t, "Pizza", tm4.Label())
	assert.Equal(t, 300, tm4.Remaining())
}

func TestControlCommands(t *testing.T) {
	sh, a, out := newTestShell(t)
	ctx := t.Context()

	sh.Exec(ctx, "start t 1")
	tm, _ := a.Timers().Get(1)
	assert.True(t, tm.Running())
	assert.Contains(t, out.take(), "[timer 1] running")

	sh.Exec(ctx, "set 1 0 1 0")
	assert.Contains(t, out.take(), "running; stop it first")

	sh.Exec(ctx, "stop t 1")
	sh.Exec(ctx, "set 1 0 1 0")
	assert.Contains(t, out.take(), "Timer 1 set to 01:00")
	assert.Equal(t, 60, tm.Remaining())

	sh.Exec(ctx, "label s 1 Morning run")
	sw, _ := a.Stopwatches().Get(1)
	assert.Equal(t, "Morning run", sw.Label())

	sh.Exec(ctx, "label s 1    ")
	assert.Contains(t, out.take(), "Usage: label")

	sh.Exec(ctx, "delete s 1")
	assert.Contains(t, out.take(), "Deleted stopwatch 1")
	assert.Equal(t, 0, a.Stopwatches().Len())
}

func TestLookupErrors(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := t.Context()

	sh.Exec(ctx, "start x 1")
	assert.Contains(t, out.take(), "Unknown kind: x")

	sh.Exec(ctx, "start t one")
	assert.Contains(t, out.take(), "Invalid id: one")

	sh.Exec(ctx, "reset t 42")
	assert.Contains(t, out.take(), "No timer with id 42")

	sh.Exec(ctx, "start t")
	assert.Contains(t, out.take(), "Usage: start <t|s> <id>")

	sh.Exec(ctx, "frobnicate")
	assert.Contains(t, out.take(), "Unknown command: frobnicate")
}

func TestListings(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := t.Context()

	sh.Exec(ctx, "add-stopwatch Lap")
	out.take()

	sh.Exec(ctx, "timers")
	assert.Contains(t, out.take(), "Timer 1")

	sh.Exec(ctx, "stopwatches")
	s := out.take()
	assert.Contains(t, s, "Stopwatches (2)")
	assert.Contains(t, s, "Lap")
}

func TestHistoryIncludesDeletedEntities(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := t.Context()

	sh.Exec(ctx, "add-timer Tea")
	sh.Exec(ctx, "delete t 2")
	out.take()

	sh.Exec(ctx, "history t 2")
	s := out.take()
	assert.Contains(t, s, "created")
	assert.Contains(t, s, "deleted")

	sh.Exec(ctx, "history")
	assert.NotContains(t, out.take(), "No activity")
}

func TestHistoryDisabled(t *testing.T) {
	sh, _, out := newTestShell(t, func(c *config.Config) {
		off := false
		c.History.Enabled = &off
	})
	sh.Exec(t.Context(), "history")
	assert.Contains(t, out.take(), "Activity log is disabled")
}

func TestStats(t *testing.T) {
	sh, _, out := newTestShell(t)
	sh.Exec(t.Context(), "stats")
	assert.Contains(t, out.take(), "Metrics are disabled")

	sh, _, out = newTestShell(t, func(c *config.Config) { c.Metrics.Enabled = true })
	sh.Exec(t.Context(), "stats")
	assert.Contains(t, out.take(), "chronodeck_entities")
}

func TestWatchToggle(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := t.Context()

	sh.Exec(ctx, "watch on")
	assert.Contains(t, out.take(), "Watch is on")
	assert.True(t, sh.renderer.ShowTicks())

	sh.Exec(ctx, "watch sideways")
	assert.Contains(t, out.take(), "Usage: watch on|off")

	sh.Exec(ctx, "watch off")
	assert.False(t, sh.renderer.ShowTicks())
}

func TestQuitAndHelp(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := t.Context()

	assert.False(t, sh.Exec(ctx, "   "))
	assert.False(t, sh.Exec(ctx, "help"))
	assert.True(t, strings.Contains(out.take(), "add-timer [label] [h m s]"))
	assert.True(t, sh.Exec(ctx, "quit"))
	assert.True(t, sh.Exec(ctx, "EXIT"))
}

func TestHugeDurationIsCapped(t *testing.T) {
	sh, a, _ := newTestShell(t)
	ctx := t.Context()

	sh.Exec(ctx, "set 1 3000000000000000 0 0")
	sh.Exec(ctx, "add-timer x 3000000000000000 0 0")
	for _, tm := range a.Timers().List() {
		assert.Positive(t, tm.Remaining(), "timer %d", tm.ID())
	}
}
