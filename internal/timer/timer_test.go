package timer

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/chronodeck/internal/lifecycle"
)

// recordingObserver funnels notifications into a channel so tests can wait
// for ticks delivered on the schedule goroutine.
type recordingObserver struct {
	ch chan string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{ch: make(chan string, 64)}
}

func (r *recordingObserver) DisplayChanged(text string)   { r.ch <- "display " + text }
func (r *recordingObserver) RunStateChanged(running bool) { r.ch <- fmt.Sprintf("running %v", running) }
func (r *recordingObserver) LabelChanged(l string)        { r.ch <- "label " + l }
func (r *recordingObserver) Completed()                   { r.ch <- "completed" }

func (r *recordingObserver) next(t *testing.T) string {
	t.Helper()
	select {
	case e := <-r.ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return ""
	}
}

func (r *recordingObserver) quiet(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.ch:
		t.Fatalf("unexpected notification %q", e)
	case <-time.After(50 * time.Millisecond):
	}
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) DisplayChanged(text string)   { m.Called(text) }
func (m *mockObserver) RunStateChanged(running bool) { m.Called(running) }
func (m *mockObserver) LabelChanged(l string)        { m.Called(l) }
func (m *mockObserver) Completed()                   { m.Called() }

type hookLog struct {
	mu      sync.Mutex
	changes []lifecycle.Change
}

func (h *hookLog) hook(c lifecycle.Change) {
	h.mu.Lock()
	h.changes = append(h.changes, c)
	h.mu.Unlock()
}

func (h *hookLog) snapshot() []lifecycle.Change {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]lifecycle.Change(nil), h.changes...)
}

func TestNewDefaults(t *testing.T) {
	tm := New(1, "  ", DefaultDuration)
	assert.Equal(t, 1, tm.ID())
	assert.Equal(t, "Timer 1", tm.Label())
	assert.Equal(t, 300, tm.Remaining())
	assert.Equal(t, "05:00", tm.Display())
	assert.False(t, tm.Running())
	assert.False(t, tm.IsCompleted())
}

func TestNewNormalizesNegativeFields(t *testing.T) {
	tm := New(2, "x", Duration{Hours: -1, Minutes: 2, Seconds: -5})
	assert.Equal(t, Duration{Minutes: 2}, tm.Configured())
	assert.Equal(t, 120, tm.Remaining())
}

func TestCountdownCompletes(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := New(1, "Egg", Duration{Seconds: 2}, WithClock(fc))
	obs := newRecordingObserver()
	tm.SetObserver(obs)
	hooks := &hookLog{}
	tm.OnChange(hooks.hook)

	tm.Start()
	require.Equal(t, "running true", obs.next(t))

	fc.Advance(time.Second)
	require.Equal(t, "display 00:01", obs.next(t))

	fc.Advance(time.Second)
	require.Equal(t, "display 00:00", obs.next(t))
	require.Equal(t, "running false", obs.next(t))
	require.Equal(t, "completed", obs.next(t))

	assert.False(t, tm.Running())
	assert.True(t, tm.IsCompleted())
	assert.Equal(t, 0, tm.Remaining())

	// Completed timers stay at zero and cannot be restarted.
	fc.Advance(3 * time.Second)
	tm.Start()
	obs.quiet(t)
	assert.Equal(t, 0, tm.Remaining())

	assert.Equal(t, []lifecycle.Change{lifecycle.Started, lifecycle.Completed}, hooks.snapshot())
}

func TestStopCancelsTicks(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := New(1, "Tea", Duration{Minutes: 1}, WithClock(fc))
	obs := newRecordingObserver()
	tm.SetObserver(obs)

	tm.Start()
	require.Equal(t, "running true", obs.next(t))
	fc.Advance(time.Second)
	require.Equal(t, "display 00:59", obs.next(t))

	tm.Stop()
	require.Equal(t, "running false", obs.next(t))
	tm.Stop() // idempotent
	fc.Advance(5 * time.Second)
	obs.quiet(t)
	assert.Equal(t, 59, tm.Remaining())

	// Resuming continues from the paused value.
	tm.Start()
	require.Equal(t, "running true", obs.next(t))
	fc.Advance(time.Second)
	require.Equal(t, "display 00:58", obs.next(t))
	tm.Stop()
}

func TestStaleTickIsDiscarded(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := New(1, "", Duration{Seconds: 10}, WithClock(fc))
	tm.Start()
	tm.mu.Lock()
	stale := tm.gen
	tm.mu.Unlock()
	tm.Stop()
	tm.Start()

	tm.onTick(stale)
	assert.Equal(t, 10, tm.Remaining())
	tm.Stop()
}

func TestResetRestoresConfigured(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := New(1, "", Duration{Seconds: 1}, WithClock(fc))
	obs := newRecordingObserver()
	tm.SetObserver(obs)

	tm.Start()
	require.Equal(t, "running true", obs.next(t))
	fc.Advance(time.Second)
	require.Equal(t, "display 00:00", obs.next(t))
	require.Equal(t, "running false", obs.next(t))
	require.Equal(t, "completed", obs.next(t))

	tm.Reset()
	require.Equal(t, "display 00:01", obs.next(t))
	assert.Equal(t, 1, tm.Remaining())
	assert.False(t, tm.IsCompleted())
}

func TestResetWhileRunningStops(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := New(1, "", Duration{Minutes: 2}, WithClock(fc))
	obs := newRecordingObserver()
	tm.SetObserver(obs)

	tm.Start()
	require.Equal(t, "running true", obs.next(t))
	tm.Reset()
	require.Equal(t, "running false", obs.next(t))
	require.Equal(t, "display 02:00", obs.next(t))
	fc.Advance(time.Second)
	obs.quiet(t)
}

func TestReconfigure(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := New(1, "", DefaultDuration, WithClock(fc))

	require.True(t, tm.Reconfigure(Duration{Hours: 1, Minutes: 1, Seconds: 1}))
	assert.Equal(t, 3661, tm.Remaining())
	assert.Equal(t, "01:01:01", tm.Display())

	tm.Start()
	assert.False(t, tm.Reconfigure(Duration{Seconds: 5}), "rejected while running")
	assert.Equal(t, 3661, tm.Remaining())
	tm.Stop()

	require.True(t, tm.ReconfigureText("0", "abc", "45s"))
	assert.Equal(t, Duration{Seconds: 45}, tm.Configured())
	assert.Equal(t, 45, tm.Remaining())
}

func TestUpdateLabel(t *testing.T) {
	tm := New(1, "Tea", DefaultDuration)
	obs := &mockObserver{}
	obs.On("LabelChanged", "Soup").Once()
	tm.SetObserver(obs)

	assert.False(t, tm.UpdateLabel("   "))
	assert.Equal(t, "Tea", tm.Label())

	assert.True(t, tm.UpdateLabel("  Soup "))
	assert.Equal(t, "Soup", tm.Label())
	obs.AssertExpectations(t)
}

func TestDetachedObserverReceivesNothing(t *testing.T) {
	tm := New(1, "Tea", DefaultDuration)
	obs := &mockObserver{}
	tm.SetObserver(obs)
	tm.SetObserver(nil)

	tm.UpdateLabel("Soup")
	tm.Reset()
	obs.AssertNotCalled(t, "LabelChanged", mock.Anything)
	obs.AssertNotCalled(t, "DisplayChanged", mock.Anything)
}

func TestReconfigureHugeInputStaysNonNegative(t *testing.T) {
	tm := New(1, "", DefaultDuration)
	require.True(t, tm.ReconfigureText("3000000000000000", "0", "0"))
	assert.Positive(t, tm.Remaining())

	s := tm.Snapshot(time.Now())
	require.NoError(t, s.Validate())
	restored, _, err := Restore(s, time.Now())
	require.NoError(t, err)
	assert.Equal(t, tm.Remaining(), restored.Remaining())
}

func TestStartZeroDurationIsNoop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := New(1, "", Duration{}, WithClock(fc))
	obs := &mockObserver{}
	tm.SetObserver(obs)
	var hooks hookLog
	tm.OnChange(hooks.hook)

	tm.Start()
	assert.False(t, tm.Running())
	assert.False(t, tm.IsCompleted())
	assert.Empty(t, hooks.snapshot())

	fc.Advance(3 * time.Second)
	assert.Equal(t, 0, tm.Remaining())
	obs.AssertNotCalled(t, "RunStateChanged", mock.Anything)
	obs.AssertNotCalled(t, "DisplayChanged", mock.Anything)
}
