// Package timer implements the countdown entity.
//
// A Timer counts its remaining seconds down once per tick while running and
// raises Completed when it reaches zero. All state lives behind the timer's
// own mutex; notifications are delivered to the Observer in the order the
// transitions happened, outside the state lock.
package timer

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/label"
	"git.home.luguber.info/inful/chronodeck/internal/lifecycle"
	"git.home.luguber.info/inful/chronodeck/internal/schedule"
)

// KindLabel prefixes default timer labels.
const KindLabel = "Timer"

// DefaultTick is the countdown interval.
const DefaultTick = time.Second

// Observer is the renderer port of a timer. Implementations must not call back
// into the timer synchronously.
type Observer interface {
	DisplayChanged(text string)
	RunStateChanged(running bool)
	LabelChanged(label string)
	Completed()
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock sets the clock used for ticks and snapshots.
func WithClock(c clock.Clock) Option {
	return func(t *Timer) { t.clk = c }
}

// WithTickInterval overrides DefaultTick. Non-positive values are ignored.
func WithTickInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.tick = d
		}
	}
}

// Timer is a countdown with an editable label.
type Timer struct {
	id   int
	clk  clock.Clock
	tick time.Duration

	// emitMu orders notifications and observer swaps. Always taken before mu.
	emitMu   sync.Mutex
	observer Observer

	mu         sync.Mutex
	label      string
	configured Duration
	remaining  int
	running    bool
	completed  bool
	gen        uint64
	sched      *schedule.Handle
	hook       lifecycle.Hook
}

// New creates an idle timer. A blank label falls back to "Timer <id>".
func New(id int, name string, d Duration, opts ...Option) *Timer {
	d = d.Normalize()
	t := &Timer{
		id:         id,
		tick:       DefaultTick,
		label:      label.OrDefault(name, KindLabel, id),
		configured: d,
		remaining:  d.TotalSeconds(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.clk = clock.OrReal(t.clk)
	return t
}

// ID returns the collection-assigned identifier.
func (t *Timer) ID() int { return t.id }

// Label returns the current label.
func (t *Timer) Label() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.label
}

// Configured returns the configured duration.
func (t *Timer) Configured() Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.configured
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether the countdown is active.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// IsCompleted reports whether the countdown reached zero.
func (t *Timer) IsCompleted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Display returns the formatted remaining time.
func (t *Timer) Display() string {
	return Format(t.Remaining())
}

// SetObserver replaces the observer; nil detaches. Once SetObserver returns
// the previous observer receives no further calls.
func (t *Timer) SetObserver(o Observer) {
	t.emitMu.Lock()
	t.observer = o
	t.emitMu.Unlock()
}

// OnChange installs the owner's lifecycle hook; nil removes it.
func (t *Timer) OnChange(h lifecycle.Hook) {
	t.mu.Lock()
	t.hook = h
	t.mu.Unlock()
}

// Start begins counting down. It does nothing when the timer is already
// running or has no time left.
func (t *Timer) Start() {
	t.emitMu.Lock()
	t.mu.Lock()
	if t.running || t.remaining == 0 {
		t.mu.Unlock()
		t.emitMu.Unlock()
		return
	}
	t.running = true
	t.gen++
	gen := t.gen
	t.sched = schedule.Every(t.clk, t.tick, func() { t.onTick(gen) })
	hook := t.hook
	t.mu.Unlock()

	t.notify(func(o Observer) { o.RunStateChanged(true) })
	t.emitMu.Unlock()
	hook.Fire(lifecycle.Started)
}

// Stop pauses the countdown. Idempotent.
func (t *Timer) Stop() {
	t.emitMu.Lock()
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		t.emitMu.Unlock()
		return
	}
	t.haltLocked()
	hook := t.hook
	t.mu.Unlock()

	t.notify(func(o Observer) { o.RunStateChanged(false) })
	t.emitMu.Unlock()
	hook.Fire(lifecycle.Stopped)
}

// Reset stops the timer and restores the configured duration.
func (t *Timer) Reset() {
	t.emitMu.Lock()
	t.mu.Lock()
	wasRunning := t.running
	if wasRunning {
		t.haltLocked()
	}
	t.remaining = t.configured.TotalSeconds()
	t.completed = false
	text := Format(t.remaining)
	hook := t.hook
	t.mu.Unlock()

	if wasRunning {
		t.notify(func(o Observer) { o.RunStateChanged(false) })
	}
	t.notify(func(o Observer) { o.DisplayChanged(text) })
	t.emitMu.Unlock()
	hook.Fire(lifecycle.Reset)
}

// Reconfigure sets a new duration and resets the countdown to it. Negative
// fields become zero. It is rejected while the timer is running.
func (t *Timer) Reconfigure(d Duration) bool {
	t.emitMu.Lock()
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.emitMu.Unlock()
		return false
	}
	t.configured = d.Normalize()
	t.remaining = t.configured.TotalSeconds()
	t.completed = false
	text := Format(t.remaining)
	hook := t.hook
	t.mu.Unlock()

	t.notify(func(o Observer) { o.DisplayChanged(text) })
	t.emitMu.Unlock()
	hook.Fire(lifecycle.Reconfigured)
	return true
}

// ReconfigureText is Reconfigure for raw field input. See ParseField.
func (t *Timer) ReconfigureText(hours, minutes, seconds string) bool {
	return t.Reconfigure(ParseDuration(hours, minutes, seconds))
}

// UpdateLabel replaces the label. Blank input is rejected and the previous
// label kept.
func (t *Timer) UpdateLabel(name string) bool {
	name, ok := label.Normalize(name)
	if !ok {
		return false
	}
	t.emitMu.Lock()
	t.mu.Lock()
	t.label = name
	hook := t.hook
	t.mu.Unlock()

	t.notify(func(o Observer) { o.LabelChanged(name) })
	t.emitMu.Unlock()
	hook.Fire(lifecycle.Relabeled)
	return true
}

// onTick runs on the schedule goroutine. Ticks from a schedule that has since
// been stopped or replaced are discarded by the generation check.
func (t *Timer) onTick(gen uint64) {
	t.emitMu.Lock()
	t.mu.Lock()
	if !t.running || t.gen != gen {
		t.mu.Unlock()
		t.emitMu.Unlock()
		return
	}
	t.remaining--
	done := t.remaining <= 0
	if done {
		t.remaining = 0
		t.completed = true
		t.haltLocked()
	}
	text := Format(t.remaining)
	hook := t.hook
	t.mu.Unlock()

	t.notify(func(o Observer) { o.DisplayChanged(text) })
	if done {
		t.notify(func(o Observer) {
			o.RunStateChanged(false)
			o.Completed()
		})
	}
	t.emitMu.Unlock()
	if done {
		hook.Fire(lifecycle.Completed)
	}
}

// haltLocked cancels the schedule and invalidates in-flight ticks. Caller holds mu.
func (t *Timer) haltLocked() {
	t.running = false
	t.gen++
	t.sched.Cancel()
	t.sched = nil
}

// notify delivers to the current observer. Caller holds emitMu.
func (t *Timer) notify(fn func(Observer)) {
	if t.observer != nil {
		fn(t.observer)
	}
}
