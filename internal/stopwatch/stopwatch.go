// Package stopwatch implements the elapsed-time accumulator entity.
package stopwatch

import (
	"fmt"
	"sync"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/label"
	"git.home.luguber.info/inful/chronodeck/internal/lifecycle"
	"git.home.luguber.info/inful/chronodeck/internal/schedule"
)

const (
	// KindLabel prefixes default stopwatch labels.
	KindLabel = "Stopwatch"
	// DefaultTick is the display refresh interval while running.
	DefaultTick = 10 * time.Millisecond
)

// Observer is the renderer port of a stopwatch. Implementations must not call
// back into the stopwatch synchronously.
type Observer interface {
	DisplayChanged(text string)
	RunStateChanged(running bool)
	LabelChanged(label string)
}

// Option configures a Stopwatch at construction.
type Option func(*Stopwatch)

// WithClock sets the time source. Nil falls back to the real clock.
func WithClock(c clock.Clock) Option {
	return func(s *Stopwatch) { s.clk = c }
}

// WithTickInterval overrides DefaultTick. Non-positive values are ignored.
func WithTickInterval(d time.Duration) Option {
	return func(s *Stopwatch) {
		if d > 0 {
			s.tick = d
		}
	}
}

// Stopwatch accumulates elapsed time across start/stop segments.
type Stopwatch struct {
	id   int
	clk  clock.Clock
	tick time.Duration

	emitMu   sync.Mutex
	observer Observer

	mu      sync.Mutex
	label   string
	elapsed time.Duration // committed total, excludes the running segment
	running bool
	started time.Time // start of the running segment minus committed elapsed
	gen     uint64
	sched   *schedule.Handle
	hook    lifecycle.Hook
}

// New creates a stopped stopwatch at zero.
func New(id int, name string, opts ...Option) *Stopwatch {
	s := &Stopwatch{
		id:    id,
		tick:  DefaultTick,
		label: label.OrDefault(name, KindLabel, id),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clk = clock.OrReal(s.clk)
	return s
}

// ID returns the collection-assigned identifier.
func (s *Stopwatch) ID() int { return s.id }

// Label returns the current display label.
func (s *Stopwatch) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// Running reports whether a segment is being accumulated.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Elapsed returns the live elapsed time: the committed value while stopped,
// now minus the start epoch while running.
func (s *Stopwatch) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked(s.clk.Now())
}

// Display returns the elapsed time as HH:MM:SS.hh.
func (s *Stopwatch) Display() string {
	return Format(s.Elapsed())
}

// SetObserver attaches o, replacing any previous observer. Nil detaches.
func (s *Stopwatch) SetObserver(o Observer) {
	s.emitMu.Lock()
	s.observer = o
	s.emitMu.Unlock()
}

// OnChange registers h to run after every state change, outside the lock.
func (s *Stopwatch) OnChange(h lifecycle.Hook) {
	s.mu.Lock()
	s.hook = h
	s.mu.Unlock()
}

// Start resumes accumulating from the committed elapsed value.
func (s *Stopwatch) Start() {
	s.emitMu.Lock()
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.emitMu.Unlock()
		return
	}
	s.started = s.clk.Now().Add(-s.elapsed)
	s.running = true
	s.gen++
	gen := s.gen
	s.sched = schedule.Every(s.clk, s.tick, func() { s.onTick(gen) })
	hook := s.hook
	s.mu.Unlock()

	s.notify(func(o Observer) { o.RunStateChanged(true) })
	s.emitMu.Unlock()
	hook.Fire(lifecycle.Started)
}

// Stop commits the running segment. Idempotent.
func (s *Stopwatch) Stop() {
	s.emitMu.Lock()
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.emitMu.Unlock()
		return
	}
	s.haltLocked(s.clk.Now())
	text := Format(s.elapsed)
	hook := s.hook
	s.mu.Unlock()

	s.notify(func(o Observer) {
		o.RunStateChanged(false)
		o.DisplayChanged(text)
	})
	s.emitMu.Unlock()
	hook.Fire(lifecycle.Stopped)
}

// Reset stops the stopwatch and clears the elapsed time.
func (s *Stopwatch) Reset() {
	s.emitMu.Lock()
	s.mu.Lock()
	wasRunning := s.running
	if wasRunning {
		s.haltLocked(s.clk.Now())
	}
	s.elapsed = 0
	hook := s.hook
	s.mu.Unlock()

	if wasRunning {
		s.notify(func(o Observer) { o.RunStateChanged(false) })
	}
	s.notify(func(o Observer) { o.DisplayChanged(Format(0)) })
	s.emitMu.Unlock()
	hook.Fire(lifecycle.Reset)
}

// UpdateLabel replaces the label. Blank input is rejected.
func (s *Stopwatch) UpdateLabel(name string) bool {
	name, ok := label.Normalize(name)
	if !ok {
		return false
	}
	s.emitMu.Lock()
	s.mu.Lock()
	s.label = name
	hook := s.hook
	s.mu.Unlock()

	s.notify(func(o Observer) { o.LabelChanged(name) })
	s.emitMu.Unlock()
	hook.Fire(lifecycle.Relabeled)
	return true
}

func (s *Stopwatch) onTick(gen uint64) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.mu.Lock()
	if !s.running || s.gen != gen {
		s.mu.Unlock()
		return
	}
	text := Format(s.elapsedLocked(s.clk.Now()))
	s.mu.Unlock()

	s.notify(func(o Observer) { o.DisplayChanged(text) })
}

func (s *Stopwatch) elapsedLocked(now time.Time) time.Duration {
	if !s.running {
		return s.elapsed
	}
	return max(0, now.Sub(s.started))
}

func (s *Stopwatch) haltLocked(now time.Time) {
	s.elapsed = s.elapsedLocked(now)
	s.running = false
	s.gen++
	s.sched.Cancel()
	s.sched = nil
}

func (s *Stopwatch) notify(fn func(Observer)) {
	if s.observer != nil {
		fn(s.observer)
	}
}

// Format renders d as HH:MM:SS.hh with hundredths truncated.
func Format(d time.Duration) string {
	ms := max(0, d.Milliseconds())
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	sec := (ms % 60_000) / 1000
	hundredths := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, sec, hundredths)
}
