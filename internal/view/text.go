// Package view renders timer and stopwatch notifications as text lines.
package view

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/collection"
	"git.home.luguber.info/inful/chronodeck/internal/stopwatch"
	"git.home.luguber.info/inful/chronodeck/internal/timer"
)

// StopwatchThrottle is the minimum gap between two stopwatch display lines.
const StopwatchThrottle = time.Second

// TextRenderer writes one line per notification, e.g. "[timer 3] 04:59".
// Display updates are off by default; run-state, label and alarm lines are
// always written.
type TextRenderer struct {
	mu        sync.Mutex
	w         io.Writer
	clk       clock.Clock
	showTicks atomic.Bool
}

// NewTextRenderer returns a renderer writing to w.
func NewTextRenderer(w io.Writer, clk clock.Clock) *TextRenderer {
	return &TextRenderer{w: w, clk: clock.OrReal(clk)}
}

// SetShowTicks toggles per-tick display lines.
func (r *TextRenderer) SetShowTicks(on bool) { r.showTicks.Store(on) }

// ShowTicks reports whether per-tick display lines are written.
func (r *TextRenderer) ShowTicks() bool { return r.showTicks.Load() }

func (r *TextRenderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

// Timers adapts the renderer to the timer collection.
func (r *TextRenderer) Timers() collection.Renderer[*timer.Timer] { return timerRenderer{r} }

// Stopwatches adapts the renderer to the stopwatch collection.
func (r *TextRenderer) Stopwatches() collection.Renderer[*stopwatch.Stopwatch] {
	return stopwatchRenderer{r}
}

type timerRenderer struct{ r *TextRenderer }

func (tr timerRenderer) Attach(t *timer.Timer) {
	t.SetObserver(&timerLine{r: tr.r, id: t.ID(), label: t.Label()})
}

func (tr timerRenderer) Detach(t *timer.Timer) { t.SetObserver(nil) }

// timerLine is the observer of one timer. Its methods are serialized by the
// timer, so label needs no lock of its own.
type timerLine struct {
	r     *TextRenderer
	id    int
	label string
}

func (l *timerLine) DisplayChanged(text string) {
	if l.r.ShowTicks() {
		l.r.printf("[timer %d] %s", l.id, text)
	}
}

func (l *timerLine) RunStateChanged(running bool) {
	l.r.printf("[timer %d] %s", l.id, runState(running))
}

func (l *timerLine) LabelChanged(label string) {
	l.label = label
	l.r.printf("[timer %d] label: %s", l.id, label)
}

func (l *timerLine) Completed() {
	l.r.printf("[timer %d] ALARM %s", l.id, l.label)
}

type stopwatchRenderer struct{ r *TextRenderer }

func (sr stopwatchRenderer) Attach(s *stopwatch.Stopwatch) {
	s.SetObserver(&stopwatchLine{r: sr.r, id: s.ID()})
}

func (sr stopwatchRenderer) Detach(s *stopwatch.Stopwatch) { s.SetObserver(nil) }

type stopwatchLine struct {
	r    *TextRenderer
	id   int
	last time.Time
}

// DisplayChanged fires every stopwatch tick; lines are throttled so a 10ms
// tick does not flood the terminal.
func (l *stopwatchLine) DisplayChanged(text string) {
	if !l.r.ShowTicks() {
		return
	}
	now := l.r.clk.Now()
	if !l.last.IsZero() && now.Sub(l.last) < StopwatchThrottle {
		return
	}
	l.last = now
	l.r.printf("[stopwatch %d] %s", l.id, text)
}

func (l *stopwatchLine) RunStateChanged(running bool) {
	l.r.printf("[stopwatch %d] %s", l.id, runState(running))
	if !running {
		l.last = time.Time{}
	}
}

func (l *stopwatchLine) LabelChanged(label string) {
	l.r.printf("[stopwatch %d] label: %s", l.id, label)
}

func runState(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
