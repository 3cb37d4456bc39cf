package collection

import (
	"context"
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/stopwatch"
	"git.home.luguber.info/inful/chronodeck/internal/storage"
	"git.home.luguber.info/inful/chronodeck/internal/timer"
)

// Kind names.
const (
	KindTimer     = "timer"
	KindStopwatch = "stopwatch"
)

// TimerKind describes timers. New timers get defaults; opts apply to every
// timer the collection creates or restores.
func TimerKind(defaults timer.Duration, opts ...timer.Option) Kind[*timer.Timer] {
	return Kind[*timer.Timer]{
		Name:       KindTimer,
		ListKey:    storage.KeyTimers,
		CounterKey: storage.KeyTimerCounter,
		New: func(id int) *timer.Timer {
			return timer.New(id, "", defaults, opts...)
		},
		Snapshot: func(t *timer.Timer, now time.Time) any {
			return t.Snapshot(now)
		},
		Restore: func(raw json.RawMessage, now time.Time) (*timer.Timer, bool, error) {
			var s timer.Snapshot
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, false, err
			}
			return timer.Restore(s, now, opts...)
		},
	}
}

// StopwatchKind describes stopwatches. compensateDrift selects whether time
// spent while the process was down counts for running stopwatches.
func StopwatchKind(compensateDrift bool, opts ...stopwatch.Option) Kind[*stopwatch.Stopwatch] {
	return Kind[*stopwatch.Stopwatch]{
		Name:       KindStopwatch,
		ListKey:    storage.KeyStopwatches,
		CounterKey: storage.KeyStopwatchCounter,
		New: func(id int) *stopwatch.Stopwatch {
			return stopwatch.New(id, "", opts...)
		},
		Snapshot: func(s *stopwatch.Stopwatch, now time.Time) any {
			return s.Snapshot(now)
		},
		Restore: func(raw json.RawMessage, now time.Time) (*stopwatch.Stopwatch, bool, error) {
			var s stopwatch.Snapshot
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, false, err
			}
			return stopwatch.Restore(s, now, compensateDrift, opts...)
		},
	}
}

// Timers is the timer collection.
type Timers struct {
	*Manager[*timer.Timer]
	defaults timer.Duration
	opts     []timer.Option
}

// NewTimers creates the timer collection.
func NewTimers(deps Deps, defaults timer.Duration, opts ...timer.Option) *Timers {
	return &Timers{
		Manager:  New(TimerKind(defaults, opts...), deps),
		defaults: defaults.Normalize(),
		opts:     opts,
	}
}

// Defaults is the duration new timers get when none is given.
func (t *Timers) Defaults() timer.Duration { return t.defaults }

// Add creates a timer. A blank label becomes "Timer <id>".
func (t *Timers) Add(ctx context.Context, label string, d timer.Duration) (*timer.Timer, error) {
	return t.Insert(ctx, func(id int) *timer.Timer {
		return timer.New(id, label, d, t.opts...)
	})
}

// AddDefault creates a timer with the configured default duration.
func (t *Timers) AddDefault(ctx context.Context) (*timer.Timer, error) {
	return t.Insert(ctx, t.kind.New)
}

// Stopwatches is the stopwatch collection.
type Stopwatches struct {
	*Manager[*stopwatch.Stopwatch]
	opts []stopwatch.Option
}

// NewStopwatches creates the stopwatch collection.
func NewStopwatches(deps Deps, compensateDrift bool, opts ...stopwatch.Option) *Stopwatches {
	return &Stopwatches{
		Manager: New(StopwatchKind(compensateDrift, opts...), deps),
		opts:    opts,
	}
}

// Add creates a stopwatch. A blank label becomes "Stopwatch <id>".
func (s *Stopwatches) Add(ctx context.Context, label string) (*stopwatch.Stopwatch, error) {
	return s.Insert(ctx, func(id int) *stopwatch.Stopwatch {
		return stopwatch.New(id, label, s.opts...)
	})
}
