package timer

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/label"
)

// Snapshot is the persisted form of a Timer.
type Snapshot struct {
	ID             int    `json:"id"`
	Label          string `json:"label"`
	Hours          int    `json:"hours"`
	Minutes        int    `json:"minutes"`
	Seconds        int    `json:"seconds"`
	TotalSeconds   int    `json:"totalSeconds"`
	InitialSeconds int    `json:"initialSeconds"`
	IsRunning      bool   `json:"isRunning"`
	Completed      bool   `json:"completed"`
	LastSaved      int64  `json:"lastSaved"` // epoch ms
}

// Snapshot captures the timer's state as of now.
func (t *Timer) Snapshot(now time.Time) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:             t.id,
		Label:          t.label,
		Hours:          t.configured.Hours,
		Minutes:        t.configured.Minutes,
		Seconds:        t.configured.Seconds,
		TotalSeconds:   t.remaining,
		InitialSeconds: t.configured.TotalSeconds(),
		IsRunning:      t.running,
		Completed:      t.completed,
		LastSaved:      clock.EpochMillis(now),
	}
}

// Validate reports structurally impossible records.
func (s Snapshot) Validate() error {
	switch {
	case s.ID <= 0:
		return fmt.Errorf("timer snapshot: id %d is not positive", s.ID)
	case s.Hours < 0 || s.Minutes < 0 || s.Seconds < 0:
		return fmt.Errorf("timer %d snapshot: negative duration field", s.ID)
	case s.TotalSeconds < 0:
		return fmt.Errorf("timer %d snapshot: negative remaining seconds", s.ID)
	}
	return nil
}

// Restore rebuilds a timer from a snapshot taken before a restart. A timer
// that was running loses the whole seconds that passed between LastSaved and
// now; if that exhausts it, it comes back completed. resume reports whether
// the caller should Start the returned timer.
//
// Records whose TotalSeconds exceeds their duration fields (written without
// hours/minutes/seconds) get a configured duration covering it, taken from
// InitialSeconds when that is larger.
func Restore(s Snapshot, now time.Time, opts ...Option) (t *Timer, resume bool, err error) {
	if err := s.Validate(); err != nil {
		return nil, false, err
	}
	d := Duration{Hours: s.Hours, Minutes: s.Minutes, Seconds: s.Seconds}.Normalize()
	remaining := min(s.TotalSeconds, MaxTotalSeconds)
	if remaining > d.TotalSeconds() {
		d = DurationOf(max(remaining, s.InitialSeconds))
	}
	t = New(s.ID, label.OrDefault(s.Label, KindLabel, s.ID), d, opts...)

	completed := s.Completed && remaining == 0

	if s.IsRunning && !s.Completed {
		if s.LastSaved > 0 {
			remaining = max(0, remaining-elapsedWholeSeconds(s.LastSaved, now))
		}
		if remaining == 0 {
			completed = true
		} else {
			resume = true
		}
	}

	t.remaining = remaining
	t.completed = completed
	return t, resume, nil
}

// elapsedWholeSeconds is floor((now - savedMs) / 1s), never negative.
func elapsedWholeSeconds(savedMs int64, now time.Time) int {
	delta := clock.EpochMillis(now) - savedMs
	if delta <= 0 {
		return 0
	}
	return int(delta / 1000)
}
