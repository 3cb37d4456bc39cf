package stopwatch

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	"git.home.luguber.info/inful/chronodeck/internal/label"
)

// Snapshot is the persisted form of a Stopwatch. ElapsedTime is in
// milliseconds, StartTime in epoch milliseconds and zero while stopped.
type Snapshot struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	ElapsedTime int64  `json:"elapsedTime"`
	IsRunning   bool   `json:"isRunning"`
	StartTime   int64  `json:"startTime"`
}

// Snapshot captures the stopwatch as of now. For a running stopwatch the
// elapsed value includes the current segment.
func (s *Stopwatch) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:          s.id,
		Label:       s.label,
		ElapsedTime: s.elapsedLocked(now).Milliseconds(),
		IsRunning:   s.running,
	}
	if s.running {
		snap.StartTime = clock.EpochMillis(s.started)
	}
	return snap
}

// Validate rejects records with a non-positive id or negative elapsed time.
func (s Snapshot) Validate() error {
	switch {
	case s.ID <= 0:
		return fmt.Errorf("stopwatch snapshot: id %d is not positive", s.ID)
	case s.ElapsedTime < 0:
		return fmt.Errorf("stopwatch %d snapshot: negative elapsed time", s.ID)
	}
	return nil
}

// Restore rebuilds a stopwatch from a snapshot. By default the time the
// process was down is not counted: a running stopwatch resumes from the saved
// elapsed value. With compensateDrift it continues from the saved start epoch
// instead. resume reports whether the caller should Start it.
func Restore(snap Snapshot, now time.Time, compensateDrift bool, opts ...Option) (*Stopwatch, bool, error) {
	if err := snap.Validate(); err != nil {
		return nil, false, err
	}
	s := New(snap.ID, label.OrDefault(snap.Label, KindLabel, snap.ID), opts...)
	s.elapsed = time.Duration(snap.ElapsedTime) * time.Millisecond
	if snap.IsRunning && compensateDrift && snap.StartTime > 0 {
		if live := now.Sub(clock.FromEpochMillis(snap.StartTime)); live > s.elapsed {
			s.elapsed = live
		}
	}
	return s, snap.IsRunning, nil
}
