// Package clock is the wall-clock source shared by timers, stopwatches and the
// collection managers. Production code uses the real clock; tests substitute a
// clockwork fake and advance it explicitly.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the subset of clockwork.Clock the domain depends on.
type Clock = clockwork.Clock

// Real returns the process wall clock.
func Real() Clock {
	return clockwork.NewRealClock()
}

// OrReal returns c, or the real clock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return Real()
	}
	return c
}

// EpochMillis converts t to milliseconds since the Unix epoch, the unit used
// in persisted snapshots.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromEpochMillis is the inverse of EpochMillis.
func FromEpochMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
