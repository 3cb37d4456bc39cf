package timer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Duration is the configured length of a countdown.
type Duration struct {
	Hours   int
	Minutes int
	Seconds int
}

// DefaultDuration is the length given to newly created timers.
var DefaultDuration = Duration{Minutes: 5}

// MaxTotalSeconds caps the length of a countdown (about 68 years).
const MaxTotalSeconds = math.MaxInt32

// TotalSeconds returns h*3600 + m*60 + s of the normalized duration,
// saturated at MaxTotalSeconds.
func (d Duration) TotalSeconds() int {
	n := d.Normalize()
	total := int64(n.Hours)*3600 + int64(n.Minutes)*60 + int64(n.Seconds)
	return int(min(total, MaxTotalSeconds))
}

// Normalize replaces negative fields with zero and caps each field so it
// alone cannot exceed MaxTotalSeconds. Fields are not carried over, so 90
// seconds stays 90 seconds.
func (d Duration) Normalize() Duration {
	return Duration{
		Hours:   clampField(d.Hours, 3600),
		Minutes: clampField(d.Minutes, 60),
		Seconds: clampField(d.Seconds, 1),
	}
}

func clampField(v, unit int) int {
	return min(max(v, 0), MaxTotalSeconds/unit)
}

// DurationOf splits seconds into hours, minutes and seconds.
func DurationOf(seconds int) Duration {
	seconds = min(max(seconds, 0), MaxTotalSeconds)
	return Duration{Hours: seconds / 3600, Minutes: seconds % 3600 / 60, Seconds: seconds % 60}
}

// ParseDuration builds a Duration from free-form field text, e.g. form input.
func ParseDuration(hours, minutes, seconds string) Duration {
	return Duration{
		Hours:   ParseField(hours),
		Minutes: ParseField(minutes),
		Seconds: ParseField(seconds),
	}.Normalize()
}

// ParseField reads the leading integer of s after skipping whitespace.
// Trailing garbage is ignored ("12abc" is 12). Text without a leading
// integer, or one that overflows int, yields 0.
func ParseField(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Format renders a number of seconds as MM:SS, or HH:MM:SS once an hour or
// more is involved.
func Format(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
