package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess   ResultLabel = "success"
	ResultFailure   ResultLabel = "failure"
	ResultDiscarded ResultLabel = "discarded"
	ResultDefaulted ResultLabel = "defaulted"
)

// Recorder defines observability hooks for entity collections. Implementations
// must be safe for concurrent use; ticks of different entities call in from
// their own goroutines.
type Recorder interface {
	IncAlarm()
	IncLifecycle(kind, change string)
	ObservePersist(kind string, d time.Duration, result ResultLabel)
	IncRestoreRecord(kind string, result ResultLabel)
	SetEntities(kind string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncAlarm()                                         {}
func (NoopRecorder) IncLifecycle(string, string)                       {}
func (NoopRecorder) ObservePersist(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncRestoreRecord(string, ResultLabel)              {}
func (NoopRecorder) SetEntities(string, int)                           {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
