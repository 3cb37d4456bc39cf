// Package lifecycle names the state transitions an entity reports to its owner.
package lifecycle

// Change is a lifecycle transition of a timer or stopwatch.
type Change string

const (
	Created      Change = "created"
	Restored     Change = "restored"
	Deleted      Change = "deleted"
	Started      Change = "started"
	Stopped      Change = "stopped"
	Reset        Change = "reset"
	Reconfigured Change = "reconfigured"
	Relabeled    Change = "relabeled"
	Completed    Change = "completed"
)

// String implements fmt.Stringer.
func (c Change) String() string { return string(c) }

// Hook receives lifecycle transitions. It is invoked outside entity locks.
type Hook func(Change)

// Fire calls h when it is non-nil.
func (h Hook) Fire(c Change) {
	if h != nil {
		h(c)
	}
}
