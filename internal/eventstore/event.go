package eventstore

import (
	"time"

	"github.com/google/uuid"
)

// Event is one entry of the activity log.
type Event struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"` // "timer" or "stopwatch"
	EntityID int       `json:"entity_id"`
	Type     string    `json:"type"`
	Detail   string    `json:"detail,omitempty"`
	At       time.Time `json:"at"`
}

// NewEvent creates an event with a fresh UUID.
func NewEvent(kind string, entityID int, eventType, detail string, at time.Time) Event {
	return Event{
		ID:       uuid.New().String(),
		Kind:     kind,
		EntityID: entityID,
		Type:     eventType,
		Detail:   detail,
		At:       at,
	}
}
