package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the contract for everything published on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "RUN_COMPLETE").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the concrete implementation every lifecycle constructor
// returns.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Run lifecycle event types.
const (
	TypeRunStarted       = "RUN_STARTED"
	TypeRunAwaitingInput = "RUN_AWAITING_INPUT"
	TypeRunResumed       = "RUN_RESUMED"
	TypeRunComplete      = "RUN_COMPLETE"
	TypeRunFailed        = "RUN_FAILED"
)

func NewRunStarted(sessionId uuid.UUID, sourceRef string) Event {
	return BaseEvent{
		Type: TypeRunStarted,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"source_ref": sourceRef,
		},
		OccurredAt: time.Now(),
	}
}

func NewRunAwaitingInput(sessionId uuid.UUID, gaps []string) Event {
	return BaseEvent{
		Type: TypeRunAwaitingInput,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"gaps":       gaps,
		},
		OccurredAt: time.Now(),
	}
}

func NewRunResumed(sessionId uuid.UUID) Event {
	return BaseEvent{
		Type: TypeRunResumed,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
		},
		OccurredAt: time.Now(),
	}
}

func NewRunComplete(sessionId uuid.UUID, matchScore float64) Event {
	return BaseEvent{
		Type: TypeRunComplete,
		Data: map[string]interface{}{
			"session_id":  sessionId.String(),
			"match_score": matchScore,
		},
		OccurredAt: time.Now(),
	}
}

func NewRunFailed(sessionId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: TypeRunFailed,
		Data: map[string]interface{}{
			"session_id": sessionId.String(),
			"reason":     reason,
		},
		OccurredAt: time.Now(),
	}
}
