package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "TUTOR_ANSWERED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher sends events to a bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

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

const TypeTutorAnswered = "TUTOR_ANSWERED"

// NewAnswerEvent describes one finished tutoring request.
func NewAnswerEvent(mode string, success bool, reason, model string, passages int, latency time.Duration) BaseEvent {
	return BaseEvent{
		Type: TypeTutorAnswered,
		Data: map[string]interface{}{
			"mode":       mode,
			"success":    success,
			"reason":     reason,
			"model":      model,
			"passages":   passages,
			"latency_ms": latency.Milliseconds(),
		},
		OccurredAt: time.Now(),
	}
}
