package events

import "time"

// Event is an outbound notification published on the bus.
type Event interface {
	// EventType is the subject suffix, e.g. "outbound.state_changed".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
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

const TypeStateChanged = "outbound.state_changed"

// StateChanged is published after every SystemState transition.
type StateChanged struct {
	From       string
	To         string
	ContextID  string
	Reason     string
	OccurredAt time.Time
}

func (e StateChanged) EventType() string {
	return TypeStateChanged
}

func (e StateChanged) Payload() map[string]interface{} {
	return map[string]interface{}{
		"from":        e.From,
		"to":          e.To,
		"context_id":  e.ContextID,
		"reason":      e.Reason,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}

func (e StateChanged) Timestamp() time.Time {
	return e.OccurredAt
}
