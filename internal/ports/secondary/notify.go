package secondary

import (
	"context"
	"time"
)

// ScheduleUpdatedEventType is the outbound event type for every schedule change.
const ScheduleUpdatedEventType = "schedule.updated"

// ScheduleUpdatedEvent is published after any schedule create or transition.
type ScheduleUpdatedEvent struct {
	EventType    string    `json:"eventType"`
	ScheduleKind string    `json:"scheduleKind"`
	PersonID     string    `json:"personId"`
	DetailURL    string    `json:"detailUrl"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// EventPublisher defines the secondary port for outbound notifications.
type EventPublisher interface {
	Publish(ctx context.Context, event ScheduleUpdatedEvent) error
}

// ParkedEvent is an inbound message set aside for manual follow-up.
type ParkedEvent struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Category  string    `json:"category"` // precondition, invariant, exhausted
	Error     string    `json:"error"`
	ParkedAt  time.Time `json:"parkedAt"`
	Attempts  int       `json:"attempts"`
	EventType string    `json:"eventType,omitempty"`
	PersonID  string    `json:"personId,omitempty"`
}

// ParkedEventStore defines the secondary port for parked inbound messages.
type ParkedEventStore interface {
	// Park stores the event. Parking the same ID twice overwrites it.
	Park(ctx context.Context, event ParkedEvent) error

	// List returns parked events, oldest first.
	List(ctx context.Context) ([]ParkedEvent, error)
}

// UserDirectory resolves usernames recorded in audit fields to display names.
type UserDirectory interface {
	// DisplayName returns the display name for username, or username itself
	// when it is unknown.
	DisplayName(ctx context.Context, username string) string
}

// EngineMetrics records what the engine did. Implementations must be safe
// for concurrent use.
type EngineMetrics interface {
	EventHandled(eventType, outcome string)
	ScheduleWritten(kind, status string)
	Retried(reason string)
	Parked(category string)
}
