package primary

import (
	"context"

	"github.com/example/plp/internal/core/routing"
)

// EventService defines the primary port for inbound prisoner lifecycle events.
type EventService interface {
	// HandleEvent routes the event to the schedule state machines. Unrecognised
	// events succeed with no actions. A returned error satisfying
	// schedule.IsRetryable means the event must be redelivered.
	HandleEvent(ctx context.Context, event routing.Event) (*EventResult, error)
}

// EventResult reports what each state machine did with an event.
type EventResult struct {
	Ignored  bool
	Reason   string
	Actions  []ActionResult
	Attempts int
}

// ActionResult is the outcome of one routed action.
type ActionResult struct {
	Action routing.Action
	Result *ScheduleResult
}

// InboundMessage is a raw message taken off the event queue.
type InboundMessage struct {
	ID           string
	Body         string
	ReceiveCount int
}

// Disposition is what the consumer must do with a message once handled.
type Disposition string

const (
	// DispositionAck deletes the message: handled, ignored, or parked.
	DispositionAck Disposition = "ack"
	// DispositionRetry leaves the message for redelivery.
	DispositionRetry Disposition = "retry"
)

// MessageService defines the primary port for raw queue messages.
type MessageService interface {
	// HandleMessage decodes, validates and handles one message.
	HandleMessage(ctx context.Context, msg InboundMessage) Disposition

	// ListParked returns messages parked for manual follow-up.
	ListParked(ctx context.Context) ([]ParkedMessage, error)
}

// ParkedMessage is a parked inbound message as returned to callers.
type ParkedMessage struct {
	ID        string
	Category  string
	Error     string
	ParkedAt  string
	Attempts  int
	EventType string
	PersonID  string
	Body      string
}
