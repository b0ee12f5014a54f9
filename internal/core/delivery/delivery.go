// Package delivery decides what happens to an inbound message once the
// engine has handled it: acknowledge it, leave it for redelivery, or park it
// for manual follow-up and acknowledge it.
package delivery

import (
	"errors"

	"github.com/example/plp/internal/core/schedule"
)

// Action is what the consumer does with a message.
type Action string

const (
	Ack   Action = "ack"
	Retry Action = "retry"
	Park  Action = "park"
)

// Park categories.
const (
	CategoryPrecondition = "precondition"
	CategoryInvariant    = "invariant"
	CategoryExhausted    = "exhausted"
	CategoryUnexpected   = "unexpected"
)

// Decision is the disposition of one message.
type Decision struct {
	Action   Action
	Category string // Park only
}

// Classify maps a handling error to a disposition. receiveCount is how many
// times the queue has delivered the message, including this one; a retryable
// failure is parked once it reaches maxReceives.
func Classify(err error, receiveCount, maxReceives int) Decision {
	switch {
	case err == nil:
		return Decision{Action: Ack}
	case errors.Is(err, schedule.ErrPrecondition), errors.Is(err, schedule.ErrNotFound):
		return Decision{Action: Park, Category: CategoryPrecondition}
	case errors.Is(err, schedule.ErrInvariantViolation):
		return Decision{Action: Park, Category: CategoryInvariant}
	case schedule.IsRetryable(err):
		if maxReceives > 0 && receiveCount >= maxReceives {
			return Decision{Action: Park, Category: CategoryExhausted}
		}
		return Decision{Action: Retry}
	}
	if maxReceives > 0 && receiveCount >= maxReceives {
		return Decision{Action: Park, Category: CategoryUnexpected}
	}
	return Decision{Action: Retry}
}
