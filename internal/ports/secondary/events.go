package secondary

import "github.com/example/plp/internal/core/routing"

// EventDecoder defines the secondary port for turning a raw inbound message
// body into a lifecycle event. Bodies that are not valid events are reported
// as schedule.InvalidEventError.
type EventDecoder interface {
	Decode(body []byte) (routing.Event, error)
}
