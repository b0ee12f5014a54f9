// Package eventschema decodes inbound prisoner lifecycle events. Bodies are
// validated against a JSON Schema before being mapped to routing.Event, and
// SNS notification envelopes are unwrapped first.
package eventschema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/secondary"
)

//go:embed event.schema.json
var eventSchema string

const schemaURL = "event.schema.json"

// Decoder implements secondary.EventDecoder.
type Decoder struct {
	schema *jsonschema.Schema
}

// NewDecoder compiles the event schema.
func NewDecoder() (*Decoder, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, strings.NewReader(eventSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Decoder{schema: schema}, nil
}

type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

type eventBody struct {
	EventType          string  `json:"eventType"`
	PersonID           string  `json:"personId"`
	OccurredAt         string  `json:"occurredAt"`
	PrisonID           string  `json:"prisonId"`
	ReasonCode         string  `json:"reasonCode"`
	Details            *string `json:"details"`
	PriorPrisonID      *string `json:"priorPrisonId"`
	MovementReasonCode *string `json:"movementReasonCode"`
	RemovedPersonID    *string `json:"removedPersonId"`
}

// Decode validates body and maps it to an event. Any failure is an
// schedule.InvalidEventError.
func (d *Decoder) Decode(body []byte) (routing.Event, error) {
	body, err := unwrap(body)
	if err != nil {
		return routing.Event{}, err
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return routing.Event{}, invalid("body is not JSON: %v", err)
	}
	if err := d.schema.Validate(payload); err != nil {
		return routing.Event{}, invalid("%v", err)
	}

	var b eventBody
	if err := json.Unmarshal(body, &b); err != nil {
		return routing.Event{}, invalid("%v", err)
	}
	occurred, err := time.Parse(time.RFC3339, b.OccurredAt)
	if err != nil {
		return routing.Event{}, invalid("occurredAt: %v", err)
	}

	return routing.Event{
		Type:               b.EventType,
		PersonID:           b.PersonID,
		OccurredAt:         occurred.UTC(),
		PrisonID:           b.PrisonID,
		ReasonCode:         b.ReasonCode,
		Details:            deref(b.Details),
		PriorPrisonID:      deref(b.PriorPrisonID),
		MovementReasonCode: deref(b.MovementReasonCode),
		RemovedPersonID:    deref(b.RemovedPersonID),
	}, nil
}

// unwrap returns the inner message of an SNS notification, or body unchanged.
func unwrap(body []byte) ([]byte, error) {
	var env snsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return body, nil
	}
	if env.Type != "Notification" {
		return body, nil
	}
	if env.Message == "" {
		return nil, invalid("SNS notification has no message")
	}
	return []byte(env.Message), nil
}

func invalid(format string, args ...any) error {
	return schedule.InvalidEventError{Reason: fmt.Sprintf(format, args...)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ secondary.EventDecoder = (*Decoder)(nil)
