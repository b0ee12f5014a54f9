// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import (
	"time"

	"github.com/example/plp/internal/core/schedule"
)

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string // "debug", "info", "warn", "error"
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// CreateScheduleEffect persists a brand new schedule at version 1 together
// with its first history entry.
type CreateScheduleEffect struct {
	Schedule schedule.Schedule
	Trigger  schedule.Trigger
}

func (e CreateScheduleEffect) EffectType() string { return "create_schedule" }

// UpdateScheduleEffect persists a transition. The write only succeeds if the
// stored schedule is still at ExpectedVersion.
type UpdateScheduleEffect struct {
	Schedule        schedule.Schedule
	ExpectedVersion int
	Trigger         schedule.Trigger
}

func (e UpdateScheduleEffect) EffectType() string { return "update_schedule" }

// PublishEffect notifies downstream systems that a person's schedule changed.
type PublishEffect struct {
	Kind       schedule.Kind
	PersonID   string
	OccurredAt time.Time
}

func (e PublishEffect) EffectType() string { return "publish" }

// Plan is the result of a pure schedule decision: what happened, the schedule
// as it stands afterwards, and the effects the shell must run to get there.
type Plan struct {
	Outcome  schedule.Outcome
	Schedule *schedule.Schedule
	Reason   string
	Err      error
	Effects  []Effect
}

// Changed reports whether the plan writes anything.
func (p Plan) Changed() bool {
	return p.Err == nil && (p.Outcome == schedule.OutcomeCreated || p.Outcome == schedule.OutcomeUpdated)
}
