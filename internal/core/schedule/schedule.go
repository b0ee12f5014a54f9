// Package schedule contains the pure domain model shared by the Induction and
// Review schedule state machines. This is part of the Functional Core - no I/O,
// only values and pure functions.
package schedule

import "time"

// Kind distinguishes the two schedule variants. They are structurally identical
// but never interchangeable.
type Kind string

const (
	KindInduction Kind = "induction"
	KindReview    Kind = "review"
)

// String returns the wire name of the kind.
func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindInduction || k == KindReview
}

// CalculationRule names the reason a schedule has its current timing.
// Concrete values live in the calculation package.
type CalculationRule string

// DateLayout is the calendar date format used for deadlines and windows.
const DateLayout = "2006-01-02"

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Window is the inclusive date range in which a review is due.
type Window struct {
	From time.Time
	To   time.Time
}

// Equal reports whether two windows cover the same dates.
func (w Window) Equal(other Window) bool {
	return w.From.Equal(other.From) && w.To.Equal(other.To)
}

// IsZero reports whether the window is unset.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Schedule is one Induction or Review schedule for a person.
//
// DeadlineDate is only meaningful for induction schedules and Window only for
// review schedules. Version starts at 1 and increases by exactly one for every
// persisted transition.
type Schedule struct {
	Reference       string
	Kind            Kind
	PersonID        string
	CalculationRule CalculationRule
	Status          Status
	DeadlineDate    time.Time
	Window          Window
	ExemptionReason string
	Version         int

	CreatedBy       string
	CreatedAt       time.Time
	CreatedAtPrison string
	UpdatedBy       string
	UpdatedAt       time.Time
	UpdatedAtPrison string
}

// IsActive reports whether the schedule still counts against the
// one-active-schedule-per-person rule.
func (s Schedule) IsActive() bool {
	return !s.Status.IsTerminal()
}

// Audit identifies who caused a change, when, and from which prison.
type Audit struct {
	Actor    string
	PrisonID string
	At       time.Time
}

// New builds a version 1 SCHEDULED schedule. The caller supplies the reference.
func New(kind Kind, reference, personID string, rule CalculationRule, audit Audit) Schedule {
	return Schedule{
		Reference:       reference,
		Kind:            kind,
		PersonID:        personID,
		CalculationRule: rule,
		Status:          StatusScheduled,
		Version:         1,
		CreatedBy:       audit.Actor,
		CreatedAt:       audit.At,
		CreatedAtPrison: audit.PrisonID,
		UpdatedBy:       audit.Actor,
		UpdatedAt:       audit.At,
		UpdatedAtPrison: audit.PrisonID,
	}
}

// Next returns a copy of s with the version bumped and the update audit fields
// set. Mutations are applied to the returned copy by the caller.
func (s Schedule) Next(audit Audit) Schedule {
	next := s
	next.Version = s.Version + 1
	next.UpdatedBy = audit.Actor
	next.UpdatedAt = audit.At
	next.UpdatedAtPrison = audit.PrisonID
	return next
}
