// Package routing classifies inbound prisoner lifecycle events and decides
// which schedule state machines must evaluate them, in which order. It is
// pure: no I/O, no clock.
package routing

import (
	"strings"
	"time"

	"github.com/example/plp/internal/core/schedule"
)

// Event types.
const (
	EventPrisonerReceived = "PRISONER_RECEIVED"
	EventPrisonerReleased = "PRISONER_RELEASED"
	EventPrisonerMerged   = "PRISONER_MERGED"
)

// Domain event names published by the prison systems, accepted as aliases.
var eventAliases = map[string]string{
	"prison-offender-events.prisoner.received":   EventPrisonerReceived,
	"prisoner-offender-search.prisoner.received": EventPrisonerReceived,
	"prison-offender-events.prisoner.released":   EventPrisonerReleased,
	"prisoner-offender-search.prisoner.released": EventPrisonerReleased,
	"prison-offender-events.prisoner.merged":     EventPrisonerMerged,
}

// Received reason codes.
const (
	ReasonAdmission              = "ADMISSION"
	ReasonTransferred            = "TRANSFERRED"
	ReasonTemporaryAbsenceReturn = "TEMPORARY_ABSENCE_RETURN"
	ReasonReturnFromCourt        = "RETURN_FROM_COURT"
)

// Released reason codes.
const (
	ReasonReleased                = "RELEASED"
	ReasonReleasedToHospital      = "RELEASED_TO_HOSPITAL"
	ReasonSentToCourt             = "SENT_TO_COURT"
	ReasonTemporaryAbsenceRelease = "TEMPORARY_ABSENCE_RELEASE"
	ReasonUnknown                 = "UNKNOWN"
)

// MovementReasonDeath marks a release caused by the death of the prisoner.
const MovementReasonDeath = "DEC"

// Event is an inbound prisoner lifecycle event.
type Event struct {
	Type               string
	PersonID           string
	OccurredAt         time.Time
	PrisonID           string
	ReasonCode         string
	Details            string
	PriorPrisonID      string
	MovementReasonCode string
	RemovedPersonID    string // merge only: the retired identifier
}

// CanonicalType resolves aliases to one of the Event* constants. Unknown
// types are returned upper-cased and unchanged otherwise.
func (e Event) CanonicalType() string {
	if t, ok := eventAliases[strings.ToLower(e.Type)]; ok {
		return t
	}
	return strings.ToUpper(e.Type)
}

// Trigger is the history trigger recorded for transitions caused by e.
func (e Event) Trigger() schedule.Trigger {
	return schedule.EventTrigger(e.CanonicalType(), strings.ToUpper(e.ReasonCode))
}

// Movement is the kind of receipt into a prison.
type Movement string

const (
	MovementAdmission              Movement = "admission"
	MovementTransfer               Movement = "transfer"
	MovementTemporaryAbsenceReturn Movement = "temporary_absence_return"
	MovementCourtReturn            Movement = "court_return"
)

// IsReadmission reports whether the movement brings someone back into the
// review cycle after an absence.
func (m Movement) IsReadmission() bool {
	return m == MovementAdmission || m == MovementTemporaryAbsenceReturn
}

// Op is what a state machine is asked to do.
type Op string

const (
	// OpReceive evaluates a receipt into a prison.
	OpReceive Op = "receive"
	// OpExempt exempts the active schedule.
	OpExempt Op = "exempt"
)

// Action is one instruction for one state machine.
type Action struct {
	Kind      schedule.Kind
	Op        Op
	PersonID  string
	Movement  Movement        // OpReceive only
	Exemption schedule.Status // OpExempt only
}

// NeedsPrisonerFacts reports whether handling the action requires sentence
// data from the prisoner directory.
func (a Action) NeedsPrisonerFacts() bool {
	return a.Op == OpReceive
}

// Decision is the routing result. An empty Actions slice means the event is
// acknowledged without side effects.
type Decision struct {
	Actions []Action
	Reason  string
}

// Ignored reports whether the event has nothing to do.
func (d Decision) Ignored() bool {
	return len(d.Actions) == 0
}

var receivedMovements = map[string]Movement{
	ReasonAdmission:              MovementAdmission,
	ReasonTransferred:            MovementTransfer,
	ReasonTemporaryAbsenceReturn: MovementTemporaryAbsenceReturn,
	ReasonReturnFromCourt:        MovementCourtReturn,
}

// releaseExemptions maps release reasons to the review exemption they cause.
// Reasons that keep the person in the estate are absent on purpose: those
// movements are handled when the person is received again. No event routes to
// the transfer exemption; it is only set through the API.
var releaseExemptions = map[string]schedule.Status{
	ReasonReleased:           schedule.StatusExemptPrisonerRelease,
	ReasonReleasedToHospital: schedule.StatusExemptPrisonerRelease,
	ReasonUnknown:            schedule.StatusExemptUnknown,
}

var knownReleaseReasons = map[string]bool{
	ReasonReleased:                true,
	ReasonReleasedToHospital:      true,
	ReasonSentToCourt:             true,
	ReasonTransferred:             true,
	ReasonTemporaryAbsenceRelease: true,
	ReasonUnknown:                 true,
}

// Route decides which state machines evaluate e. Induction always runs
// before review so a drifted induction schedule is reconciled first.
func Route(e Event) Decision {
	reason := strings.ToUpper(e.ReasonCode)

	switch e.CanonicalType() {
	case EventPrisonerReceived:
		movement, ok := receivedMovements[reason]
		if !ok {
			return Decision{Reason: "unrecognised receipt reason " + e.ReasonCode}
		}
		actions := []Action{{Kind: schedule.KindInduction, Op: OpReceive, PersonID: e.PersonID, Movement: movement}}
		if movement != MovementCourtReturn {
			actions = append(actions, Action{Kind: schedule.KindReview, Op: OpReceive, PersonID: e.PersonID, Movement: movement})
		}
		return Decision{Actions: actions}

	case EventPrisonerReleased:
		if !knownReleaseReasons[reason] {
			return Decision{Reason: "unrecognised release reason " + e.ReasonCode}
		}
		if strings.EqualFold(e.MovementReasonCode, MovementReasonDeath) {
			return exempt(e.PersonID, schedule.StatusExemptPrisonerDeath)
		}
		status, ok := releaseExemptions[reason]
		if !ok {
			return Decision{Reason: "release reason " + reason + " keeps the prisoner in the estate"}
		}
		return exempt(e.PersonID, status)

	case EventPrisonerMerged:
		if e.RemovedPersonID == "" {
			return Decision{Reason: "merge event has no retired identifier"}
		}
		return exempt(e.RemovedPersonID, schedule.StatusExemptPrisonerMerge)
	}

	return Decision{Reason: "unrecognised event type " + e.Type}
}

func exempt(personID string, status schedule.Status) Decision {
	return Decision{Actions: []Action{{Kind: schedule.KindReview, Op: OpExempt, PersonID: personID, Exemption: status}}}
}
