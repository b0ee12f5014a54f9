// Package induction contains the pure decision logic of the Induction Schedule
// state machine. Planners take pre-fetched state and return an effects.Plan;
// the application layer runs the plan.
package induction

import (
	"fmt"
	"time"

	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/effects"
	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
)

// CreateInput contains the inputs for creating an induction schedule.
type CreateInput struct {
	PersonID        string
	Active          *schedule.Schedule // nil when the person has no active schedule
	AdmissionDate   time.Time
	ReleaseDate     *time.Time
	SentenceType    calculation.SentenceType
	AdmissionReason calculation.AdmissionReason
	NewReference    string
	Audit           schedule.Audit
	Trigger         schedule.Trigger
}

// PlanCreate creates a SCHEDULED induction schedule, or reports the active
// one already in place.
func PlanCreate(in CreateInput, table calculation.Table) effects.Plan {
	if in.Active != nil && in.Active.IsActive() {
		return effects.Plan{
			Outcome:  schedule.OutcomeAlreadyExists,
			Schedule: in.Active,
			Reason:   fmt.Sprintf("induction schedule %s is already %s", in.Active.Reference, in.Active.Status),
		}
	}

	tts := calculation.TimeToServeFrom(in.AdmissionDate, in.ReleaseDate)
	rule := calculation.InductionRule(in.SentenceType, tts, in.AdmissionReason)

	s := schedule.New(schedule.KindInduction, in.NewReference, in.PersonID, rule, in.Audit)
	s.DeadlineDate = table.InductionDeadline(rule, in.AdmissionDate, in.ReleaseDate)

	return effects.Plan{
		Outcome:  schedule.OutcomeCreated,
		Schedule: &s,
		Effects: []effects.Effect{
			effects.CreateScheduleEffect{Schedule: s, Trigger: in.Trigger},
			effects.PublishEffect{Kind: schedule.KindInduction, PersonID: s.PersonID, OccurredAt: in.Audit.At},
		},
	}
}

// RescheduleInput contains the inputs for recomputing a deadline.
type RescheduleInput struct {
	Current          schedule.Schedule
	Rule             schedule.CalculationRule
	NewAdmissionDate time.Time
	ReleaseDate      *time.Time
	Readmission      bool // new custody period; lifts exemptions left from the last one
	Audit            schedule.Audit
	Trigger          schedule.Trigger
}

// PlanReschedule recomputes the deadline of a non-terminal schedule. Status is
// kept, except that a transfer exemption returns to SCHEDULED. On readmission
// every exemption but death returns to SCHEDULED.
func PlanReschedule(in RescheduleInput, table calculation.Table) effects.Plan {
	cur := in.Current
	if !cur.IsActive() {
		return effects.Plan{
			Outcome:  schedule.OutcomeRejected,
			Schedule: &cur,
			Err:      fmt.Errorf("induction schedule %s is %s and cannot be rescheduled", cur.Reference, cur.Status),
		}
	}

	status := cur.Status
	cause, lift := schedule.CauseReceipt, status == schedule.StatusExemptPrisonerTransfer
	if in.Readmission {
		cause, lift = schedule.CauseReadmission, status.IsExemption()
	}
	if lift {
		guard := schedule.CanTransition(schedule.TransitionContext{
			Kind: schedule.KindInduction, Reference: cur.Reference,
			From: cur.Status, To: schedule.StatusScheduled, Cause: cause,
		})
		if err := guard.Error(); err != nil {
			return effects.Plan{Outcome: schedule.OutcomeRejected, Schedule: &cur, Err: err}
		}
		status = schedule.StatusScheduled
	}

	deadline := table.InductionDeadline(in.Rule, in.NewAdmissionDate, in.ReleaseDate)
	if status == cur.Status && in.Rule == cur.CalculationRule && deadline.Equal(cur.DeadlineDate) {
		return effects.Plan{
			Outcome:  schedule.OutcomeUnchanged,
			Schedule: &cur,
			Reason:   "deadline already calculated for " + string(in.Rule),
		}
	}

	next := cur.Next(in.Audit)
	next.CalculationRule = in.Rule
	next.DeadlineDate = deadline
	next.Status = status
	if !status.IsExemption() {
		next.ExemptionReason = ""
	}
	return updated(cur, next, in.Trigger, in.Audit.At)
}

// StatusInput contains the inputs for a direct status change.
type StatusInput struct {
	Current         schedule.Schedule
	Status          schedule.Status
	ExemptionReason string
	Audit           schedule.Audit
	Trigger         schedule.Trigger
}

// PlanStatusUpdate applies a direct status change: completion, a staff
// exemption, or staff clearing an exemption. Clearing an exemption extends
// the deadline.
func PlanStatusUpdate(in StatusInput, table calculation.Table) effects.Plan {
	cur := in.Current
	if cur.Status == in.Status && cur.IsActive() {
		return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: &cur, Reason: "status is already " + string(in.Status)}
	}

	guard := schedule.CanTransition(schedule.TransitionContext{
		Kind: schedule.KindInduction, Reference: cur.Reference,
		From: cur.Status, To: in.Status, Cause: schedule.CauseExemptionCleared,
	})
	if err := guard.Error(); err != nil {
		return effects.Plan{Outcome: schedule.OutcomeRejected, Schedule: &cur, Err: err}
	}

	next := cur.Next(in.Audit)
	next.Status = in.Status
	next.ExemptionReason = ""
	if in.Status.IsExemption() {
		next.ExemptionReason = in.ExemptionReason
	}
	if in.Status == schedule.StatusScheduled {
		next.DeadlineDate = table.Extend(cur.DeadlineDate, in.Audit.At)
	}
	return updated(cur, next, in.Trigger, in.Audit.At)
}

// ReceiptInput contains everything known when a person is received into a
// prison.
type ReceiptInput struct {
	PersonID           string
	Movement           routing.Movement
	Current            *schedule.Schedule // latest schedule, active or not
	InductionCompleted bool               // induction recorded and action plan has a goal
	SentenceType       calculation.SentenceType
	ReleaseDate        *time.Time
	OccurredAt         time.Time
	NewReference       string
	Audit              schedule.Audit
	Trigger            schedule.Trigger
}

var admissionReasons = map[routing.Movement]calculation.AdmissionReason{
	routing.MovementAdmission:              calculation.AdmissionNew,
	routing.MovementTransfer:               calculation.AdmissionTransfer,
	routing.MovementTemporaryAbsenceReturn: calculation.AdmissionTemporaryAbsenceReturn,
	routing.MovementCourtReturn:            calculation.AdmissionCourtReturn,
}

// PlanReceipt decides what a receipt does to the induction schedule.
// Decisions are derived from the persisted schedule, not from event order,
// so replaying a receipt is a no-op.
func PlanReceipt(in ReceiptInput, table calculation.Table) effects.Plan {
	cur := in.Current

	if in.InductionCompleted {
		switch {
		case cur == nil:
			return effects.Plan{Outcome: schedule.OutcomeUnchanged, Reason: "induction completed before scheduling"}
		case !cur.IsActive():
			return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: "induction schedule already complete"}
		}
		return PlanStatusUpdate(StatusInput{
			Current: *cur, Status: schedule.StatusComplete, Audit: in.Audit, Trigger: in.Trigger,
		}, table)
	}

	reason := admissionReasons[in.Movement]

	if cur == nil || !cur.IsActive() {
		return PlanCreate(CreateInput{
			PersonID:        in.PersonID,
			AdmissionDate:   in.OccurredAt,
			ReleaseDate:     in.ReleaseDate,
			SentenceType:    in.SentenceType,
			AdmissionReason: reason,
			NewReference:    in.NewReference,
			Audit:           in.Audit,
			Trigger:         in.Trigger,
		}, table)
	}

	// Induction schedules are not exempted on release, so an admission can
	// find one left from an earlier custody period. Its deadline is
	// recalculated from the new admission; a replay recalculates the same one.
	switch in.Movement {
	case routing.MovementTransfer, routing.MovementTemporaryAbsenceReturn, routing.MovementAdmission:
		if cur.Status == schedule.StatusExemptPrisonerDeath {
			return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: "induction schedule is " + string(cur.Status)}
		}
		tts := calculation.TimeToServeFrom(in.OccurredAt, in.ReleaseDate)
		return PlanReschedule(RescheduleInput{
			Current:          *cur,
			Rule:             calculation.InductionRule(in.SentenceType, tts, reason),
			NewAdmissionDate: in.OccurredAt,
			ReleaseDate:      in.ReleaseDate,
			Readmission:      in.Movement == routing.MovementAdmission,
			Audit:            in.Audit,
			Trigger:          in.Trigger,
		}, table)
	}

	return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: "court return keeps the current induction schedule"}
}

func updated(cur, next schedule.Schedule, trigger schedule.Trigger, at time.Time) effects.Plan {
	return effects.Plan{
		Outcome:  schedule.OutcomeUpdated,
		Schedule: &next,
		Effects: []effects.Effect{
			effects.UpdateScheduleEffect{Schedule: next, ExpectedVersion: cur.Version, Trigger: trigger},
			effects.PublishEffect{Kind: schedule.KindInduction, PersonID: next.PersonID, OccurredAt: at},
		},
	}
}
