// Package review contains the pure decision logic of the Review Schedule state
// machine. Review schedules only exist for people with a completed induction
// and an action plan holding at least one goal.
package review

import (
	"fmt"
	"time"

	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/effects"
	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
)

// Exemption reason recorded when a stale active schedule is found on
// readmission.
const staleScheduleReason = "active review schedule found on readmission"

// Prerequisites describes the learning plan facts a review schedule needs.
type Prerequisites struct {
	HasInduction bool
	GoalCount    int
}

// Met reports whether a review schedule may exist.
func (p Prerequisites) Met() bool {
	return p.HasInduction && p.GoalCount > 0
}

// InitialInput contains the inputs for the first review schedule after an
// induction.
type InitialInput struct {
	PersonID      string
	Active        *schedule.Schedule
	Prerequisites Prerequisites
	SentenceType  calculation.SentenceType
	ReleaseDate   *time.Time
	IsReadmission bool
	IsTransfer    bool
	ReferenceDate time.Time
	NewReference  string
	Audit         schedule.Audit
	Trigger       schedule.Trigger
}

// PlanInitial creates the initial review schedule. Missing prerequisites and
// missing release dates are reported through Err before anything is written.
func PlanInitial(in InitialInput, table calculation.Table) effects.Plan {
	if !in.Prerequisites.HasInduction {
		return rejected(nil, schedule.NotFoundError{Entity: schedule.EntityInduction, PersonID: in.PersonID})
	}
	if in.Prerequisites.GoalCount == 0 {
		return rejected(nil, schedule.NotFoundError{Entity: schedule.EntityActionPlan, PersonID: in.PersonID})
	}

	rule, err := calculation.ReviewRule(calculation.ReviewInput{
		PersonID:      in.PersonID,
		SentenceType:  in.SentenceType,
		ReleaseDate:   in.ReleaseDate,
		ReferenceDate: in.ReferenceDate,
		IsReadmission: in.IsReadmission,
		IsTransfer:    in.IsTransfer,
	})
	if err != nil {
		return rejected(nil, err)
	}

	if in.Active != nil && in.Active.IsActive() {
		return effects.Plan{
			Outcome:  schedule.OutcomeAlreadyExists,
			Schedule: in.Active,
			Reason:   fmt.Sprintf("review schedule %s is already %s", in.Active.Reference, in.Active.Status),
		}
	}

	s := schedule.New(schedule.KindReview, in.NewReference, in.PersonID, rule, in.Audit)
	s.Window = table.ReviewWindow(rule, in.ReferenceDate, in.ReleaseDate)
	return effects.Plan{
		Outcome:  schedule.OutcomeCreated,
		Schedule: &s,
		Effects: []effects.Effect{
			effects.CreateScheduleEffect{Schedule: s, Trigger: in.Trigger},
			publish(s, in.Audit.At),
		},
	}
}

// ExemptionInput contains the inputs for exempting the active schedule.
type ExemptionInput struct {
	Active  *schedule.Schedule
	Status  schedule.Status
	Reason  string
	Audit   schedule.Audit
	Trigger schedule.Trigger
}

// PlanExemption moves the active schedule to an exemption status. A person
// without an active schedule, a schedule already in that status, or an
// exemption that does not override the current one are all no-ops.
func PlanExemption(in ExemptionInput) effects.Plan {
	cur := in.Active
	if cur == nil || !cur.IsActive() {
		return effects.Plan{Outcome: schedule.OutcomeUnchanged, Reason: "no active review schedule"}
	}
	if cur.Status == in.Status {
		return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: "review schedule is already " + string(in.Status)}
	}

	guard := schedule.CanTransition(schedule.TransitionContext{
		Kind: schedule.KindReview, Reference: cur.Reference, From: cur.Status, To: in.Status,
	})
	if !guard.Allowed {
		return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: guard.Reason}
	}

	next := cur.Next(in.Audit)
	next.Status = in.Status
	next.ExemptionReason = in.Reason
	return updated([]schedule.Schedule{*cur, next}, in.Trigger, in.Audit.At)
}

// ReceiptInput contains everything known when a person is received into a
// prison.
type ReceiptInput struct {
	PersonID      string
	Movement      routing.Movement
	Active        *schedule.Schedule
	Prerequisites Prerequisites
	ReleaseDate   *time.Time
	OccurredAt    time.Time
	NewReference  string
	Audit         schedule.Audit
	Trigger       schedule.Trigger
}

// PlanReceipt decides what a receipt does to the review schedule.
//
//   - no active schedule: create one under the transfer or readmission rule
//   - SCHEDULED or a staff exemption on admission: the schedule survived a
//     release, so it is exempted as unknown and then reactivated under the
//     readmission rule
//   - SCHEDULED on transfer: exempted for the transfer and reactivated under
//     the transfer rule
//   - SCHEDULED on temporary absence return: recalculated in place
//   - transfer, release or unknown exemption: reactivated
//   - any other exemption: left alone, as is a staff exemption on transfer
//
// The existing row is always reused so there is never a second active
// schedule, and a replayed receipt finds the rule and window already set.
func PlanReceipt(in ReceiptInput, table calculation.Table) effects.Plan {
	if !in.Prerequisites.Met() {
		return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: in.Active, Reason: "no completed induction with goals"}
	}

	rule := calculation.ReviewPrisonerReadmission
	if in.Movement == routing.MovementTransfer {
		rule = calculation.ReviewPrisonerTransfer
	}
	window := table.ReviewWindow(rule, in.OccurredAt, in.ReleaseDate)

	cur := in.Active
	if cur == nil || !cur.IsActive() {
		s := schedule.New(schedule.KindReview, in.NewReference, in.PersonID, rule, in.Audit)
		s.Window = window
		return effects.Plan{
			Outcome:  schedule.OutcomeCreated,
			Schedule: &s,
			Effects: []effects.Effect{
				effects.CreateScheduleEffect{Schedule: s, Trigger: in.Trigger},
				publish(s, in.Audit.At),
			},
		}
	}

	if cur.Status == schedule.StatusScheduled && cur.CalculationRule == rule && cur.Window.Equal(window) {
		return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: "review already scheduled for " + string(rule)}
	}

	chain := []schedule.Schedule{*cur}
	switch {
	case in.Movement == routing.MovementAdmission && (cur.Status == schedule.StatusScheduled || cur.Status.IsCircumstanceExemption()):
		chain = append(chain, exempted(*cur, schedule.StatusExemptUnknown, staleScheduleReason, in.Audit))
	case in.Movement == routing.MovementTransfer && cur.Status == schedule.StatusScheduled:
		chain = append(chain, exempted(*cur, schedule.StatusExemptPrisonerTransfer, "", in.Audit))
	}

	last := chain[len(chain)-1]
	if last.Status != schedule.StatusScheduled {
		guard := schedule.CanTransition(schedule.TransitionContext{
			Kind: schedule.KindReview, Reference: last.Reference,
			From: last.Status, To: schedule.StatusScheduled, Cause: schedule.CauseReceipt,
		})
		if !guard.Allowed {
			return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: guard.Reason}
		}
	}

	next := last.Next(in.Audit)
	next.Status = schedule.StatusScheduled
	next.ExemptionReason = ""
	next.CalculationRule = rule
	next.Window = window
	chain = append(chain, next)

	return updated(chain, in.Trigger, in.Audit.At)
}

// PlanExemptAndReschedule exempts the active schedule for a transfer and
// reactivates it under the transfer rule in one unit of work. Without an
// active schedule a new one is created under the transfer rule.
func PlanExemptAndReschedule(in ReceiptInput, table calculation.Table) effects.Plan {
	in.Movement = routing.MovementTransfer
	return PlanReceipt(in, table)
}

// StatusInput contains the inputs for a staff status change.
type StatusInput struct {
	Active          schedule.Schedule
	Status          schedule.Status
	ExemptionReason string
	Audit           schedule.Audit
	Trigger         schedule.Trigger
}

// PlanStatusUpdate applies a staff exemption or clears one. Clearing moves the
// window to start no earlier than today and extends its end.
func PlanStatusUpdate(in StatusInput, table calculation.Table) effects.Plan {
	cur := in.Active
	if cur.Status == in.Status && cur.IsActive() {
		return effects.Plan{Outcome: schedule.OutcomeUnchanged, Schedule: &cur, Reason: "status is already " + string(in.Status)}
	}

	guard := schedule.CanTransition(schedule.TransitionContext{
		Kind: schedule.KindReview, Reference: cur.Reference,
		From: cur.Status, To: in.Status, Cause: schedule.CauseExemptionCleared,
	})
	if err := guard.Error(); err != nil {
		return rejected(&cur, err)
	}

	next := cur.Next(in.Audit)
	next.Status = in.Status
	next.ExemptionReason = ""
	if in.Status.IsExemption() {
		next.ExemptionReason = in.ExemptionReason
	}
	if in.Status == schedule.StatusScheduled {
		today := schedule.Day(in.Audit.At)
		if next.Window.From.Before(today) {
			next.Window.From = today
		}
		next.Window.To = table.Extend(cur.Window.To, in.Audit.At)
	}
	return updated([]schedule.Schedule{cur, next}, in.Trigger, in.Audit.At)
}

// CompletionInput contains the inputs for completing the active review.
type CompletionInput struct {
	PersonID     string
	Active       *schedule.Schedule
	SentenceType calculation.SentenceType
	ReleaseDate  *time.Time
	NewReference string
	Audit        schedule.Audit
	Trigger      schedule.Trigger
}

// CompletionPlan is the completed schedule plus the next cycle's schedule,
// when one can be calculated.
type CompletionPlan struct {
	effects.Plan
	Next *schedule.Schedule
}

// PlanCompletion completes the active review and schedules the next one from
// the sentence-based rule. If the next rule cannot be calculated the review is
// still completed and Reason says why no successor was created.
func PlanCompletion(in CompletionInput, table calculation.Table) CompletionPlan {
	cur := in.Active
	if cur == nil || !cur.IsActive() {
		return CompletionPlan{Plan: rejected(nil, schedule.NotFoundError{Entity: schedule.EntityReviewSchedule, PersonID: in.PersonID})}
	}

	guard := schedule.CanTransition(schedule.TransitionContext{
		Kind: schedule.KindReview, Reference: cur.Reference, From: cur.Status, To: schedule.StatusComplete,
	})
	if err := guard.Error(); err != nil {
		return CompletionPlan{Plan: rejected(cur, err)}
	}

	done := cur.Next(in.Audit)
	done.Status = schedule.StatusComplete
	done.ExemptionReason = ""
	plan := updated([]schedule.Schedule{*cur, done}, in.Trigger, in.Audit.At)

	rule, err := calculation.ReviewRule(calculation.ReviewInput{
		PersonID:      in.PersonID,
		SentenceType:  in.SentenceType,
		ReleaseDate:   in.ReleaseDate,
		ReferenceDate: in.Audit.At,
	})
	if err != nil {
		plan.Reason = err.Error()
		plan.Effects = append(plan.Effects, effects.LogEffect{
			Level:   "warn",
			Message: "next review not scheduled",
			Fields:  map[string]any{"person_id": in.PersonID, "reason": plan.Reason},
		})
		return CompletionPlan{Plan: plan}
	}

	next := schedule.New(schedule.KindReview, in.NewReference, in.PersonID, rule, in.Audit)
	next.Window = table.ReviewWindow(rule, in.Audit.At, in.ReleaseDate)
	plan.Effects = append(plan.Effects[:len(plan.Effects)-1],
		effects.CreateScheduleEffect{Schedule: next, Trigger: in.Trigger},
		publish(next, in.Audit.At),
	)
	return CompletionPlan{Plan: plan, Next: &next}
}

func exempted(cur schedule.Schedule, status schedule.Status, reason string, audit schedule.Audit) schedule.Schedule {
	next := cur.Next(audit)
	next.Status = status
	next.ExemptionReason = reason
	return next
}

// updated turns a chain of versions of one schedule, starting with the
// persisted one, into optimistic updates.
func updated(chain []schedule.Schedule, trigger schedule.Trigger, at time.Time) effects.Plan {
	var effs []effects.Effect
	for i := 1; i < len(chain); i++ {
		effs = append(effs, effects.UpdateScheduleEffect{
			Schedule:        chain[i],
			ExpectedVersion: chain[i-1].Version,
			Trigger:         trigger,
		})
	}
	last := chain[len(chain)-1]
	effs = append(effs, publish(last, at))
	return effects.Plan{Outcome: schedule.OutcomeUpdated, Schedule: &last, Effects: effs}
}

func rejected(cur *schedule.Schedule, err error) effects.Plan {
	return effects.Plan{Outcome: schedule.OutcomeRejected, Schedule: cur, Err: err}
}

func publish(s schedule.Schedule, at time.Time) effects.PublishEffect {
	return effects.PublishEffect{Kind: schedule.KindReview, PersonID: s.PersonID, OccurredAt: at}
}
