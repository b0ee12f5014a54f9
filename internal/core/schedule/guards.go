package schedule

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// Cause describes why a schedule is being returned to SCHEDULED.
type Cause string

const (
	// CauseReceipt is a prisoner being received into a prison.
	CauseReceipt Cause = "receipt"
	// CauseExemptionCleared is staff lifting an exemption through the API.
	CauseExemptionCleared Cause = "exemption_cleared"
	// CauseReadmission is a new custody period replacing a schedule left over
	// from an earlier one.
	CauseReadmission Cause = "readmission"
)

// TransitionContext provides context for status transition guards.
type TransitionContext struct {
	Kind      Kind
	Reference string
	From      Status
	To        Status
	Cause     Cause // only consulted for transitions to SCHEDULED
}

// CanTransition evaluates whether a schedule may move between two statuses.
// Rules:
// - COMPLETE schedules are never reopened
// - the target status must exist for the schedule kind
// - a transition to the current status is not a transition
// - COMPLETE is reachable from every active status
// - exemptions are set from SCHEDULED; death and merge also replace an existing exemption
// - SCHEDULED is reachable from an exemption lifted by receipt or cleared by staff
// - readmission lifts every exemption except death
func CanTransition(ctx TransitionContext) GuardResult {
	if ctx.From.IsTerminal() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s schedule %s is %s and cannot be changed", ctx.Kind, ctx.Reference, ctx.From),
		}
	}

	if !ctx.To.ValidFor(ctx.Kind) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("status %s is not valid for %s schedules", ctx.To, ctx.Kind),
		}
	}

	if ctx.From == ctx.To {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s schedule %s is already %s", ctx.Kind, ctx.Reference, ctx.To),
		}
	}

	switch {
	case ctx.To == StatusComplete:
		return GuardResult{Allowed: true}

	case ctx.To.IsExemption():
		if ctx.From == StatusScheduled || overridingExemptions[ctx.To] {
			return GuardResult{Allowed: true}
		}
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s schedule %s is already exempt (%s)", ctx.Kind, ctx.Reference, ctx.From),
		}

	case ctx.To == StatusScheduled:
		return canReactivate(ctx)
	}

	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("no transition from %s to %s", ctx.From, ctx.To),
	}
}

func canReactivate(ctx TransitionContext) GuardResult {
	switch ctx.Cause {
	case CauseReceipt:
		if ctx.From.ReactivatableOnReceipt(ctx.Kind) {
			return GuardResult{Allowed: true}
		}
	case CauseExemptionCleared:
		if ctx.From.IsCircumstanceExemption() {
			return GuardResult{Allowed: true}
		}
	case CauseReadmission:
		if ctx.From.IsExemption() && ctx.From != StatusExemptPrisonerDeath {
			return GuardResult{Allowed: true}
		}
	}
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("%s schedule %s cannot be rescheduled from %s (%s)", ctx.Kind, ctx.Reference, ctx.From, ctx.Cause),
	}
}
