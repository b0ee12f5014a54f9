package schedule

import (
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name        string
		ctx         TransitionContext
		wantAllowed bool
		wantReason  string
	}{
		{
			name:        "scheduled induction can complete",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusScheduled, To: StatusComplete},
			wantAllowed: true,
		},
		{
			name:        "exempt induction can be completed out of band",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusExemptPrisonerOtherHealthIssues, To: StatusComplete},
			wantAllowed: true,
		},
		{
			name:        "complete schedule is never reopened",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusComplete, To: StatusScheduled, Cause: CauseReceipt},
			wantAllowed: false,
			wantReason:  "review schedule R1 is COMPLETE and cannot be changed",
		},
		{
			name:        "same status is not a transition",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusExemptPrisonerDeath, To: StatusExemptPrisonerDeath},
			wantAllowed: false,
			wantReason:  "review schedule R1 is already EXEMPT_PRISONER_DEATH",
		},
		{
			name:        "merge exemption is review only",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusScheduled, To: StatusExemptPrisonerMerge},
			wantAllowed: false,
			wantReason:  "status EXEMPT_PRISONER_MERGE is not valid for induction schedules",
		},
		{
			name:        "scheduled review can be exempted for release",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusScheduled, To: StatusExemptPrisonerRelease},
			wantAllowed: true,
		},
		{
			name:        "release does not replace a health exemption",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusExemptPrisonerOtherHealthIssues, To: StatusExemptPrisonerRelease},
			wantAllowed: false,
			wantReason:  "review schedule R1 is already exempt (EXEMPT_PRISONER_OTHER_HEALTH_ISSUES)",
		},
		{
			name:        "death replaces a health exemption",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusExemptPrisonerOtherHealthIssues, To: StatusExemptPrisonerDeath},
			wantAllowed: true,
		},
		{
			name:        "transfer exemption lifted on receipt for induction",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusExemptPrisonerTransfer, To: StatusScheduled, Cause: CauseReceipt},
			wantAllowed: true,
		},
		{
			name:        "release exemption not lifted on receipt for induction",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusExemptPrisonerRelease, To: StatusScheduled, Cause: CauseReceipt},
			wantAllowed: false,
			wantReason:  "induction schedule R1 cannot be rescheduled from EXEMPT_PRISONER_RELEASE (receipt)",
		},
		{
			name:        "release exemption lifted on receipt for review",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusExemptPrisonerRelease, To: StatusScheduled, Cause: CauseReceipt},
			wantAllowed: true,
		},
		{
			name:        "death exemption never lifted",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusExemptPrisonerDeath, To: StatusScheduled, Cause: CauseReceipt},
			wantAllowed: false,
			wantReason:  "review schedule R1 cannot be rescheduled from EXEMPT_PRISONER_DEATH (receipt)",
		},
		{
			name:        "staff can clear a circumstance exemption",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusExemptPrisonStaffRedeployment, To: StatusScheduled, Cause: CauseExemptionCleared},
			wantAllowed: true,
		},
		{
			name:        "staff cannot clear a movement exemption",
			ctx:         TransitionContext{Kind: KindReview, Reference: "R1", From: StatusExemptPrisonerMerge, To: StatusScheduled, Cause: CauseExemptionCleared},
			wantAllowed: false,
			wantReason:  "review schedule R1 cannot be rescheduled from EXEMPT_PRISONER_MERGE (exemption_cleared)",
		},
		{
			name:        "readmission lifts a staff exemption",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusExemptPrisonerFailedToEngage, To: StatusScheduled, Cause: CauseReadmission},
			wantAllowed: true,
		},
		{
			name:        "readmission lifts a release exemption",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusExemptPrisonerRelease, To: StatusScheduled, Cause: CauseReadmission},
			wantAllowed: true,
		},
		{
			name:        "readmission cannot lift a death exemption",
			ctx:         TransitionContext{Kind: KindInduction, Reference: "R1", From: StatusExemptPrisonerDeath, To: StatusScheduled, Cause: CauseReadmission},
			wantAllowed: false,
			wantReason:  "induction schedule R1 cannot be rescheduled from EXEMPT_PRISONER_DEATH (readmission)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CanTransition(tt.ctx)

			if result.Allowed != tt.wantAllowed {
				t.Errorf("CanTransition() Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if result.Reason != tt.wantReason {
				t.Errorf("CanTransition() Reason = %q, want %q", result.Reason, tt.wantReason)
			}

			err := result.Error()
			if tt.wantAllowed && err != nil {
				t.Errorf("CanTransition().Error() = %v, want nil", err)
			}
			if !tt.wantAllowed && err == nil {
				t.Error("CanTransition().Error() = nil, want error")
			}
		})
	}
}

func TestStatusValidFor(t *testing.T) {
	tests := []struct {
		status Status
		kind   Kind
		want   bool
	}{
		{StatusScheduled, KindInduction, true},
		{StatusComplete, KindReview, true},
		{StatusExemptUnknown, KindInduction, false},
		{StatusExemptUnknown, KindReview, true},
		{StatusExemptPrisonerDeath, KindInduction, true},
		{StatusExemptSystemTechnicalIssue, KindReview, true},
		{Status("EXEMPT_BANANA"), KindReview, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.kind), func(t *testing.T) {
			if got := tt.status.ValidFor(tt.kind); got != tt.want {
				t.Errorf("ValidFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if !StatusComplete.IsTerminal() {
		t.Error("COMPLETE should be terminal")
	}
	for _, s := range []Status{StatusScheduled, StatusExemptPrisonerRelease, StatusExemptPrisonerDeath, StatusExemptUnknown} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}
