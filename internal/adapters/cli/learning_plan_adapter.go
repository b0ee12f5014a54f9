package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/plp/internal/ports/primary"
)

// LearningPlanAdapter translates learning plan commands to the learning plan service.
type LearningPlanAdapter struct {
	service primary.LearningPlanService
	out     io.Writer
}

// NewLearningPlanAdapter creates a new LearningPlanAdapter.
func NewLearningPlanAdapter(service primary.LearningPlanService, out io.Writer) *LearningPlanAdapter {
	return &LearningPlanAdapter{service: service, out: out}
}

// RecordInduction records a completed induction.
func (a *LearningPlanAdapter) RecordInduction(ctx context.Context, req primary.RecordInductionRequest) error {
	resp, err := a.service.RecordInduction(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to record induction: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Recorded induction %s for %s\n", resp.InductionReference, req.PersonID)
	a.printScheduleResult("Induction schedule", resp.InductionSchedule)
	a.printScheduleResult("Review schedule", resp.ReviewSchedule)
	return nil
}

// SaveActionPlan saves the full goal set of a person's action plan.
func (a *LearningPlanAdapter) SaveActionPlan(ctx context.Context, req primary.SaveActionPlanRequest) error {
	resp, err := a.service.SaveActionPlan(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to save action plan: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Saved action plan for %s: %d inserted, %d updated, %d deleted\n",
		req.PersonID, resp.Inserted, resp.Updated, resp.Deleted)
	a.printScheduleResult("Review schedule", resp.ReviewSchedule)
	return nil
}

func (a *LearningPlanAdapter) printScheduleResult(label string, res *primary.ScheduleResult) {
	if res == nil {
		return
	}
	switch {
	case res.Reason != "":
		color.New(color.FgYellow).Fprintf(a.out, "  %s %s: %s\n", label, res.Outcome, res.Reason)
	case res.Schedule != nil:
		fmt.Fprintf(a.out, "  %s %s: %s %s\n", label, res.Outcome, res.Schedule.Reference,
			statusColor(res.Schedule.Status).Sprint(res.Schedule.Status))
	default:
		fmt.Fprintf(a.out, "  %s %s\n", label, res.Outcome)
	}
}
