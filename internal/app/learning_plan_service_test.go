package app

import (
	"context"
	"testing"

	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
)

func TestLearningPlanService_RecordInductionThenActionPlan(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.addPrisoner("A1234BC", "SENTENCED", date(2028, 1, 1))
	e.seed(t, schedule.KindInduction, "IND-1", "A1234BC", calculation.InductionNewPrisonAdmission, schedule.StatusScheduled)

	rec, err := e.learningPlans.RecordInduction(ctx, primary.RecordInductionRequest{PersonID: "A1234BC", PrisonID: "BXI", Actor: "jsmith"})
	if err != nil {
		t.Fatalf("RecordInduction() error = %v", err)
	}
	if rec.InductionReference == "" {
		t.Error("expected an induction reference")
	}
	if rec.InductionSchedule.Outcome != schedule.OutcomeUpdated || rec.InductionSchedule.Schedule.Status != schedule.StatusComplete {
		t.Errorf("induction schedule = %+v, want completed", rec.InductionSchedule)
	}
	if rec.ReviewSchedule.Outcome != schedule.OutcomeUnchanged {
		t.Errorf("review schedule outcome = %s, want unchanged until goals exist", rec.ReviewSchedule.Outcome)
	}

	plan, err := e.learningPlans.SaveActionPlan(ctx, primary.SaveActionPlanRequest{
		PersonID: "A1234BC",
		PrisonID: "BXI",
		Actor:    "jsmith",
		Goals:    []primary.Goal{{Title: "Improve maths", Status: "ACTIVE"}},
	})
	if err != nil {
		t.Fatalf("SaveActionPlan() error = %v", err)
	}
	if plan.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", plan.Inserted)
	}
	if plan.ReviewSchedule.Outcome != schedule.OutcomeCreated {
		t.Fatalf("review schedule outcome = %s, want created", plan.ReviewSchedule.Outcome)
	}
	rev := plan.ReviewSchedule.Schedule
	if rev.CalculationRule != calculation.ReviewBetween12And60MonthsToServe {
		t.Errorf("rule = %s", rev.CalculationRule)
	}
	wantWindow := e.table.ReviewWindow(calculation.ReviewBetween12And60MonthsToServe, testNow, date(2028, 1, 1))
	if !rev.Window.Equal(wantWindow) {
		t.Errorf("window = %+v, want %+v", rev.Window, wantWindow)
	}

	// Saving the plan again reuses the active schedule.
	plan, err = e.learningPlans.SaveActionPlan(ctx, primary.SaveActionPlanRequest{
		PersonID: "A1234BC",
		Goals:    []primary.Goal{{Title: "Improve maths", Status: "ACTIVE"}, {Title: "Level 2 English", Status: "ACTIVE"}},
	})
	if err != nil {
		t.Fatalf("second SaveActionPlan() error = %v", err)
	}
	if plan.ReviewSchedule.Outcome != schedule.OutcomeAlreadyExists {
		t.Errorf("second review schedule outcome = %s, want already_exists", plan.ReviewSchedule.Outcome)
	}
	e.assertConsistent(t, "A1234BC")
}

func TestLearningPlanService_SaveActionPlanReconcilesGoals(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	first, err := e.learningPlans.SaveActionPlan(ctx, primary.SaveActionPlanRequest{
		PersonID: "A1234BC",
		Goals: []primary.Goal{
			{Title: "Improve maths", Status: "ACTIVE"},
			{Title: "Barista course", Status: "ACTIVE"},
		},
	})
	if err != nil {
		t.Fatalf("SaveActionPlan() error = %v", err)
	}
	if first.Inserted != 2 {
		t.Fatalf("inserted = %d, want 2", first.Inserted)
	}

	stored, _ := e.plans.ListGoals(ctx, "A1234BC")
	var keep string
	for _, g := range stored {
		if g.Title == "Improve maths" {
			keep = g.Reference
		}
	}

	second, err := e.learningPlans.SaveActionPlan(ctx, primary.SaveActionPlanRequest{
		PersonID: "A1234BC",
		Actor:    "jsmith",
		Goals: []primary.Goal{
			{Reference: keep, Title: "Improve maths", Status: "COMPLETED"},
			{Title: "Level 2 English", Status: "ACTIVE"},
		},
	})
	if err != nil {
		t.Fatalf("SaveActionPlan() error = %v", err)
	}
	if second.Updated != 1 || second.Inserted != 1 || second.Deleted != 1 {
		t.Errorf("changes = %d updated, %d inserted, %d deleted; want 1 each", second.Updated, second.Inserted, second.Deleted)
	}

	stored, _ = e.plans.ListGoals(ctx, "A1234BC")
	if len(stored) != 2 {
		t.Fatalf("stored goals = %d, want 2", len(stored))
	}
	for _, g := range stored {
		if g.Reference == keep && (g.Status != "COMPLETED" || g.UpdatedBy != "jsmith" || g.CreatedBy != SystemActor) {
			t.Errorf("updated goal = %+v", g)
		}
	}
	if second.ReviewSchedule.Outcome != schedule.OutcomeUnchanged {
		t.Errorf("review schedule outcome = %s, want unchanged without an induction", second.ReviewSchedule.Outcome)
	}
}

func TestLearningPlanService_PreconditionDoesNotFailTheWrite(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.addPrisoner("A1234BC", "RECALL", nil)
	if _, err := e.learningPlans.RecordInduction(ctx, primary.RecordInductionRequest{PersonID: "A1234BC"}); err != nil {
		t.Fatalf("RecordInduction() error = %v", err)
	}

	plan, err := e.learningPlans.SaveActionPlan(ctx, primary.SaveActionPlanRequest{
		PersonID: "A1234BC",
		Goals:    []primary.Goal{{Title: "Improve maths"}},
	})
	if err != nil {
		t.Fatalf("SaveActionPlan() error = %v", err)
	}
	if plan.ReviewSchedule.Outcome != schedule.OutcomeRejected || plan.ReviewSchedule.Reason == "" {
		t.Errorf("review schedule = %+v, want rejected with a reason", plan.ReviewSchedule)
	}
	status, _ := e.plans.GetStatus(ctx, "A1234BC")
	if status.GoalCount != 1 {
		t.Errorf("goal count = %d, want 1", status.GoalCount)
	}
}
