package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/plp/internal/clock"
	"github.com/example/plp/internal/core/reconcile"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

// LearningPlanServiceImpl implements the LearningPlanService interface.
type LearningPlanServiceImpl struct {
	learningPlans secondary.LearningPlanRepository
	inductions    primary.InductionScheduleService
	reviews       primary.ReviewScheduleService
	clock         clock.Clock
	newRef        func() string
	logger        *slog.Logger
}

// NewLearningPlanService creates a new LearningPlanService with injected dependencies.
func NewLearningPlanService(
	learningPlans secondary.LearningPlanRepository,
	inductions primary.InductionScheduleService,
	reviews primary.ReviewScheduleService,
	clk clock.Clock,
	newRef func() string,
	logger *slog.Logger,
) *LearningPlanServiceImpl {
	return &LearningPlanServiceImpl{
		learningPlans: learningPlans,
		inductions:    inductions,
		reviews:       reviews,
		clock:         clk,
		newRef:        newRef,
		logger:        logger,
	}
}

// RecordInduction stores a completed induction, completes the induction
// schedule and, when the action plan already has goals, creates the initial
// review schedule.
func (s *LearningPlanServiceImpl) RecordInduction(ctx context.Context, req primary.RecordInductionRequest) (*primary.RecordInductionResponse, error) {
	if req.PersonID == "" {
		return nil, fmt.Errorf("person ID is required")
	}
	completedAt := req.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.clock.Now()
	}

	record := &secondary.InductionRecord{
		Reference:   s.newRef(),
		PersonID:    req.PersonID,
		PrisonID:    req.PrisonID,
		CompletedAt: completedAt,
		CompletedBy: actorOrSystem(req.Actor),
	}
	if err := s.learningPlans.RecordInduction(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record induction: %w", err)
	}

	resp := &primary.RecordInductionResponse{InductionReference: record.Reference}

	cur, err := s.inductions.GetInductionScheduleForPrisoner(ctx, req.PersonID)
	switch {
	case errors.Is(err, schedule.ErrNotFound):
		resp.InductionSchedule = &primary.ScheduleResult{Outcome: schedule.OutcomeUnchanged, Reason: "no induction schedule"}
	case err != nil:
		return nil, err
	case !cur.IsActive():
		resp.InductionSchedule = &primary.ScheduleResult{Outcome: schedule.OutcomeUnchanged, Schedule: cur, Reason: "induction schedule already complete"}
	default:
		resp.InductionSchedule, err = s.inductions.UpdateInductionSchedule(ctx, primary.UpdateScheduleStatusRequest{
			PersonID: req.PersonID,
			Status:   string(schedule.StatusComplete),
			PrisonID: req.PrisonID,
			Actor:    req.Actor,
			Trigger:  schedule.APITrigger("record-induction"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to complete induction schedule: %w", err)
		}
	}

	resp.ReviewSchedule, err = s.createInitialReview(ctx, req.PersonID, req.PrisonID, req.Actor, "record-induction")
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// SaveActionPlan reconciles the person's goals against the given set and,
// once an induction is recorded and a goal exists, creates the initial review
// schedule.
func (s *LearningPlanServiceImpl) SaveActionPlan(ctx context.Context, req primary.SaveActionPlanRequest) (*primary.SaveActionPlanResponse, error) {
	if req.PersonID == "" {
		return nil, fmt.Errorf("person ID is required")
	}

	stored, err := s.learningPlans.ListGoals(ctx, req.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	actor := actorOrSystem(req.Actor)
	now := s.clock.Now()
	incoming := make([]*secondary.GoalRecord, 0, len(req.Goals))
	for _, g := range req.Goals {
		incoming = append(incoming, &secondary.GoalRecord{
			Reference:  g.Reference,
			PersonID:   req.PersonID,
			Title:      g.Title,
			TargetDate: g.TargetDate,
			Status:     g.Status,
		})
	}

	part := reconcile.Partition(stored, incoming, func(g *secondary.GoalRecord) string { return g.Reference })

	var changes secondary.GoalChanges
	for _, p := range part.Updates {
		g := *p.Old
		g.Title = p.New.Title
		g.TargetDate = p.New.TargetDate
		g.Status = p.New.Status
		g.UpdatedBy = actor
		g.UpdatedAt = now
		changes.Updates = append(changes.Updates, &g)
	}
	for _, n := range part.Inserts {
		g := *n
		if g.Reference == "" {
			g.Reference = s.newRef()
		}
		g.CreatedBy, g.CreatedAt = actor, now
		g.UpdatedBy, g.UpdatedAt = actor, now
		changes.Inserts = append(changes.Inserts, &g)
	}
	changes.Deletes = part.Deletes

	if err := s.learningPlans.SaveGoals(ctx, req.PersonID, changes); err != nil {
		return nil, fmt.Errorf("failed to save goals: %w", err)
	}

	resp := &primary.SaveActionPlanResponse{
		Updated:  len(changes.Updates),
		Inserted: len(changes.Inserts),
		Deleted:  len(changes.Deletes),
	}
	resp.ReviewSchedule, err = s.createInitialReview(ctx, req.PersonID, req.PrisonID, req.Actor, "save-action-plan")
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// createInitialReview creates the initial review schedule when the learning
// plan allows one. A precondition failure is reported in the result since
// the learning plan write has already happened.
func (s *LearningPlanServiceImpl) createInitialReview(ctx context.Context, personID, prisonID, actor, action string) (*primary.ScheduleResult, error) {
	status, err := s.learningPlans.GetStatus(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to get learning plan status: %w", err)
	}
	if !status.HasInduction || status.GoalCount == 0 {
		return &primary.ScheduleResult{Outcome: schedule.OutcomeUnchanged, Reason: "no completed induction with goals"}, nil
	}

	res, err := s.reviews.CreateInitialReviewSchedule(ctx, primary.CreateInitialReviewScheduleRequest{
		PersonID: personID,
		PrisonID: prisonID,
		Actor:    actor,
		Trigger:  schedule.APITrigger(action),
	})
	if errors.Is(err, schedule.ErrPrecondition) {
		s.logger.WarnContext(ctx, "initial review schedule not created", "person_id", personID, "error", err)
		return &primary.ScheduleResult{Outcome: schedule.OutcomeRejected, Reason: err.Error()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create initial review schedule: %w", err)
	}
	return res, nil
}

// Ensure LearningPlanServiceImpl implements the interface
var _ primary.LearningPlanService = (*LearningPlanServiceImpl)(nil)
