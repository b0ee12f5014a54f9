package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/plp/internal/clock"
	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/induction"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

// InductionScheduleServiceImpl implements the InductionScheduleService interface.
type InductionScheduleServiceImpl struct {
	store         scheduleStore
	learningPlans secondary.LearningPlanRepository
	table         calculation.Table
	clock         clock.Clock
	newRef        func() string
	logger        *slog.Logger
}

// NewInductionScheduleService creates a new InductionScheduleService with injected dependencies.
func NewInductionScheduleService(
	repo secondary.ScheduleRepository,
	learningPlans secondary.LearningPlanRepository,
	users secondary.UserDirectory,
	executor EffectExecutor,
	table calculation.Table,
	clk clock.Clock,
	newRef func() string,
	logger *slog.Logger,
) *InductionScheduleServiceImpl {
	return &InductionScheduleServiceImpl{
		store:         scheduleStore{kind: schedule.KindInduction, repo: repo, executor: executor, users: users},
		learningPlans: learningPlans,
		table:         table,
		clock:         clk,
		newRef:        newRef,
		logger:        logger,
	}
}

// CreateInductionSchedule creates a SCHEDULED induction schedule.
func (s *InductionScheduleServiceImpl) CreateInductionSchedule(ctx context.Context, req primary.CreateInductionScheduleRequest) (*primary.ScheduleResult, error) {
	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}

	reason := calculation.AdmissionReason(req.AdmissionReason)
	if reason == "" {
		reason = calculation.AdmissionNew
	}

	plan := induction.PlanCreate(induction.CreateInput{
		PersonID:        req.PersonID,
		Active:          active,
		AdmissionDate:   req.AdmissionDate,
		ReleaseDate:     req.ReleaseDate,
		SentenceType:    calculation.SentenceType(req.SentenceType),
		AdmissionReason: reason,
		NewReference:    s.newRef(),
		Audit:           audit(req.Actor, req.PrisonID, s.clock.Now()),
		Trigger:         triggerOr(req.Trigger, "create-induction-schedule"),
	}, s.table)

	return s.store.run(ctx, req.PersonID, plan)
}

// RescheduleInductionSchedule recomputes the deadline of the active schedule.
func (s *InductionScheduleServiceImpl) RescheduleInductionSchedule(ctx context.Context, req primary.RescheduleInductionScheduleRequest) (*primary.ScheduleResult, error) {
	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, notFound(schedule.KindInduction, req.PersonID)
	}

	rule := req.Rule
	if rule == "" {
		rule = active.CalculationRule
	}

	plan := induction.PlanReschedule(induction.RescheduleInput{
		Current:          *active,
		Rule:             rule,
		NewAdmissionDate: req.NewAdmissionDate,
		ReleaseDate:      req.ReleaseDate,
		Audit:            audit(req.Actor, req.PrisonID, s.clock.Now()),
		Trigger:          triggerOr(req.Trigger, "reschedule-induction-schedule"),
	}, s.table)

	return s.store.run(ctx, req.PersonID, plan)
}

// UpdateInductionSchedule applies a direct status change to the latest schedule.
func (s *InductionScheduleServiceImpl) UpdateInductionSchedule(ctx context.Context, req primary.UpdateScheduleStatusRequest) (*primary.ScheduleResult, error) {
	status, ok := schedule.ParseStatus(schedule.KindInduction, req.Status)
	if !ok {
		return nil, fmt.Errorf("invalid induction schedule status %q", req.Status)
	}

	cur, err := s.store.latest(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, notFound(schedule.KindInduction, req.PersonID)
	}

	plan := induction.PlanStatusUpdate(induction.StatusInput{
		Current:         *cur,
		Status:          status,
		ExemptionReason: req.ExemptionReason,
		Audit:           audit(req.Actor, req.PrisonID, s.clock.Now()),
		Trigger:         triggerOr(req.Trigger, "update-induction-schedule-status"),
	}, s.table)

	return s.store.run(ctx, req.PersonID, plan)
}

// HandleReceipt evaluates a prisoner being received into a prison.
func (s *InductionScheduleServiceImpl) HandleReceipt(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	cur, err := s.store.latest(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}

	lp, err := s.learningPlans.GetStatus(ctx, req.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get learning plan status: %w", err)
	}

	plan := induction.PlanReceipt(induction.ReceiptInput{
		PersonID:           req.PersonID,
		Movement:           req.Movement,
		Current:            cur,
		InductionCompleted: lp.HasInduction && lp.GoalCount > 0,
		SentenceType:       calculation.SentenceType(req.SentenceType),
		ReleaseDate:        req.ReleaseDate,
		OccurredAt:         req.OccurredAt,
		NewReference:       s.newRef(),
		Audit:              audit(req.Actor, req.PrisonID, s.clock.Now()),
		Trigger:            triggerOr(req.Trigger, "receive-prisoner"),
	}, s.table)

	if !plan.Changed() {
		s.logger.DebugContext(ctx, "induction schedule unchanged by receipt",
			"person_id", req.PersonID, "movement", req.Movement, "outcome", plan.Outcome, "reason", plan.Reason)
	}
	return s.store.run(ctx, req.PersonID, plan)
}

// GetInductionScheduleForPrisoner returns the latest induction schedule.
func (s *InductionScheduleServiceImpl) GetInductionScheduleForPrisoner(ctx context.Context, personID string) (*primary.Schedule, error) {
	cur, err := s.store.latest(ctx, personID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, notFound(schedule.KindInduction, personID)
	}
	return s.store.view(ctx, cur), nil
}

// ListInductionSchedules returns the latest schedule of each person that has one.
func (s *InductionScheduleServiceImpl) ListInductionSchedules(ctx context.Context, personIDs []string) ([]*primary.Schedule, error) {
	if len(personIDs) == 0 {
		return []*primary.Schedule{}, nil
	}
	list, err := s.store.repo.ListLatest(ctx, schedule.KindInduction, personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list induction schedules: %w", err)
	}
	out := make([]*primary.Schedule, 0, len(list))
	for i := range list {
		out = append(out, s.store.view(ctx, &list[i]))
	}
	return out, nil
}

// GetInductionScheduleHistory returns every version of the latest schedule.
func (s *InductionScheduleServiceImpl) GetInductionScheduleHistory(ctx context.Context, personID string) ([]*primary.ScheduleVersion, error) {
	return s.store.history(ctx, personID)
}

// Ensure InductionScheduleServiceImpl implements the interface
var _ primary.InductionScheduleService = (*InductionScheduleServiceImpl)(nil)
