package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/plp/internal/clock"
	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/review"
	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

// ReviewScheduleServiceImpl implements the ReviewScheduleService interface.
type ReviewScheduleServiceImpl struct {
	store         scheduleStore
	learningPlans secondary.LearningPlanRepository
	prisoners     secondary.PrisonerDirectory
	table         calculation.Table
	clock         clock.Clock
	newRef        func() string
	logger        *slog.Logger
}

// NewReviewScheduleService creates a new ReviewScheduleService with injected dependencies.
func NewReviewScheduleService(
	repo secondary.ScheduleRepository,
	learningPlans secondary.LearningPlanRepository,
	prisoners secondary.PrisonerDirectory,
	users secondary.UserDirectory,
	executor EffectExecutor,
	table calculation.Table,
	clk clock.Clock,
	newRef func() string,
	logger *slog.Logger,
) *ReviewScheduleServiceImpl {
	return &ReviewScheduleServiceImpl{
		store:         scheduleStore{kind: schedule.KindReview, repo: repo, executor: executor, users: users},
		learningPlans: learningPlans,
		prisoners:     prisoners,
		table:         table,
		clock:         clk,
		newRef:        newRef,
		logger:        logger,
	}
}

// CreateInitialReviewSchedule creates the first review schedule after an induction.
func (s *ReviewScheduleServiceImpl) CreateInitialReviewSchedule(ctx context.Context, req primary.CreateInitialReviewScheduleRequest) (*primary.ScheduleResult, error) {
	prereq, err := s.prerequisites(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}

	prisoner, err := s.prisoners.GetPrisoner(ctx, req.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prisoner: %w", err)
	}

	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	plan := review.PlanInitial(review.InitialInput{
		PersonID:      req.PersonID,
		Active:        active,
		Prerequisites: prereq,
		SentenceType:  calculation.SentenceType(prisoner.SentenceType),
		ReleaseDate:   prisoner.ReleaseDate,
		IsReadmission: req.IsReadmission,
		IsTransfer:    req.IsTransfer,
		ReferenceDate: now,
		NewReference:  s.newRef(),
		Audit:         audit(req.Actor, prisonOr(req.PrisonID, prisoner.PrisonID), now),
		Trigger:       triggerOr(req.Trigger, "create-initial-review-schedule"),
	}, s.table)

	return s.store.run(ctx, req.PersonID, plan)
}

// GetActiveReviewScheduleForPrisoner returns the non-terminal review schedule.
func (s *ReviewScheduleServiceImpl) GetActiveReviewScheduleForPrisoner(ctx context.Context, personID string) (*primary.Schedule, error) {
	cur, err := s.store.active(ctx, personID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, notFound(schedule.KindReview, personID)
	}
	return s.store.view(ctx, cur), nil
}

// GetReviewScheduleForPrisoner returns the latest review schedule, active or not.
func (s *ReviewScheduleServiceImpl) GetReviewScheduleForPrisoner(ctx context.Context, personID string) (*primary.Schedule, error) {
	cur, err := s.store.latest(ctx, personID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, notFound(schedule.KindReview, personID)
	}
	return s.store.view(ctx, cur), nil
}

// ExemptActiveReviewScheduleStatusDueToPrisonerRelease exempts the active schedule on release.
func (s *ReviewScheduleServiceImpl) ExemptActiveReviewScheduleStatusDueToPrisonerRelease(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return s.exempt(ctx, req, schedule.StatusExemptPrisonerRelease, "exempt-review-schedule-release")
}

// ExemptActiveReviewScheduleStatusDueToPrisonerDeath exempts the active schedule on death.
func (s *ReviewScheduleServiceImpl) ExemptActiveReviewScheduleStatusDueToPrisonerDeath(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return s.exempt(ctx, req, schedule.StatusExemptPrisonerDeath, "exempt-review-schedule-death")
}

// ExemptActiveReviewScheduleStatusDueToPrisonerMerge exempts the schedule of a merged-away record.
func (s *ReviewScheduleServiceImpl) ExemptActiveReviewScheduleStatusDueToPrisonerMerge(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return s.exempt(ctx, req, schedule.StatusExemptPrisonerMerge, "exempt-review-schedule-merge")
}

// ExemptActiveReviewScheduleStatusDueToPrisonerTransfer exempts the active schedule on transfer.
func (s *ReviewScheduleServiceImpl) ExemptActiveReviewScheduleStatusDueToPrisonerTransfer(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return s.exempt(ctx, req, schedule.StatusExemptPrisonerTransfer, "exempt-review-schedule-transfer")
}

// ExemptActiveReviewScheduleStatusDueToUnknownReason exempts the active schedule for an
// unclassified release.
func (s *ReviewScheduleServiceImpl) ExemptActiveReviewScheduleStatusDueToUnknownReason(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return s.exempt(ctx, req, schedule.StatusExemptUnknown, "exempt-review-schedule-unknown")
}

func (s *ReviewScheduleServiceImpl) exempt(ctx context.Context, req primary.ExemptionRequest, status schedule.Status, action string) (*primary.ScheduleResult, error) {
	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}

	plan := review.PlanExemption(review.ExemptionInput{
		Active:  active,
		Status:  status,
		Audit:   audit(req.Actor, req.PrisonID, s.clock.Now()),
		Trigger: triggerOr(req.Trigger, action),
	})
	if !plan.Changed() {
		s.logger.DebugContext(ctx, "review exemption skipped",
			"person_id", req.PersonID, "status", status, "reason", plan.Reason)
	}
	return s.store.run(ctx, req.PersonID, plan)
}

// ExemptAndRescheduleActiveReviewScheduleStatusDueToPrisonerTransfer exempts the
// active schedule for a transfer and reactivates it in one transaction.
func (s *ReviewScheduleServiceImpl) ExemptAndRescheduleActiveReviewScheduleStatusDueToPrisonerTransfer(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	in, err := s.receiptInput(ctx, req)
	if err != nil {
		return nil, err
	}
	in.Trigger = triggerOr(req.Trigger, "exempt-and-reschedule-review-schedule-transfer")
	return s.store.run(ctx, req.PersonID, review.PlanExemptAndReschedule(in, s.table))
}

// RescheduleActiveReviewScheduleForReadmission reactivates or recalculates the
// schedule under the readmission rule.
func (s *ReviewScheduleServiceImpl) RescheduleActiveReviewScheduleForReadmission(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	if !req.Movement.IsReadmission() {
		req.Movement = routing.MovementAdmission
	}
	in, err := s.receiptInput(ctx, req)
	if err != nil {
		return nil, err
	}
	in.Trigger = triggerOr(req.Trigger, "reschedule-review-schedule-readmission")
	return s.store.run(ctx, req.PersonID, review.PlanReceipt(in, s.table))
}

// HandleReceipt evaluates a prisoner being received into a prison. A return
// from court leaves the review schedule alone.
func (s *ReviewScheduleServiceImpl) HandleReceipt(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	switch req.Movement {
	case routing.MovementTransfer:
		return s.ExemptAndRescheduleActiveReviewScheduleStatusDueToPrisonerTransfer(ctx, req)
	case routing.MovementAdmission, routing.MovementTemporaryAbsenceReturn:
		return s.RescheduleActiveReviewScheduleForReadmission(ctx, req)
	}

	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}
	return &primary.ScheduleResult{
		Outcome:  schedule.OutcomeUnchanged,
		Schedule: s.store.view(ctx, active),
		Reason:   fmt.Sprintf("%s keeps the current review schedule", req.Movement),
	}, nil
}

func (s *ReviewScheduleServiceImpl) receiptInput(ctx context.Context, req primary.ReceiptRequest) (review.ReceiptInput, error) {
	prereq, err := s.prerequisites(ctx, req.PersonID)
	if err != nil {
		return review.ReceiptInput{}, err
	}
	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return review.ReceiptInput{}, err
	}

	occurred := req.OccurredAt
	if occurred.IsZero() {
		occurred = s.clock.Now()
	}
	return review.ReceiptInput{
		PersonID:      req.PersonID,
		Movement:      req.Movement,
		Active:        active,
		Prerequisites: prereq,
		ReleaseDate:   req.ReleaseDate,
		OccurredAt:    occurred,
		NewReference:  s.newRef(),
		Audit:         audit(req.Actor, req.PrisonID, s.clock.Now()),
		Trigger:       triggerOr(req.Trigger, "receive-prisoner"),
	}, nil
}

// UpdateReviewScheduleStatus applies a staff exemption or clears one.
func (s *ReviewScheduleServiceImpl) UpdateReviewScheduleStatus(ctx context.Context, req primary.UpdateScheduleStatusRequest) (*primary.ScheduleResult, error) {
	status, ok := schedule.ParseStatus(schedule.KindReview, req.Status)
	if !ok {
		return nil, fmt.Errorf("invalid review schedule status %q", req.Status)
	}
	if status == schedule.StatusComplete {
		return nil, fmt.Errorf("review schedules are completed with CompleteActiveReviewSchedule")
	}

	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, notFound(schedule.KindReview, req.PersonID)
	}

	plan := review.PlanStatusUpdate(review.StatusInput{
		Active:          *active,
		Status:          status,
		ExemptionReason: req.ExemptionReason,
		Audit:           audit(req.Actor, req.PrisonID, s.clock.Now()),
		Trigger:         triggerOr(req.Trigger, "update-review-schedule-status"),
	}, s.table)

	return s.store.run(ctx, req.PersonID, plan)
}

// CompleteActiveReviewSchedule completes the active review and schedules the
// next one.
func (s *ReviewScheduleServiceImpl) CompleteActiveReviewSchedule(ctx context.Context, req primary.CompleteReviewRequest) (*primary.CompleteReviewResult, error) {
	active, err := s.store.active(ctx, req.PersonID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, notFound(schedule.KindReview, req.PersonID)
	}

	prisoner, err := s.prisoners.GetPrisoner(ctx, req.PersonID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prisoner: %w", err)
	}

	plan := review.PlanCompletion(review.CompletionInput{
		PersonID:     req.PersonID,
		Active:       active,
		SentenceType: calculation.SentenceType(prisoner.SentenceType),
		ReleaseDate:  prisoner.ReleaseDate,
		NewReference: s.newRef(),
		Audit:        audit(req.Actor, prisonOr(req.PrisonID, prisoner.PrisonID), s.clock.Now()),
		Trigger:      triggerOr(req.Trigger, "complete-review-schedule"),
	}, s.table)

	res, err := s.store.run(ctx, req.PersonID, plan.Plan)
	if err != nil {
		return nil, err
	}
	if plan.Reason != "" {
		s.logger.WarnContext(ctx, "review completed without a next schedule",
			"person_id", req.PersonID, "reason", plan.Reason)
	}
	return &primary.CompleteReviewResult{
		Completed: res.Schedule,
		Next:      s.store.view(ctx, plan.Next),
		Reason:    plan.Reason,
	}, nil
}

// GetReviewScheduleHistory returns every version of the latest review schedule.
func (s *ReviewScheduleServiceImpl) GetReviewScheduleHistory(ctx context.Context, personID string) ([]*primary.ScheduleVersion, error) {
	return s.store.history(ctx, personID)
}

func (s *ReviewScheduleServiceImpl) prerequisites(ctx context.Context, personID string) (review.Prerequisites, error) {
	lp, err := s.learningPlans.GetStatus(ctx, personID)
	if err != nil {
		return review.Prerequisites{}, fmt.Errorf("failed to get learning plan status: %w", err)
	}
	return review.Prerequisites{HasInduction: lp.HasInduction, GoalCount: lp.GoalCount}, nil
}

func prisonOr(prisonID, fallback string) string {
	if prisonID != "" {
		return prisonID
	}
	return fallback
}

// Ensure ReviewScheduleServiceImpl implements the interface
var _ primary.ReviewScheduleService = (*ReviewScheduleServiceImpl)(nil)
