package cli

import (
	"context"
	"errors"

	"github.com/example/plp/internal/ports/primary"
)

var errNotUsed = errors.New("not implemented in adapter")

// mockInductionService implements primary.InductionScheduleService for testing
type mockInductionService struct {
	getFn     func(ctx context.Context, personID string) (*primary.Schedule, error)
	listFn    func(ctx context.Context, personIDs []string) ([]*primary.Schedule, error)
	historyFn func(ctx context.Context, personID string) ([]*primary.ScheduleVersion, error)
	updateFn  func(ctx context.Context, req primary.UpdateScheduleStatusRequest) (*primary.ScheduleResult, error)

	lastUpdateReq primary.UpdateScheduleStatusRequest
}

func (m *mockInductionService) CreateInductionSchedule(ctx context.Context, req primary.CreateInductionScheduleRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockInductionService) RescheduleInductionSchedule(ctx context.Context, req primary.RescheduleInductionScheduleRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockInductionService) UpdateInductionSchedule(ctx context.Context, req primary.UpdateScheduleStatusRequest) (*primary.ScheduleResult, error) {
	m.lastUpdateReq = req
	if m.updateFn != nil {
		return m.updateFn(ctx, req)
	}
	return nil, errNotUsed
}

func (m *mockInductionService) HandleReceipt(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockInductionService) GetInductionScheduleForPrisoner(ctx context.Context, personID string) (*primary.Schedule, error) {
	if m.getFn != nil {
		return m.getFn(ctx, personID)
	}
	return nil, errNotUsed
}

func (m *mockInductionService) ListInductionSchedules(ctx context.Context, personIDs []string) ([]*primary.Schedule, error) {
	if m.listFn != nil {
		return m.listFn(ctx, personIDs)
	}
	return nil, nil
}

func (m *mockInductionService) GetInductionScheduleHistory(ctx context.Context, personID string) ([]*primary.ScheduleVersion, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, personID)
	}
	return nil, errNotUsed
}

// mockReviewService implements primary.ReviewScheduleService for testing
type mockReviewService struct {
	getFn      func(ctx context.Context, personID string) (*primary.Schedule, error)
	historyFn  func(ctx context.Context, personID string) ([]*primary.ScheduleVersion, error)
	updateFn   func(ctx context.Context, req primary.UpdateScheduleStatusRequest) (*primary.ScheduleResult, error)
	completeFn func(ctx context.Context, req primary.CompleteReviewRequest) (*primary.CompleteReviewResult, error)

	lastCompleteReq primary.CompleteReviewRequest
}

func (m *mockReviewService) CreateInitialReviewSchedule(ctx context.Context, req primary.CreateInitialReviewScheduleRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) GetActiveReviewScheduleForPrisoner(ctx context.Context, personID string) (*primary.Schedule, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) GetReviewScheduleForPrisoner(ctx context.Context, personID string) (*primary.Schedule, error) {
	if m.getFn != nil {
		return m.getFn(ctx, personID)
	}
	return nil, errNotUsed
}

func (m *mockReviewService) ExemptActiveReviewScheduleStatusDueToPrisonerRelease(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) ExemptActiveReviewScheduleStatusDueToPrisonerDeath(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) ExemptActiveReviewScheduleStatusDueToPrisonerMerge(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) ExemptActiveReviewScheduleStatusDueToPrisonerTransfer(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) ExemptActiveReviewScheduleStatusDueToUnknownReason(ctx context.Context, req primary.ExemptionRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) ExemptAndRescheduleActiveReviewScheduleStatusDueToPrisonerTransfer(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) RescheduleActiveReviewScheduleForReadmission(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) HandleReceipt(ctx context.Context, req primary.ReceiptRequest) (*primary.ScheduleResult, error) {
	return nil, errNotUsed
}

func (m *mockReviewService) UpdateReviewScheduleStatus(ctx context.Context, req primary.UpdateScheduleStatusRequest) (*primary.ScheduleResult, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, req)
	}
	return nil, errNotUsed
}

func (m *mockReviewService) CompleteActiveReviewSchedule(ctx context.Context, req primary.CompleteReviewRequest) (*primary.CompleteReviewResult, error) {
	m.lastCompleteReq = req
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return nil, errNotUsed
}

func (m *mockReviewService) GetReviewScheduleHistory(ctx context.Context, personID string) ([]*primary.ScheduleVersion, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, personID)
	}
	return nil, errNotUsed
}

// mockMessageService implements primary.MessageService for testing
type mockMessageService struct {
	disposition primary.Disposition
	parked      []primary.ParkedMessage
	parkedErr   error

	lastMsg primary.InboundMessage
}

func (m *mockMessageService) HandleMessage(ctx context.Context, msg primary.InboundMessage) primary.Disposition {
	m.lastMsg = msg
	if m.disposition == "" {
		return primary.DispositionAck
	}
	return m.disposition
}

func (m *mockMessageService) ListParked(ctx context.Context) ([]primary.ParkedMessage, error) {
	return m.parked, m.parkedErr
}

// mockLearningPlanService implements primary.LearningPlanService for testing
type mockLearningPlanService struct {
	recordFn func(ctx context.Context, req primary.RecordInductionRequest) (*primary.RecordInductionResponse, error)
	saveFn   func(ctx context.Context, req primary.SaveActionPlanRequest) (*primary.SaveActionPlanResponse, error)
}

func (m *mockLearningPlanService) RecordInduction(ctx context.Context, req primary.RecordInductionRequest) (*primary.RecordInductionResponse, error) {
	if m.recordFn != nil {
		return m.recordFn(ctx, req)
	}
	return nil, errNotUsed
}

func (m *mockLearningPlanService) SaveActionPlan(ctx context.Context, req primary.SaveActionPlanRequest) (*primary.SaveActionPlanResponse, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, req)
	}
	return nil, errNotUsed
}
