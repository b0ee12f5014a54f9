package primary

import (
	"context"
	"time"

	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
)

// Schedule is a schedule as returned to callers, with audit usernames
// resolved to display names.
type Schedule struct {
	schedule.Schedule
	CreatedByDisplayName string
	UpdatedByDisplayName string
}

// ScheduleVersion is one history entry as returned to callers.
type ScheduleVersion struct {
	Schedule
	Trigger schedule.Trigger
}

// ScheduleResult is the normal-flow result of a schedule operation.
// Outcome AlreadyExists and Unchanged are successes.
type ScheduleResult struct {
	Outcome  schedule.Outcome
	Schedule *Schedule
	Reason   string
}

// InductionScheduleService defines the primary port for the Induction
// Schedule state machine.
type InductionScheduleService interface {
	// CreateInductionSchedule creates a SCHEDULED schedule, or returns the
	// active one with Outcome AlreadyExists.
	CreateInductionSchedule(ctx context.Context, req CreateInductionScheduleRequest) (*ScheduleResult, error)

	// RescheduleInductionSchedule recomputes the deadline of the active schedule.
	RescheduleInductionSchedule(ctx context.Context, req RescheduleInductionScheduleRequest) (*ScheduleResult, error)

	// UpdateInductionSchedule applies a direct status change to the latest schedule.
	UpdateInductionSchedule(ctx context.Context, req UpdateScheduleStatusRequest) (*ScheduleResult, error)

	// HandleReceipt evaluates a prisoner being received into a prison.
	HandleReceipt(ctx context.Context, req ReceiptRequest) (*ScheduleResult, error)

	// GetInductionScheduleForPrisoner returns the latest schedule.
	GetInductionScheduleForPrisoner(ctx context.Context, personID string) (*Schedule, error)

	// ListInductionSchedules returns the latest schedule of each person that has one.
	ListInductionSchedules(ctx context.Context, personIDs []string) ([]*Schedule, error)

	// GetInductionScheduleHistory returns every version of the latest schedule.
	GetInductionScheduleHistory(ctx context.Context, personID string) ([]*ScheduleVersion, error)
}

// ReviewScheduleService defines the primary port for the Review Schedule
// state machine.
type ReviewScheduleService interface {
	// CreateInitialReviewSchedule creates the first review schedule after an induction.
	CreateInitialReviewSchedule(ctx context.Context, req CreateInitialReviewScheduleRequest) (*ScheduleResult, error)

	// GetActiveReviewScheduleForPrisoner returns the non-terminal schedule.
	GetActiveReviewScheduleForPrisoner(ctx context.Context, personID string) (*Schedule, error)

	// GetReviewScheduleForPrisoner returns the latest schedule, active or not.
	GetReviewScheduleForPrisoner(ctx context.Context, personID string) (*Schedule, error)

	// Exemptions on movement. Each is a no-op when nothing is active.
	ExemptActiveReviewScheduleStatusDueToPrisonerRelease(ctx context.Context, req ExemptionRequest) (*ScheduleResult, error)
	ExemptActiveReviewScheduleStatusDueToPrisonerDeath(ctx context.Context, req ExemptionRequest) (*ScheduleResult, error)
	ExemptActiveReviewScheduleStatusDueToPrisonerMerge(ctx context.Context, req ExemptionRequest) (*ScheduleResult, error)
	ExemptActiveReviewScheduleStatusDueToPrisonerTransfer(ctx context.Context, req ExemptionRequest) (*ScheduleResult, error)
	ExemptActiveReviewScheduleStatusDueToUnknownReason(ctx context.Context, req ExemptionRequest) (*ScheduleResult, error)

	// ExemptAndRescheduleActiveReviewScheduleStatusDueToPrisonerTransfer exempts
	// the active schedule for a transfer and reactivates it in one unit of work.
	ExemptAndRescheduleActiveReviewScheduleStatusDueToPrisonerTransfer(ctx context.Context, req ReceiptRequest) (*ScheduleResult, error)

	// RescheduleActiveReviewScheduleForReadmission reactivates or recalculates
	// the schedule under the readmission rule.
	RescheduleActiveReviewScheduleForReadmission(ctx context.Context, req ReceiptRequest) (*ScheduleResult, error)

	// HandleReceipt evaluates a prisoner being received into a prison.
	HandleReceipt(ctx context.Context, req ReceiptRequest) (*ScheduleResult, error)

	// UpdateReviewScheduleStatus applies a staff exemption or clears one.
	UpdateReviewScheduleStatus(ctx context.Context, req UpdateScheduleStatusRequest) (*ScheduleResult, error)

	// CompleteActiveReviewSchedule completes the active review and schedules the next.
	CompleteActiveReviewSchedule(ctx context.Context, req CompleteReviewRequest) (*CompleteReviewResult, error)

	// GetReviewScheduleHistory returns every version of the latest schedule.
	GetReviewScheduleHistory(ctx context.Context, personID string) ([]*ScheduleVersion, error)
}

// CreateInductionScheduleRequest contains parameters for creating an induction schedule.
type CreateInductionScheduleRequest struct {
	PersonID        string
	AdmissionDate   time.Time
	PrisonID        string
	ReleaseDate     *time.Time
	SentenceType    string
	AdmissionReason string
	Actor           string
	Trigger         schedule.Trigger
}

// RescheduleInductionScheduleRequest contains parameters for recomputing a deadline.
type RescheduleInductionScheduleRequest struct {
	PersonID         string
	NewAdmissionDate time.Time
	PrisonID         string
	ReleaseDate      *time.Time
	Rule             schedule.CalculationRule
	Actor            string
	Trigger          schedule.Trigger
}

// UpdateScheduleStatusRequest contains parameters for a direct status change.
type UpdateScheduleStatusRequest struct {
	PersonID        string
	Status          string
	ExemptionReason string
	PrisonID        string
	Actor           string
	Trigger         schedule.Trigger
}

// ReceiptRequest describes a prisoner being received into a prison, with the
// sentence facts already gathered by the caller.
type ReceiptRequest struct {
	PersonID     string
	Movement     routing.Movement
	OccurredAt   time.Time
	PrisonID     string
	SentenceType string
	ReleaseDate  *time.Time
	Actor        string
	Trigger      schedule.Trigger
}

// ExemptionRequest contains parameters for a movement exemption.
type ExemptionRequest struct {
	PersonID string
	PrisonID string
	Actor    string
	Trigger  schedule.Trigger
}

// CreateInitialReviewScheduleRequest contains parameters for the first review schedule.
type CreateInitialReviewScheduleRequest struct {
	PersonID      string
	PrisonID      string
	IsReadmission bool
	IsTransfer    bool
	Actor         string
	Trigger       schedule.Trigger
}

// CompleteReviewRequest contains parameters for completing the active review.
type CompleteReviewRequest struct {
	PersonID string
	PrisonID string
	Actor    string
	Trigger  schedule.Trigger
}

// CompleteReviewResult contains the completed review and its successor, if any.
type CompleteReviewResult struct {
	Completed *Schedule
	Next      *Schedule
	Reason    string
}
