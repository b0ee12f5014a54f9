package primary

import (
	"context"
	"time"
)

// LearningPlanService defines the primary port for the induction and action
// plan writes that drive explicit schedule transitions.
type LearningPlanService interface {
	// RecordInduction stores a completed induction and marks the induction
	// schedule COMPLETE.
	RecordInduction(ctx context.Context, req RecordInductionRequest) (*RecordInductionResponse, error)

	// SaveActionPlan reconciles the person's goals with the given set and
	// creates the initial review schedule once the plan has a goal.
	SaveActionPlan(ctx context.Context, req SaveActionPlanRequest) (*SaveActionPlanResponse, error)
}

// RecordInductionRequest contains parameters for recording an induction.
type RecordInductionRequest struct {
	PersonID    string
	PrisonID    string
	CompletedAt time.Time
	Actor       string
}

// RecordInductionResponse contains the result of recording an induction.
type RecordInductionResponse struct {
	InductionReference string
	InductionSchedule  *ScheduleResult
	ReviewSchedule     *ScheduleResult
}

// Goal is an action plan goal as supplied by callers. An empty Reference
// means a new goal.
type Goal struct {
	Reference  string
	Title      string
	TargetDate string
	Status     string
}

// SaveActionPlanRequest contains the full desired goal set for a person.
type SaveActionPlanRequest struct {
	PersonID string
	PrisonID string
	Goals    []Goal
	Actor    string
}

// SaveActionPlanResponse reports the goal changes and any schedule created.
type SaveActionPlanResponse struct {
	Updated        int
	Inserted       int
	Deleted        int
	ReviewSchedule *ScheduleResult
}
