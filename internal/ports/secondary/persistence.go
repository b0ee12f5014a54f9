// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"

	"github.com/example/plp/internal/core/schedule"
)

// ScheduleRepository defines the secondary port for schedule persistence.
// It is the single writer of schedule state and enforces at most one active
// schedule per person and kind.
type ScheduleRepository interface {
	// GetActive returns the person's non-terminal schedule of the given kind.
	// Returns a schedule.NotFoundError if there is none.
	GetActive(ctx context.Context, kind schedule.Kind, personID string) (*schedule.Schedule, error)

	// GetLatest returns the person's most recently created schedule of the
	// given kind, whatever its status. Returns a schedule.NotFoundError if
	// there is none.
	GetLatest(ctx context.Context, kind schedule.Kind, personID string) (*schedule.Schedule, error)

	// ListLatest returns the latest schedule of the given kind for each of the
	// people that have one.
	ListLatest(ctx context.Context, kind schedule.Kind, personIDs []string) ([]schedule.Schedule, error)

	// History returns every version of a schedule, oldest first.
	History(ctx context.Context, reference string) ([]schedule.HistoryEntry, error)

	// Apply runs the writes in order inside one transaction. Every write also
	// appends a history entry. Creating a second active schedule fails with
	// a schedule.AlreadyExistsError; updating from a stale version fails with
	// schedule.ErrVersionConflict. Either way nothing is written.
	Apply(ctx context.Context, writes []ScheduleWrite) error
}

// WriteOp is the kind of schedule write.
type WriteOp string

const (
	WriteCreate WriteOp = "create"
	WriteUpdate WriteOp = "update"
)

// ScheduleWrite is one create or optimistic update of a schedule.
type ScheduleWrite struct {
	Op              WriteOp
	Schedule        schedule.Schedule
	ExpectedVersion int // WriteUpdate only
	Trigger         schedule.Trigger
}

// LearningPlanRepository defines the secondary port for the induction and
// action plan facts the schedule engine depends on.
type LearningPlanRepository interface {
	// GetStatus returns what is recorded for the person. A person with
	// nothing recorded gets a zero status, not an error.
	GetStatus(ctx context.Context, personID string) (*LearningPlanStatus, error)

	// RecordInduction stores a completed induction for the person.
	RecordInduction(ctx context.Context, record *InductionRecord) error

	// ListGoals returns the goals on the person's action plan.
	ListGoals(ctx context.Context, personID string) ([]*GoalRecord, error)

	// SaveGoals applies a reconciled set of goal changes in one transaction.
	SaveGoals(ctx context.Context, personID string, changes GoalChanges) error
}

// LearningPlanStatus summarises a person's induction and action plan.
type LearningPlanStatus struct {
	PersonID             string
	HasInduction         bool
	InductionCompletedAt time.Time
	GoalCount            int
}

// InductionRecord represents a completed induction as stored in persistence.
type InductionRecord struct {
	Reference   string
	PersonID    string
	PrisonID    string
	CompletedAt time.Time
	CompletedBy string
}

// GoalRecord represents an action plan goal as stored in persistence.
type GoalRecord struct {
	Reference  string
	PersonID   string
	Title      string
	TargetDate string
	Status     string
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedBy  string
	UpdatedAt  time.Time
}

// GoalChanges is the partition of an incoming goal set against the stored one.
type GoalChanges struct {
	Updates []*GoalRecord
	Inserts []*GoalRecord
	Deletes []*GoalRecord
}
