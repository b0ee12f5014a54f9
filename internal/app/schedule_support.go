package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/plp/internal/core/effects"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

// SystemActor is recorded on transitions caused by inbound events.
const SystemActor = "system"

// NewReference generates a schedule or record reference.
func NewReference() string {
	return uuid.NewString()
}

// scheduleStore bundles what both schedule services need to read, decide and
// write a schedule of one kind.
type scheduleStore struct {
	kind     schedule.Kind
	repo     secondary.ScheduleRepository
	executor EffectExecutor
	users    secondary.UserDirectory
}

// active returns the active schedule or nil when there is none.
func (s scheduleStore) active(ctx context.Context, personID string) (*schedule.Schedule, error) {
	cur, err := s.repo.GetActive(ctx, s.kind, personID)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active %s schedule: %w", s.kind, err)
	}
	return cur, nil
}

// latest returns the latest schedule or nil when there is none.
func (s scheduleStore) latest(ctx context.Context, personID string) (*schedule.Schedule, error) {
	cur, err := s.repo.GetLatest(ctx, s.kind, personID)
	if errors.Is(err, schedule.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s schedule: %w", s.kind, err)
	}
	return cur, nil
}

// run executes a plan and converts it to a result. A create that loses a
// race to a concurrent writer is reported as AlreadyExists; a create refused
// while no active schedule can be found is an invariant violation.
func (s scheduleStore) run(ctx context.Context, personID string, plan effects.Plan) (*primary.ScheduleResult, error) {
	if plan.Err != nil {
		return nil, plan.Err
	}
	if plan.Changed() {
		if err := s.executor.Execute(ctx, plan.Effects); err != nil {
			if !errors.Is(err, schedule.ErrAlreadyExists) {
				return nil, err
			}
			cur, getErr := s.active(ctx, personID)
			if getErr != nil {
				return nil, getErr
			}
			if cur == nil {
				return nil, schedule.InvariantViolationError{Kind: s.kind, PersonID: personID, Detail: err.Error()}
			}
			return &primary.ScheduleResult{
				Outcome:  schedule.OutcomeAlreadyExists,
				Schedule: s.view(ctx, cur),
				Reason:   "created concurrently",
			}, nil
		}
	}
	return &primary.ScheduleResult{
		Outcome:  plan.Outcome,
		Schedule: s.view(ctx, plan.Schedule),
		Reason:   plan.Reason,
	}, nil
}

// history returns every version of the person's latest schedule.
func (s scheduleStore) history(ctx context.Context, personID string) ([]*primary.ScheduleVersion, error) {
	cur, err := s.latest(ctx, personID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, notFound(s.kind, personID)
	}
	entries, err := s.repo.History(ctx, cur.Reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s schedule history: %w", s.kind, err)
	}
	versions := make([]*primary.ScheduleVersion, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, &primary.ScheduleVersion{Schedule: *s.view(ctx, &e.Schedule), Trigger: e.Trigger})
	}
	return versions, nil
}

func (s scheduleStore) view(ctx context.Context, sched *schedule.Schedule) *primary.Schedule {
	if sched == nil {
		return nil
	}
	return EnrichDisplayNames(ctx, s.users, *sched)
}

// EnrichDisplayNames resolves the audit usernames of a schedule.
func EnrichDisplayNames(ctx context.Context, users secondary.UserDirectory, s schedule.Schedule) *primary.Schedule {
	return &primary.Schedule{
		Schedule:             s,
		CreatedByDisplayName: users.DisplayName(ctx, s.CreatedBy),
		UpdatedByDisplayName: users.DisplayName(ctx, s.UpdatedBy),
	}
}

func notFound(kind schedule.Kind, personID string) error {
	entity := schedule.EntityInductionSchedule
	if kind == schedule.KindReview {
		entity = schedule.EntityReviewSchedule
	}
	return schedule.NotFoundError{Entity: entity, PersonID: personID}
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return SystemActor
	}
	return actor
}

func triggerOr(t schedule.Trigger, action string) schedule.Trigger {
	if t.Valid() {
		return t
	}
	return schedule.APITrigger(action)
}

func audit(actor, prisonID string, at time.Time) schedule.Audit {
	return schedule.Audit{Actor: actorOrSystem(actor), PrisonID: prisonID, At: at}
}
