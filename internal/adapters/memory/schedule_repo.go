// Package memory contains in-memory implementations of the persistence
// ports, used by tests and by the dev configuration.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/secondary"
)

// ScheduleRepository implements secondary.ScheduleRepository in memory.
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]schedule.Schedule
	history   map[string][]schedule.HistoryEntry
	order     []string // references in creation order
}

// NewScheduleRepository creates an empty in-memory schedule repository.
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		schedules: make(map[string]schedule.Schedule),
		history:   make(map[string][]schedule.HistoryEntry),
	}
}

// GetActive returns the person's non-terminal schedule of the given kind.
func (r *ScheduleRepository) GetActive(ctx context.Context, kind schedule.Kind, personID string) (*schedule.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.activeLocked(r.schedules, kind, personID); ok {
		return &s, nil
	}
	return nil, notFound(kind, personID)
}

// GetLatest returns the person's most recently created schedule of the given kind.
func (r *ScheduleRepository) GetLatest(ctx context.Context, kind schedule.Kind, personID string) (*schedule.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.latestLocked(kind, personID); ok {
		return &s, nil
	}
	return nil, notFound(kind, personID)
}

// ListLatest returns the latest schedule of the given kind for each person that has one.
func (r *ScheduleRepository) ListLatest(ctx context.Context, kind schedule.Kind, personIDs []string) ([]schedule.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []schedule.Schedule
	for _, id := range personIDs {
		if s, ok := r.latestLocked(kind, id); ok {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// History returns every version of a schedule, oldest first.
func (r *ScheduleRepository) History(ctx context.Context, reference string) ([]schedule.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.history[reference]
	out := make([]schedule.HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// Apply runs the writes against a working copy and commits it only when
// every write succeeds.
func (r *ScheduleRepository) Apply(ctx context.Context, writes []secondary.ScheduleWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := make(map[string]schedule.Schedule, len(r.schedules))
	for k, v := range r.schedules {
		work[k] = v
	}
	var created []string
	appended := make(map[string][]schedule.HistoryEntry)

	for _, w := range writes {
		s := w.Schedule
		switch w.Op {
		case secondary.WriteCreate:
			if _, exists := work[s.Reference]; exists {
				return fmt.Errorf("schedule %s already exists", s.Reference)
			}
			if s.IsActive() {
				if cur, ok := r.activeLocked(work, s.Kind, s.PersonID); ok {
					return schedule.AlreadyExistsError{Kind: s.Kind, PersonID: s.PersonID, Reference: cur.Reference}
				}
			}
			created = append(created, s.Reference)

		case secondary.WriteUpdate:
			cur, exists := work[s.Reference]
			if !exists {
				return notFound(s.Kind, s.PersonID)
			}
			if cur.Version != w.ExpectedVersion || s.Version != w.ExpectedVersion+1 {
				return fmt.Errorf("schedule %s at version %d, expected %d: %w", s.Reference, cur.Version, w.ExpectedVersion, schedule.ErrVersionConflict)
			}
			if s.IsActive() && !cur.IsActive() {
				if other, ok := r.activeLocked(work, s.Kind, s.PersonID); ok && other.Reference != s.Reference {
					return schedule.AlreadyExistsError{Kind: s.Kind, PersonID: s.PersonID, Reference: other.Reference}
				}
			}

		default:
			return fmt.Errorf("unknown write op %q", w.Op)
		}
		work[s.Reference] = s
		appended[s.Reference] = append(appended[s.Reference], schedule.Snapshot(s, w.Trigger))
	}

	r.schedules = work
	r.order = append(r.order, created...)
	for ref, entries := range appended {
		r.history[ref] = append(r.history[ref], entries...)
	}
	return nil
}

func (r *ScheduleRepository) activeLocked(set map[string]schedule.Schedule, kind schedule.Kind, personID string) (schedule.Schedule, bool) {
	for _, s := range set {
		if s.Kind == kind && s.PersonID == personID && s.IsActive() {
			return s, true
		}
	}
	return schedule.Schedule{}, false
}

func (r *ScheduleRepository) latestLocked(kind schedule.Kind, personID string) (schedule.Schedule, bool) {
	for i := len(r.order) - 1; i >= 0; i-- {
		s := r.schedules[r.order[i]]
		if s.Kind == kind && s.PersonID == personID {
			return s, true
		}
	}
	return schedule.Schedule{}, false
}

func notFound(kind schedule.Kind, personID string) error {
	entity := schedule.EntityInductionSchedule
	if kind == schedule.KindReview {
		entity = schedule.EntityReviewSchedule
	}
	return schedule.NotFoundError{Entity: entity, PersonID: personID}
}

var _ secondary.ScheduleRepository = (*ScheduleRepository)(nil)
