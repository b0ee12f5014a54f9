package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/plp/internal/ports/secondary"
)

// LearningPlanRepository implements secondary.LearningPlanRepository in memory.
type LearningPlanRepository struct {
	mu         sync.RWMutex
	inductions map[string]secondary.InductionRecord
	goals      map[string]map[string]secondary.GoalRecord
}

// NewLearningPlanRepository creates an empty in-memory learning plan repository.
func NewLearningPlanRepository() *LearningPlanRepository {
	return &LearningPlanRepository{
		inductions: make(map[string]secondary.InductionRecord),
		goals:      make(map[string]map[string]secondary.GoalRecord),
	}
}

// GetStatus returns what is recorded for the person.
func (r *LearningPlanRepository) GetStatus(ctx context.Context, personID string) (*secondary.LearningPlanStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := &secondary.LearningPlanStatus{PersonID: personID, GoalCount: len(r.goals[personID])}
	if ind, ok := r.inductions[personID]; ok {
		status.HasInduction = true
		status.InductionCompletedAt = ind.CompletedAt
	}
	return status, nil
}

// RecordInduction stores a completed induction. A person has at most one.
func (r *LearningPlanRepository) RecordInduction(ctx context.Context, record *secondary.InductionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.inductions[record.PersonID]; ok {
		record.Reference = existing.Reference
	}
	r.inductions[record.PersonID] = *record
	return nil
}

// ListGoals returns the person's goals ordered by reference.
func (r *LearningPlanRepository) ListGoals(ctx context.Context, personID string) ([]*secondary.GoalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*secondary.GoalRecord, 0, len(r.goals[personID]))
	for _, g := range r.goals[personID] {
		g := g
		out = append(out, &g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	return out, nil
}

// SaveGoals applies the changes, all or nothing.
func (r *LearningPlanRepository) SaveGoals(ctx context.Context, personID string, changes secondary.GoalChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	work := make(map[string]secondary.GoalRecord, len(r.goals[personID]))
	for k, v := range r.goals[personID] {
		work[k] = v
	}
	for _, g := range changes.Deletes {
		if _, ok := work[g.Reference]; !ok {
			return fmt.Errorf("goal %s not found", g.Reference)
		}
		delete(work, g.Reference)
	}
	for _, g := range changes.Updates {
		if _, ok := work[g.Reference]; !ok {
			return fmt.Errorf("goal %s not found", g.Reference)
		}
		work[g.Reference] = *g
	}
	for _, g := range changes.Inserts {
		if _, ok := work[g.Reference]; ok {
			return fmt.Errorf("goal %s already exists", g.Reference)
		}
		work[g.Reference] = *g
	}
	r.goals[personID] = work
	return nil
}

var _ secondary.LearningPlanRepository = (*LearningPlanRepository)(nil)
