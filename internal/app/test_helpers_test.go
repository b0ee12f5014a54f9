package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/plp/internal/adapters/memory"
	"github.com/example/plp/internal/clock"
	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockPrisonerDirectory implements secondary.PrisonerDirectory for testing.
type mockPrisonerDirectory struct {
	mu        sync.Mutex
	prisoners map[string]*secondary.Prisoner
	err       error
	calls     int
}

func newMockPrisonerDirectory() *mockPrisonerDirectory {
	return &mockPrisonerDirectory{prisoners: make(map[string]*secondary.Prisoner)}
}

func (m *mockPrisonerDirectory) GetPrisoner(ctx context.Context, personID string) (*secondary.Prisoner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.prisoners[personID]; ok {
		return p, nil
	}
	return nil, schedule.NotFoundError{Entity: schedule.EntityPrisoner, PersonID: personID}
}

// mockPublisher implements secondary.EventPublisher for testing.
type mockPublisher struct {
	mu     sync.Mutex
	events []secondary.ScheduleUpdatedEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, event secondary.ScheduleUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// mockMetrics implements secondary.EngineMetrics for testing.
type mockMetrics struct {
	mu      sync.Mutex
	handled map[string]int
	written int
	retried int
	parked  map[string]int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{handled: make(map[string]int), parked: make(map[string]int)}
}

func (m *mockMetrics) EventHandled(eventType, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handled[eventType+"/"+outcome]++
}

func (m *mockMetrics) ScheduleWritten(kind, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written++
}

func (m *mockMetrics) Retried(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retried++
}

func (m *mockMetrics) Parked(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parked[category]++
}

// mockUsers implements secondary.UserDirectory for testing.
type mockUsers map[string]string

func (m mockUsers) DisplayName(ctx context.Context, username string) string {
	if name, ok := m[username]; ok {
		return name
	}
	return username
}

// conflictingRepository fails the first n Apply calls with a version conflict.
type conflictingRepository struct {
	secondary.ScheduleRepository
	failures int
	applied  int
}

func (r *conflictingRepository) Apply(ctx context.Context, writes []secondary.ScheduleWrite) error {
	r.applied++
	if r.failures > 0 {
		r.failures--
		return fmt.Errorf("schedule %s: %w", writes[0].Schedule.Reference, schedule.ErrVersionConflict)
	}
	return r.ScheduleRepository.Apply(ctx, writes)
}

// ============================================================================
// Fixture
// ============================================================================

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialRefs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("REF-%03d", n)
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// engine wires every service over in-memory repositories.
type engine struct {
	repo      *memory.ScheduleRepository
	plans     *memory.LearningPlanRepository
	prisoners *mockPrisonerDirectory
	publisher *mockPublisher
	metrics   *mockMetrics
	clock     *clock.Fake
	table     calculation.Table

	inductions    *InductionScheduleServiceImpl
	reviews       *ReviewScheduleServiceImpl
	events        *EventServiceImpl
	learningPlans *LearningPlanServiceImpl
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	return newEngineWithRepo(t, memory.NewScheduleRepository(), nil)
}

// newEngineWithRepo builds the engine over repo, or over wrap(repo) when wrap
// is given.
func newEngineWithRepo(t *testing.T, repo *memory.ScheduleRepository, wrap func(secondary.ScheduleRepository) secondary.ScheduleRepository) *engine {
	t.Helper()
	e := &engine{
		repo:      repo,
		plans:     memory.NewLearningPlanRepository(),
		prisoners: newMockPrisonerDirectory(),
		publisher: &mockPublisher{},
		metrics:   newMockMetrics(),
		clock:     clock.Fixed(testNow),
		table:     calculation.DefaultTable(),
	}

	var store secondary.ScheduleRepository = repo
	if wrap != nil {
		store = wrap(repo)
	}
	logger := testLogger()
	users := mockUsers{"system": "System", "jsmith": "Jane Smith"}
	refs := sequentialRefs()
	executor := NewEffectExecutor(store, e.publisher, e.metrics, logger, "https://plp.example")

	e.inductions = NewInductionScheduleService(store, e.plans, users, executor, e.table, e.clock, refs, logger)
	e.reviews = NewReviewScheduleService(store, e.plans, e.prisoners, users, executor, e.table, e.clock, refs, logger)
	e.events = NewEventService(e.inductions, e.reviews, e.prisoners, e.metrics, logger, 3, time.Second)
	e.learningPlans = NewLearningPlanService(e.plans, e.inductions, e.reviews, e.clock, refs, logger)
	return e
}

func (e *engine) addPrisoner(personID, sentenceType string, release *time.Time) {
	e.prisoners.prisoners[personID] = &secondary.Prisoner{
		PersonID:     personID,
		PrisonID:     "BXI",
		SentenceType: sentenceType,
		ReleaseDate:  release,
	}
}

// completeLearningPlan records an induction and one goal without touching schedules.
func (e *engine) completeLearningPlan(t *testing.T, personID string) {
	t.Helper()
	ctx := context.Background()
	if err := e.plans.RecordInduction(ctx, &secondary.InductionRecord{
		Reference: "IND-" + personID, PersonID: personID, PrisonID: "BXI", CompletedAt: testNow, CompletedBy: "jsmith",
	}); err != nil {
		t.Fatalf("RecordInduction() error = %v", err)
	}
	if err := e.plans.SaveGoals(ctx, personID, secondary.GoalChanges{
		Inserts: []*secondary.GoalRecord{{Reference: "GOAL-" + personID, PersonID: personID, Title: "Improve maths", Status: "ACTIVE"}},
	}); err != nil {
		t.Fatalf("SaveGoals() error = %v", err)
	}
}

// seed writes a version 1 schedule directly.
func (e *engine) seed(t *testing.T, kind schedule.Kind, ref, personID string, rule schedule.CalculationRule, status schedule.Status) schedule.Schedule {
	t.Helper()
	s := schedule.New(kind, ref, personID, rule, schedule.Audit{Actor: "system", PrisonID: "BXI", At: testNow.AddDate(0, -1, 0)})
	s.Status = status
	if kind == schedule.KindInduction {
		s.DeadlineDate = schedule.Day(testNow.AddDate(0, 0, -10))
	} else {
		s.Window = schedule.Window{From: schedule.Day(testNow.AddDate(0, 0, -5)), To: schedule.Day(testNow.AddDate(0, 0, 9))}
	}
	if err := e.repo.Apply(context.Background(), []secondary.ScheduleWrite{{Op: secondary.WriteCreate, Schedule: s, Trigger: schedule.APITrigger("seed")}}); err != nil {
		t.Fatalf("seed Apply() error = %v", err)
	}
	return s
}

// assertConsistent checks that the latest schedule of each kind has a
// complete history.
func (e *engine) assertConsistent(t *testing.T, personIDs ...string) {
	t.Helper()
	ctx := context.Background()
	for _, kind := range []schedule.Kind{schedule.KindInduction, schedule.KindReview} {
		for _, id := range personIDs {
			s, err := e.repo.GetLatest(ctx, kind, id)
			if err != nil {
				continue
			}
			entries, err := e.repo.History(ctx, s.Reference)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if err := schedule.VerifyHistory(*s, entries); err != nil {
				t.Errorf("history of %s %s: %v", kind, id, err)
			}
		}
	}
}
