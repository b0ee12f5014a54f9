package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/secondary"
)

var testAudit = schedule.Audit{Actor: "system", PrisonID: "BXI", At: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}

func TestScheduleRepository_SingleActive(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository()
	trigger := schedule.APITrigger("test")

	first := schedule.New(schedule.KindReview, "REF-1", "A1234BC", "PRISONER_READMISSION", testAudit)
	if err := repo.Apply(ctx, []secondary.ScheduleWrite{{Op: secondary.WriteCreate, Schedule: first, Trigger: trigger}}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	second := schedule.New(schedule.KindReview, "REF-2", "A1234BC", "PRISONER_READMISSION", testAudit)
	err := repo.Apply(ctx, []secondary.ScheduleWrite{{Op: secondary.WriteCreate, Schedule: second, Trigger: trigger}})
	if !errors.Is(err, schedule.ErrAlreadyExists) {
		t.Fatalf("Apply() error = %v, want ErrAlreadyExists", err)
	}

	induction := schedule.New(schedule.KindInduction, "REF-3", "A1234BC", "NEW_PRISON_ADMISSION", testAudit)
	if err := repo.Apply(ctx, []secondary.ScheduleWrite{{Op: secondary.WriteCreate, Schedule: induction, Trigger: trigger}}); err != nil {
		t.Fatalf("other kind should not collide: %v", err)
	}
}

func TestScheduleRepository_ApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository()
	trigger := schedule.APITrigger("test")

	v1 := schedule.New(schedule.KindReview, "REF-1", "A1234BC", "PRISONER_READMISSION", testAudit)
	if err := repo.Apply(ctx, []secondary.ScheduleWrite{{Op: secondary.WriteCreate, Schedule: v1, Trigger: trigger}}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	v2 := v1.Next(testAudit)
	v2.Status = schedule.StatusExemptPrisonerTransfer
	stale := v1.Next(testAudit)
	stale.Status = schedule.StatusScheduled

	err := repo.Apply(ctx, []secondary.ScheduleWrite{
		{Op: secondary.WriteUpdate, Schedule: v2, ExpectedVersion: 1, Trigger: trigger},
		{Op: secondary.WriteUpdate, Schedule: stale, ExpectedVersion: 1, Trigger: trigger},
	})
	if !errors.Is(err, schedule.ErrVersionConflict) {
		t.Fatalf("Apply() error = %v, want ErrVersionConflict", err)
	}

	got, err := repo.GetActive(ctx, schedule.KindReview, "A1234BC")
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if got.Version != 1 || got.Status != schedule.StatusScheduled {
		t.Errorf("schedule = v%d %s, want v1 SCHEDULED", got.Version, got.Status)
	}
	history, _ := repo.History(ctx, "REF-1")
	if len(history) != 1 {
		t.Errorf("history entries = %d, want 1", len(history))
	}
}

func TestScheduleRepository_LatestAfterCompletion(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository()
	trigger := schedule.APITrigger("test")

	v1 := schedule.New(schedule.KindReview, "REF-1", "A1234BC", "BETWEEN_12_AND_60_MONTHS_TO_SERVE", testAudit)
	done := v1.Next(testAudit)
	done.Status = schedule.StatusComplete
	next := schedule.New(schedule.KindReview, "REF-2", "A1234BC", "BETWEEN_12_AND_60_MONTHS_TO_SERVE", testAudit)

	if err := repo.Apply(ctx, []secondary.ScheduleWrite{{Op: secondary.WriteCreate, Schedule: v1, Trigger: trigger}}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	err := repo.Apply(ctx, []secondary.ScheduleWrite{
		{Op: secondary.WriteUpdate, Schedule: done, ExpectedVersion: 1, Trigger: trigger},
		{Op: secondary.WriteCreate, Schedule: next, Trigger: trigger},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	latest, err := repo.GetLatest(ctx, schedule.KindReview, "A1234BC")
	if err != nil {
		t.Fatalf("GetLatest() error = %v", err)
	}
	if latest.Reference != "REF-2" {
		t.Errorf("latest = %s, want REF-2", latest.Reference)
	}

	list, _ := repo.ListLatest(ctx, schedule.KindReview, []string{"A1234BC", "Z9999ZZ"})
	if len(list) != 1 || list[0].Reference != "REF-2" {
		t.Errorf("ListLatest() = %+v, want only REF-2", list)
	}

	if _, err := repo.GetActive(ctx, schedule.KindInduction, "A1234BC"); !errors.Is(err, schedule.ErrNotFound) {
		t.Errorf("GetActive() error = %v, want ErrNotFound", err)
	}
}
