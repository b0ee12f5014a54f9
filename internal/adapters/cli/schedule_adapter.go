// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters format output but delegate business
// logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
)

// ScheduleAdapter translates schedule commands to the induction and review
// schedule services.
type ScheduleAdapter struct {
	inductions primary.InductionScheduleService
	reviews    primary.ReviewScheduleService
	out        io.Writer
}

// NewScheduleAdapter creates a new ScheduleAdapter.
func NewScheduleAdapter(inductions primary.InductionScheduleService, reviews primary.ReviewScheduleService, out io.Writer) *ScheduleAdapter {
	return &ScheduleAdapter{inductions: inductions, reviews: reviews, out: out}
}

// ShowInduction prints the person's latest induction schedule.
func (a *ScheduleAdapter) ShowInduction(ctx context.Context, personID string) error {
	s, err := a.inductions.GetInductionScheduleForPrisoner(ctx, personID)
	if err != nil {
		return fmt.Errorf("failed to get induction schedule: %w", err)
	}
	a.printSchedule(s)
	return nil
}

// ListInductions prints the latest induction schedule of each person.
func (a *ScheduleAdapter) ListInductions(ctx context.Context, personIDs []string) error {
	list, err := a.inductions.ListInductionSchedules(ctx, personIDs)
	if err != nil {
		return fmt.Errorf("failed to list induction schedules: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No induction schedules found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-38s %-40s %s\n", "PRISONER", "REFERENCE", "STATUS", "DEADLINE")
	fmt.Fprintln(a.out, strings.Repeat("─", 100))
	for _, s := range list {
		fmt.Fprintf(a.out, "%-10s %-38s %-40s %s\n", s.PersonID, s.Reference, statusColor(s.Status).Sprintf("%-40s", s.Status), formatDate(s.DeadlineDate))
	}
	fmt.Fprintln(a.out)
	return nil
}

// InductionHistory prints every version of the latest induction schedule.
func (a *ScheduleAdapter) InductionHistory(ctx context.Context, personID string) error {
	history, err := a.inductions.GetInductionScheduleHistory(ctx, personID)
	if err != nil {
		return fmt.Errorf("failed to get induction schedule history: %w", err)
	}
	a.printHistory(history)
	return nil
}

// UpdateInduction applies a status change to the induction schedule.
func (a *ScheduleAdapter) UpdateInduction(ctx context.Context, req primary.UpdateScheduleStatusRequest) error {
	res, err := a.inductions.UpdateInductionSchedule(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to update induction schedule: %w", err)
	}
	a.printResult("induction schedule", res)
	return nil
}

// ShowReview prints the person's latest review schedule.
func (a *ScheduleAdapter) ShowReview(ctx context.Context, personID string) error {
	s, err := a.reviews.GetReviewScheduleForPrisoner(ctx, personID)
	if err != nil {
		return fmt.Errorf("failed to get review schedule: %w", err)
	}
	a.printSchedule(s)
	return nil
}

// ReviewHistory prints every version of the latest review schedule.
func (a *ScheduleAdapter) ReviewHistory(ctx context.Context, personID string) error {
	history, err := a.reviews.GetReviewScheduleHistory(ctx, personID)
	if err != nil {
		return fmt.Errorf("failed to get review schedule history: %w", err)
	}
	a.printHistory(history)
	return nil
}

// UpdateReview applies a staff exemption to the review schedule or clears one.
func (a *ScheduleAdapter) UpdateReview(ctx context.Context, req primary.UpdateScheduleStatusRequest) error {
	res, err := a.reviews.UpdateReviewScheduleStatus(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to update review schedule: %w", err)
	}
	a.printResult("review schedule", res)
	return nil
}

// CompleteReview completes the active review and shows the next one.
func (a *ScheduleAdapter) CompleteReview(ctx context.Context, req primary.CompleteReviewRequest) error {
	res, err := a.reviews.CompleteActiveReviewSchedule(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to complete review: %w", err)
	}

	fmt.Fprintf(a.out, "✓ Completed review schedule %s\n", res.Completed.Reference)
	if res.Next != nil {
		fmt.Fprintf(a.out, "✓ Next review due %s to %s (%s)\n",
			formatDate(res.Next.Window.From), formatDate(res.Next.Window.To), res.Next.CalculationRule)
	}
	if res.Reason != "" {
		color.New(color.FgYellow).Fprintf(a.out, "⚠ No next review scheduled: %s\n", res.Reason)
	}
	return nil
}

func (a *ScheduleAdapter) printResult(what string, res *primary.ScheduleResult) {
	switch res.Outcome {
	case schedule.OutcomeUnchanged, schedule.OutcomeAlreadyExists:
		fmt.Fprintf(a.out, "No change to %s %s (%s)\n", what, res.Schedule.Reference, res.Outcome)
	default:
		fmt.Fprintf(a.out, "✓ %s %s %s → %s\n", strings.ToUpper(what[:1])+what[1:], res.Schedule.Reference, res.Outcome,
			statusColor(res.Schedule.Status).Sprint(res.Schedule.Status))
	}
}

func (a *ScheduleAdapter) printSchedule(s *primary.Schedule) {
	fmt.Fprintf(a.out, "\n%s schedule: %s\n", strings.ToUpper(string(s.Kind)[:1])+string(s.Kind)[1:], s.Reference)
	fmt.Fprintf(a.out, "Prisoner:  %s\n", s.PersonID)
	fmt.Fprintf(a.out, "Status:    %s\n", statusColor(s.Status).Sprint(s.Status))
	fmt.Fprintf(a.out, "Rule:      %s\n", s.CalculationRule)
	if s.Kind == schedule.KindInduction {
		fmt.Fprintf(a.out, "Deadline:  %s\n", formatDate(s.DeadlineDate))
	} else {
		fmt.Fprintf(a.out, "Window:    %s to %s\n", formatDate(s.Window.From), formatDate(s.Window.To))
	}
	if s.ExemptionReason != "" {
		fmt.Fprintf(a.out, "Exemption: %s\n", s.ExemptionReason)
	}
	fmt.Fprintf(a.out, "Version:   %d\n", s.Version)
	fmt.Fprintf(a.out, "Created:   %s by %s at %s\n", s.CreatedAt.Format("2006-01-02 15:04"), s.CreatedByDisplayName, s.CreatedAtPrison)
	fmt.Fprintf(a.out, "Updated:   %s by %s at %s\n", s.UpdatedAt.Format("2006-01-02 15:04"), s.UpdatedByDisplayName, s.UpdatedAtPrison)
	fmt.Fprintln(a.out)
}

func (a *ScheduleAdapter) printHistory(history []*primary.ScheduleVersion) {
	fmt.Fprintf(a.out, "\n%-4s %-40s %-20s %-18s %s\n", "VER", "STATUS", "UPDATED BY", "UPDATED AT", "TRIGGER")
	fmt.Fprintln(a.out, strings.Repeat("─", 110))
	for _, v := range history {
		fmt.Fprintf(a.out, "%-4d %s %-20s %-18s %s\n", v.Version, statusColor(v.Status).Sprintf("%-40s", v.Status),
			v.UpdatedByDisplayName, v.UpdatedAt.Format("2006-01-02 15:04"), v.Trigger)
	}
	fmt.Fprintln(a.out)
}

func statusColor(s schedule.Status) *color.Color {
	switch {
	case s == schedule.StatusComplete:
		return color.New(color.FgCyan)
	case s == schedule.StatusScheduled:
		return color.New(color.FgGreen)
	case strings.HasPrefix(string(s), "EXEMPT_PRISONER_") || s == schedule.StatusExemptUnknown:
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgYellow)
	}
}

func formatDate(t time.Time) string {
	return t.Format(schedule.DateLayout)
}
