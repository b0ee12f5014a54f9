// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/plp/internal/core/effects"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor against the schedule
// repository and the event publisher.
type DefaultEffectExecutor struct {
	repo          secondary.ScheduleRepository
	publisher     secondary.EventPublisher
	metrics       secondary.EngineMetrics
	logger        *slog.Logger
	detailBaseURL string
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(repo secondary.ScheduleRepository, publisher secondary.EventPublisher, metrics secondary.EngineMetrics, logger *slog.Logger, detailBaseURL string) *DefaultEffectExecutor {
	return &DefaultEffectExecutor{
		repo:          repo,
		publisher:     publisher,
		metrics:       metrics,
		logger:        logger,
		detailBaseURL: strings.TrimRight(detailBaseURL, "/"),
	}
}

// Execute runs all schedule writes in one repository transaction, then logs
// and publishes one notification per changed person and kind. Publishing is
// fire and forget: failures are logged and never undo the writes.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	var writes []secondary.ScheduleWrite
	var publishes []effects.PublishEffect

	var logs []effects.LogEffect

	for _, eff := range effs {
		switch typed := eff.(type) {
		case effects.CreateScheduleEffect:
			writes = append(writes, secondary.ScheduleWrite{Op: secondary.WriteCreate, Schedule: typed.Schedule, Trigger: typed.Trigger})
		case effects.UpdateScheduleEffect:
			writes = append(writes, secondary.ScheduleWrite{Op: secondary.WriteUpdate, Schedule: typed.Schedule, ExpectedVersion: typed.ExpectedVersion, Trigger: typed.Trigger})
		case effects.PublishEffect:
			publishes = append(publishes, typed)
		case effects.LogEffect:
			logs = append(logs, typed)
		default:
			return fmt.Errorf("unknown effect type: %T", eff)
		}
	}

	if len(writes) > 0 {
		if err := e.repo.Apply(ctx, writes); err != nil {
			return fmt.Errorf("failed to apply schedule writes: %w", err)
		}
		for _, w := range writes {
			e.metrics.ScheduleWritten(string(w.Schedule.Kind), string(w.Schedule.Status))
			e.logger.InfoContext(ctx, "schedule written",
				"op", w.Op,
				"kind", w.Schedule.Kind,
				"reference", w.Schedule.Reference,
				"person_id", w.Schedule.PersonID,
				"status", w.Schedule.Status,
				"version", w.Schedule.Version,
				"trigger", w.Trigger,
			)
		}
	}

	for _, l := range logs {
		e.log(ctx, l)
	}

	seen := make(map[string]bool)
	for _, p := range publishes {
		key := string(p.Kind) + "/" + p.PersonID
		if seen[key] {
			continue
		}
		seen[key] = true
		e.publish(ctx, p)
	}
	return nil
}

func (e *DefaultEffectExecutor) publish(ctx context.Context, p effects.PublishEffect) {
	event := secondary.ScheduleUpdatedEvent{
		EventType:    secondary.ScheduleUpdatedEventType,
		ScheduleKind: string(p.Kind),
		PersonID:     p.PersonID,
		DetailURL:    DetailURL(e.detailBaseURL, p.Kind, p.PersonID),
		OccurredAt:   p.OccurredAt,
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.WarnContext(ctx, "failed to publish schedule update",
			"kind", p.Kind, "person_id", p.PersonID, "error", err)
	}
}

func (e *DefaultEffectExecutor) log(ctx context.Context, l effects.LogEffect) {
	args := make([]any, 0, len(l.Fields)*2)
	for k, v := range l.Fields {
		args = append(args, k, v)
	}
	switch l.Level {
	case "debug":
		e.logger.DebugContext(ctx, l.Message, args...)
	case "warn":
		e.logger.WarnContext(ctx, l.Message, args...)
	case "error":
		e.logger.ErrorContext(ctx, l.Message, args...)
	default:
		e.logger.InfoContext(ctx, l.Message, args...)
	}
}

// DetailURL is where downstream systems can read the person's schedule.
func DetailURL(baseURL string, kind schedule.Kind, personID string) string {
	if kind == schedule.KindInduction {
		return fmt.Sprintf("%s/inductions/%s/induction-schedule", baseURL, personID)
	}
	return fmt.Sprintf("%s/action-plans/%s/reviews/review-schedule", baseURL, personID)
}
