package sns

import (
	"context"
	"log/slog"

	"github.com/example/plp/internal/ports/secondary"
)

// LogPublisher implements secondary.EventPublisher by logging each event. It
// stands in for the topic when none is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event at INFO.
func (p *LogPublisher) Publish(ctx context.Context, event secondary.ScheduleUpdatedEvent) error {
	p.logger.InfoContext(ctx, "schedule event",
		"event_type", event.EventType,
		"schedule_kind", event.ScheduleKind,
		"person_id", event.PersonID,
		"detail_url", event.DetailURL,
	)
	return nil
}

var _ secondary.EventPublisher = (*LogPublisher)(nil)
