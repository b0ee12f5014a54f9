package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/plp/internal/clock"
	"github.com/example/plp/internal/core/delivery"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

// MessageServiceImpl implements the MessageService interface.
type MessageServiceImpl struct {
	decoder     secondary.EventDecoder
	events      primary.EventService
	parked      secondary.ParkedEventStore
	metrics     secondary.EngineMetrics
	clock       clock.Clock
	logger      *slog.Logger
	maxReceives int
}

// NewMessageService creates a new MessageService with injected dependencies.
func NewMessageService(
	decoder secondary.EventDecoder,
	events primary.EventService,
	parked secondary.ParkedEventStore,
	metrics secondary.EngineMetrics,
	clk clock.Clock,
	logger *slog.Logger,
	maxReceives int,
) *MessageServiceImpl {
	return &MessageServiceImpl{
		decoder:     decoder,
		events:      events,
		parked:      parked,
		metrics:     metrics,
		clock:       clk,
		logger:      logger,
		maxReceives: maxReceives,
	}
}

// HandleMessage decodes, validates and handles one message, parking it when
// retrying cannot help.
func (s *MessageServiceImpl) HandleMessage(ctx context.Context, msg primary.InboundMessage) primary.Disposition {
	log := s.logger.With("message_id", msg.ID, "receive_count", msg.ReceiveCount)

	event, err := s.decoder.Decode([]byte(msg.Body))
	if err == nil {
		log = log.With("event_type", event.CanonicalType(), "person_id", event.PersonID)
		_, err = s.events.HandleEvent(ctx, event)
	}

	d := delivery.Classify(err, msg.ReceiveCount, s.maxReceives)
	switch d.Action {
	case delivery.Ack:
		return primary.DispositionAck

	case delivery.Retry:
		log.InfoContext(ctx, "message left for redelivery", "error", err)
		return primary.DispositionRetry
	}

	parked := secondary.ParkedEvent{
		ID:        msg.ID,
		Body:      msg.Body,
		Category:  d.Category,
		Error:     err.Error(),
		ParkedAt:  s.clock.Now(),
		Attempts:  msg.ReceiveCount,
		EventType: event.CanonicalType(),
		PersonID:  event.PersonID,
	}
	if perr := s.parked.Park(ctx, parked); perr != nil {
		log.ErrorContext(ctx, "failed to park message", "category", d.Category, "error", perr)
		return primary.DispositionRetry
	}
	s.metrics.Parked(d.Category)

	if d.Category == delivery.CategoryInvariant {
		log.ErrorContext(ctx, "message parked", "category", d.Category, "error", err)
	} else {
		log.WarnContext(ctx, "message parked", "category", d.Category, "error", err)
	}
	return primary.DispositionAck
}

// ListParked returns messages parked for manual follow-up.
func (s *MessageServiceImpl) ListParked(ctx context.Context) ([]primary.ParkedMessage, error) {
	events, err := s.parked.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]primary.ParkedMessage, 0, len(events))
	for _, e := range events {
		out = append(out, primary.ParkedMessage{
			ID:        e.ID,
			Category:  e.Category,
			Error:     e.Error,
			ParkedAt:  e.ParkedAt.UTC().Format(time.RFC3339),
			Attempts:  e.Attempts,
			EventType: e.EventType,
			PersonID:  e.PersonID,
			Body:      e.Body,
		})
	}
	return out, nil
}

// Ensure MessageServiceImpl implements the interface
var _ primary.MessageService = (*MessageServiceImpl)(nil)
