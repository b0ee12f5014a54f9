package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

// EventServiceImpl implements the EventService interface.
type EventServiceImpl struct {
	inductions    primary.InductionScheduleService
	reviews       primary.ReviewScheduleService
	prisoners     secondary.PrisonerDirectory
	metrics       secondary.EngineMetrics
	logger        *slog.Logger
	maxAttempts   int
	lookupTimeout time.Duration
}

// NewEventService creates a new EventService with injected dependencies.
func NewEventService(
	inductions primary.InductionScheduleService,
	reviews primary.ReviewScheduleService,
	prisoners secondary.PrisonerDirectory,
	metrics secondary.EngineMetrics,
	logger *slog.Logger,
	maxAttempts int,
	lookupTimeout time.Duration,
) *EventServiceImpl {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &EventServiceImpl{
		inductions:    inductions,
		reviews:       reviews,
		prisoners:     prisoners,
		metrics:       metrics,
		logger:        logger,
		maxAttempts:   maxAttempts,
		lookupTimeout: lookupTimeout,
	}
}

// HandleEvent routes the event and runs every action it produces. A version
// conflict re-runs the whole event: actions already applied are recognised as
// no-ops on the next attempt.
func (s *EventServiceImpl) HandleEvent(ctx context.Context, event routing.Event) (*primary.EventResult, error) {
	eventType := event.CanonicalType()
	log := s.logger.With("event_type", eventType, "person_id", event.PersonID, "reason_code", event.ReasonCode)

	if err := validateEvent(event); err != nil {
		s.metrics.EventHandled(eventType, "invalid")
		return nil, err
	}

	decision := routing.Route(event)
	if decision.Ignored() {
		log.DebugContext(ctx, "event ignored", "reason", decision.Reason)
		s.metrics.EventHandled(eventType, "ignored")
		return &primary.EventResult{Ignored: true, Reason: decision.Reason}, nil
	}

	var prisoner *secondary.Prisoner
	for _, a := range decision.Actions {
		if a.NeedsPrisonerFacts() {
			p, err := s.lookupPrisoner(ctx, event.PersonID)
			if err != nil {
				s.metrics.EventHandled(eventType, outcomeLabel(err))
				return nil, err
			}
			prisoner = p
			break
		}
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		results, err := s.runActions(ctx, event, decision.Actions, prisoner)
		if err == nil {
			for _, r := range results {
				log.InfoContext(ctx, "event action handled",
					"kind", r.Action.Kind, "op", r.Action.Op, "outcome", r.Result.Outcome, "attempt", attempt)
			}
			s.metrics.EventHandled(eventType, "handled")
			return &primary.EventResult{Actions: results, Attempts: attempt}, nil
		}
		if !errors.Is(err, schedule.ErrVersionConflict) {
			if errors.Is(err, schedule.ErrInvariantViolation) {
				log.ErrorContext(ctx, "single active schedule invariant violated", "error", err)
			}
			s.metrics.EventHandled(eventType, outcomeLabel(err))
			return nil, err
		}
		lastErr = err
		s.metrics.Retried("version_conflict")
		log.DebugContext(ctx, "version conflict, retrying event", "attempt", attempt, "error", err)
	}

	s.metrics.EventHandled(eventType, "exhausted")
	return nil, schedule.TransientError{
		Op:  fmt.Sprintf("handle %s after %d attempts", eventType, s.maxAttempts),
		Err: lastErr,
	}
}

func (s *EventServiceImpl) runActions(ctx context.Context, event routing.Event, actions []routing.Action, prisoner *secondary.Prisoner) ([]primary.ActionResult, error) {
	results := make([]primary.ActionResult, 0, len(actions))
	for _, a := range actions {
		res, err := s.dispatch(ctx, event, a, prisoner)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", a.Kind, a.Op, err)
		}
		results = append(results, primary.ActionResult{Action: a, Result: res})
	}
	return results, nil
}

func (s *EventServiceImpl) dispatch(ctx context.Context, event routing.Event, a routing.Action, prisoner *secondary.Prisoner) (*primary.ScheduleResult, error) {
	switch a.Op {
	case routing.OpReceive:
		req := primary.ReceiptRequest{
			PersonID:     a.PersonID,
			Movement:     a.Movement,
			OccurredAt:   event.OccurredAt,
			PrisonID:     prisonOr(event.PrisonID, prisoner.PrisonID),
			SentenceType: prisoner.SentenceType,
			ReleaseDate:  prisoner.ReleaseDate,
			Actor:        SystemActor,
			Trigger:      event.Trigger(),
		}
		if a.Kind == schedule.KindInduction {
			return s.inductions.HandleReceipt(ctx, req)
		}
		return s.reviews.HandleReceipt(ctx, req)

	case routing.OpExempt:
		req := primary.ExemptionRequest{
			PersonID: a.PersonID,
			PrisonID: event.PrisonID,
			Actor:    SystemActor,
			Trigger:  event.Trigger(),
		}
		switch a.Exemption {
		case schedule.StatusExemptPrisonerRelease:
			return s.reviews.ExemptActiveReviewScheduleStatusDueToPrisonerRelease(ctx, req)
		case schedule.StatusExemptPrisonerDeath:
			return s.reviews.ExemptActiveReviewScheduleStatusDueToPrisonerDeath(ctx, req)
		case schedule.StatusExemptPrisonerMerge:
			return s.reviews.ExemptActiveReviewScheduleStatusDueToPrisonerMerge(ctx, req)
		case schedule.StatusExemptUnknown:
			return s.reviews.ExemptActiveReviewScheduleStatusDueToUnknownReason(ctx, req)
		}
		return nil, fmt.Errorf("unsupported exemption %s", a.Exemption)
	}
	return nil, fmt.Errorf("unsupported action %s", a.Op)
}

// lookupPrisoner fetches sentence facts once per event. A person the
// directory does not know makes the event unprocessable.
func (s *EventServiceImpl) lookupPrisoner(ctx context.Context, personID string) (*secondary.Prisoner, error) {
	if s.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lookupTimeout)
		defer cancel()
	}

	p, err := s.prisoners.GetPrisoner(ctx, personID)
	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, schedule.ErrNotFound):
		return nil, schedule.InvalidEventError{Reason: err.Error()}
	case errors.Is(err, schedule.ErrTransient):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded):
		return nil, schedule.TransientError{Op: "lookup prisoner " + personID, Err: err}
	}
	return nil, fmt.Errorf("failed to lookup prisoner %s: %w", personID, err)
}

func validateEvent(e routing.Event) error {
	if e.PersonID == "" {
		return schedule.InvalidEventError{Reason: "personId is required"}
	}
	if e.OccurredAt.IsZero() {
		return schedule.InvalidEventError{Reason: "occurredAt is required"}
	}
	return nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, schedule.ErrPrecondition):
		return "precondition"
	case errors.Is(err, schedule.ErrNotFound):
		return "not_found"
	case errors.Is(err, schedule.ErrInvariantViolation):
		return "invariant"
	case schedule.IsRetryable(err):
		return "transient"
	}
	return "error"
}

// Ensure EventServiceImpl implements the interface
var _ primary.EventService = (*EventServiceImpl)(nil)
