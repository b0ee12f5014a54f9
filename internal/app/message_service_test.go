package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/plp/internal/core/calculation"
	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/ports/secondary"
)

// jsonDecoder implements secondary.EventDecoder for testing without schema validation.
type jsonDecoder struct{}

func (jsonDecoder) Decode(body []byte) (routing.Event, error) {
	var e routing.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return routing.Event{}, schedule.InvalidEventError{Reason: err.Error()}
	}
	return e, nil
}

// mockParkedStore implements secondary.ParkedEventStore for testing.
type mockParkedStore struct {
	events  []secondary.ParkedEvent
	parkErr error
}

func (m *mockParkedStore) Park(ctx context.Context, event secondary.ParkedEvent) error {
	if m.parkErr != nil {
		return m.parkErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockParkedStore) List(ctx context.Context) ([]secondary.ParkedEvent, error) {
	return m.events, nil
}

func eventBody(t *testing.T, e routing.Event) string {
	t.Helper()
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return string(b)
}

func TestMessageService_HandleMessage(t *testing.T) {
	tests := []struct {
		name            string
		setup           func(e *engine, parked *mockParkedStore)
		body            func(t *testing.T) string
		receiveCount    int
		wantDisposition primary.Disposition
		wantParked      string
	}{
		{
			name:            "handled event is acknowledged",
			body:            func(t *testing.T) string { return eventBody(t, receivedEvent("A1234BC", routing.ReasonAdmission)) },
			receiveCount:    1,
			wantDisposition: primary.DispositionAck,
		},
		{
			name:            "malformed body is parked",
			body:            func(t *testing.T) string { return "{not json" },
			receiveCount:    1,
			wantDisposition: primary.DispositionAck,
			wantParked:      "precondition",
		},
		{
			name: "transient failure is retried",
			setup: func(e *engine, _ *mockParkedStore) {
				e.prisoners.err = schedule.TransientError{Op: "get prisoner", Err: errors.New("503")}
			},
			body:            func(t *testing.T) string { return eventBody(t, receivedEvent("A1234BC", routing.ReasonAdmission)) },
			receiveCount:    1,
			wantDisposition: primary.DispositionRetry,
		},
		{
			name: "transient failure on the last receive is parked",
			setup: func(e *engine, _ *mockParkedStore) {
				e.prisoners.err = schedule.TransientError{Op: "get prisoner", Err: errors.New("503")}
			},
			body:            func(t *testing.T) string { return eventBody(t, receivedEvent("A1234BC", routing.ReasonAdmission)) },
			receiveCount:    5,
			wantDisposition: primary.DispositionAck,
			wantParked:      "exhausted",
		},
		{
			name: "failure to park leaves the message on the queue",
			setup: func(e *engine, parked *mockParkedStore) {
				parked.parkErr = errors.New("bucket unavailable")
			},
			body:            func(t *testing.T) string { return "{not json" },
			receiveCount:    1,
			wantDisposition: primary.DispositionRetry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			e.addPrisoner("A1234BC", "SENTENCED", date(2028, 1, 1))
			parked := &mockParkedStore{}
			if tt.setup != nil {
				tt.setup(e, parked)
			}
			service := NewMessageService(jsonDecoder{}, e.events, parked, e.metrics, e.clock, testLogger(), 5)

			got := service.HandleMessage(context.Background(), primary.InboundMessage{ID: "msg-1", Body: tt.body(t), ReceiveCount: tt.receiveCount})
			if got != tt.wantDisposition {
				t.Errorf("HandleMessage() = %s, want %s", got, tt.wantDisposition)
			}

			if tt.wantParked == "" {
				if len(parked.events) != 0 {
					t.Errorf("parked %d events, want none", len(parked.events))
				}
				return
			}
			if len(parked.events) != 1 || parked.events[0].Category != tt.wantParked {
				t.Fatalf("parked = %+v, want one %s event", parked.events, tt.wantParked)
			}
			if parked.events[0].ID != "msg-1" || parked.events[0].Error == "" {
				t.Errorf("parked event = %+v", parked.events[0])
			}
			if e.metrics.parked[tt.wantParked] != 1 {
				t.Errorf("parked metric = %d, want 1", e.metrics.parked[tt.wantParked])
			}
		})
	}
}

func TestMessageService_ParksPreconditionAndListsIt(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.addPrisoner("A1234BC", "SENTENCED", nil)
	e.completeLearningPlan(t, "A1234BC")
	e.seed(t, schedule.KindReview, "REV-1", "A1234BC", calculation.ReviewPrisonerReadmission, schedule.StatusScheduled)
	parked := &mockParkedStore{}
	service := NewMessageService(jsonDecoder{}, e.events, parked, e.metrics, e.clock, testLogger(), 5)

	merged := routing.Event{Type: routing.EventPrisonerMerged, PersonID: "B2222BB", OccurredAt: testNow}
	if got := service.HandleMessage(ctx, primary.InboundMessage{ID: "msg-2", Body: eventBody(t, merged), ReceiveCount: 1}); got != primary.DispositionAck {
		t.Errorf("merge without retired identifier = %s, want ack", got)
	}

	invalid := routing.Event{Type: routing.EventPrisonerReceived, OccurredAt: testNow, ReasonCode: routing.ReasonAdmission}
	if got := service.HandleMessage(ctx, primary.InboundMessage{ID: "msg-3", Body: eventBody(t, invalid), ReceiveCount: 1}); got != primary.DispositionAck {
		t.Errorf("invalid event = %s, want ack", got)
	}

	list, err := service.ListParked(ctx)
	if err != nil {
		t.Fatalf("ListParked() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != "msg-3" || list[0].Category != "precondition" {
		t.Errorf("parked = %+v, want only msg-3", list)
	}
	if list[0].EventType != routing.EventPrisonerReceived {
		t.Errorf("event type = %q", list[0].EventType)
	}
}
