package eventschema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/plp/internal/core/routing"
	"github.com/example/plp/internal/core/schedule"
)

func snsWrap(t *testing.T, inner string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"Type":      "Notification",
		"MessageId": "5f1c",
		"Message":   inner,
		"MessageAttributes": map[string]any{
			"eventType": map[string]string{"Type": "String", "Value": "prison-offender-events.prisoner.received"},
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(b)
}

func TestDecoder_Decode(t *testing.T) {
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}

	received := `{"eventType":"PRISONER_RECEIVED","personId":"A1234BC","occurredAt":"2026-03-02T09:30:00Z","prisonId":"MDI","reasonCode":"ADMISSION"}`

	tests := []struct {
		name    string
		body    string
		want    routing.Event
		wantErr bool
	}{
		{
			name: "raw event",
			body: received,
			want: routing.Event{
				Type: "PRISONER_RECEIVED", PersonID: "A1234BC", PrisonID: "MDI", ReasonCode: "ADMISSION",
				OccurredAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "SNS envelope",
			body: snsWrap(t, received),
			want: routing.Event{
				Type: "PRISONER_RECEIVED", PersonID: "A1234BC", PrisonID: "MDI", ReasonCode: "ADMISSION",
				OccurredAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "release with movement reason and offset time",
			body: `{"eventType":"PRISONER_RELEASED","personId":"A1234BC","occurredAt":"2026-03-02T10:30:00+01:00","reasonCode":"RELEASED","movementReasonCode":"DEC","details":null}`,
			want: routing.Event{
				Type: "PRISONER_RELEASED", PersonID: "A1234BC", ReasonCode: "RELEASED", MovementReasonCode: "DEC",
				OccurredAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "merge",
			body: `{"eventType":"PRISONER_MERGED","personId":"B2222BB","occurredAt":"2026-03-02T09:30:00Z","removedPersonId":"A1111AA"}`,
			want: routing.Event{
				Type: "PRISONER_MERGED", PersonID: "B2222BB", RemovedPersonID: "A1111AA",
				OccurredAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
			},
		},
		{name: "not JSON", body: `{"eventType":`, wantErr: true},
		{name: "missing person", body: `{"eventType":"PRISONER_RECEIVED","occurredAt":"2026-03-02T09:30:00Z"}`, wantErr: true},
		{name: "bad timestamp", body: `{"eventType":"PRISONER_RECEIVED","personId":"A1234BC","occurredAt":"yesterday"}`, wantErr: true},
		{name: "wrong type", body: `{"eventType":"PRISONER_RECEIVED","personId":42,"occurredAt":"2026-03-02T09:30:00Z"}`, wantErr: true},
		{name: "empty SNS message", body: `{"Type":"Notification","Message":""}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decoder.Decode([]byte(tt.body))
			if tt.wantErr {
				if !errors.Is(err, schedule.ErrPrecondition) {
					t.Fatalf("Decode() error = %v, want precondition", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
