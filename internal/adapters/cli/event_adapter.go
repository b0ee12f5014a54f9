package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/example/plp/internal/ports/primary"
)

// EventAdapter feeds events through the message service and shows parked
// messages.
type EventAdapter struct {
	messages primary.MessageService
	out      io.Writer
}

// NewEventAdapter creates a new EventAdapter.
func NewEventAdapter(messages primary.MessageService, out io.Writer) *EventAdapter {
	return &EventAdapter{messages: messages, out: out}
}

// Apply handles one raw event body exactly as the queue consumer would.
// A retry disposition is returned as an error so the command exits non-zero.
func (a *EventAdapter) Apply(ctx context.Context, id, body string) error {
	d := a.messages.HandleMessage(ctx, primary.InboundMessage{ID: id, Body: body, ReceiveCount: 1})
	if d == primary.DispositionRetry {
		return fmt.Errorf("event %s was not handled and should be retried", id)
	}
	fmt.Fprintf(a.out, "✓ Event %s handled\n", id)
	return nil
}

// ListParked prints the parked messages, oldest first.
func (a *EventAdapter) ListParked(ctx context.Context) error {
	parked, err := a.messages.ListParked(ctx)
	if err != nil {
		return fmt.Errorf("failed to list parked events: %w", err)
	}
	if len(parked) == 0 {
		fmt.Fprintln(a.out, "No parked events")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-38s %-13s %-10s %-30s %-26s %s\n", "ID", "CATEGORY", "PRISONER", "EVENT", "PARKED AT", "ERROR")
	fmt.Fprintln(a.out, strings.Repeat("─", 140))
	for _, p := range parked {
		fmt.Fprintf(a.out, "%-38s %s %-10s %-30s %-26s %s\n", p.ID, categoryColor(p.Category).Sprintf("%-13s", p.Category),
			p.PersonID, p.EventType, p.ParkedAt, p.Error)
	}
	fmt.Fprintln(a.out)
	return nil
}

func categoryColor(category string) *color.Color {
	if category == "exhausted" {
		return color.New(color.FgRed)
	}
	return color.New(color.FgYellow)
}
