package schedule

import (
	"fmt"
	"strings"
)

// Trigger identifies the single recognised cause of a transition. It is
// recorded on every history entry.
type Trigger string

// EventTrigger builds the trigger for an inbound lifecycle event.
func EventTrigger(eventType, reasonCode string) Trigger {
	if reasonCode == "" {
		return Trigger("event:" + eventType)
	}
	return Trigger("event:" + eventType + ":" + reasonCode)
}

// APITrigger builds the trigger for an explicit API action.
func APITrigger(action string) Trigger {
	return Trigger("api:" + action)
}

// Valid reports whether the trigger names an event or an API action.
func (t Trigger) Valid() bool {
	s := string(t)
	return (strings.HasPrefix(s, "event:") && len(s) > len("event:")) ||
		(strings.HasPrefix(s, "api:") && len(s) > len("api:"))
}

// HistoryEntry is an immutable snapshot of a schedule at one version.
type HistoryEntry struct {
	Schedule Schedule
	Trigger  Trigger
}

// Snapshot captures the schedule as it exists at its current version.
func Snapshot(s Schedule, trigger Trigger) HistoryEntry {
	return HistoryEntry{Schedule: s, Trigger: trigger}
}

// VerifyHistory checks that entries are exactly versions 1..current.Version
// in order, all for the same reference, and that the last one matches the
// live schedule.
func VerifyHistory(current Schedule, entries []HistoryEntry) error {
	if len(entries) != current.Version {
		return fmt.Errorf("schedule %s at version %d has %d history entries", current.Reference, current.Version, len(entries))
	}
	for i, e := range entries {
		if e.Schedule.Reference != current.Reference {
			return fmt.Errorf("history entry %d belongs to schedule %s", i+1, e.Schedule.Reference)
		}
		if e.Schedule.Version != i+1 {
			return fmt.Errorf("schedule %s history gap: position %d holds version %d", current.Reference, i+1, e.Schedule.Version)
		}
		if !e.Trigger.Valid() {
			return fmt.Errorf("schedule %s version %d has no trigger", current.Reference, e.Schedule.Version)
		}
	}
	last := entries[len(entries)-1].Schedule
	if !sameState(last, current) {
		return fmt.Errorf("schedule %s latest history entry does not match live state", current.Reference)
	}
	return nil
}

func sameState(a, b Schedule) bool {
	return a.Status == b.Status &&
		a.CalculationRule == b.CalculationRule &&
		a.DeadlineDate.Equal(b.DeadlineDate) &&
		a.Window.Equal(b.Window) &&
		a.ExemptionReason == b.ExemptionReason &&
		a.UpdatedBy == b.UpdatedBy &&
		a.UpdatedAtPrison == b.UpdatedAtPrison
}
