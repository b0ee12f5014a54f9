package calculation

import (
	"fmt"
	"time"

	"github.com/example/plp/internal/core/schedule"
)

// Offset is a review window expressed as days after the reference date.
type Offset struct {
	FromDays int `yaml:"fromDays"`
	ToDays   int `yaml:"toDays"`
}

// Table holds every day count used to turn a calculation rule into dates.
// It is loaded from configuration so timings can change without touching
// the state machines.
type Table struct {
	InductionDays          map[schedule.CalculationRule]int    `yaml:"inductionDays"`
	ReviewWindows          map[schedule.CalculationRule]Offset `yaml:"reviewWindows"`
	ExemptionExtensionDays int                                 `yaml:"exemptionExtensionDays"`
}

// DefaultTable returns the built-in timings.
func DefaultTable() Table {
	return Table{
		InductionDays: map[schedule.CalculationRule]int{
			InductionNewPrisonAdmission:                     20,
			InductionPrisonerTransfer:                       20,
			InductionExistingPrisonerLessThan6MonthsToServe: 20,
			InductionExistingPrisonerBetween6And12Months:    60,
			InductionExistingPrisonerOver12MonthsToServe:    90,
			InductionExistingPrisonerIndeterminateSentence:  90,
			InductionExistingPrisonerOnRemand:               60,
			InductionExistingPrisonerUnSentenced:            60,
		},
		ReviewWindows: map[schedule.CalculationRule]Offset{
			ReviewPrisonerReadmission:             {FromDays: 0, ToDays: 10},
			ReviewPrisonerTransfer:                {FromDays: 0, ToDays: 10},
			ReviewBetweenReleaseAnd3MonthsToServe: {FromDays: 0, ToDays: 14},
			ReviewBetween3MonthsAnd6MonthsToServe: {FromDays: 42, ToDays: 56},
			ReviewBetween6And12MonthsToServe:      {FromDays: 84, ToDays: 98},
			ReviewBetween12And60MonthsToServe:     {FromDays: 168, ToDays: 182},
			ReviewMoreThan60MonthsToServe:         {FromDays: 336, ToDays: 365},
			ReviewIndeterminateSentence:           {FromDays: 336, ToDays: 365},
			ReviewPrisonerOnRemand:                {FromDays: 56, ToDays: 70},
			ReviewPrisonerUnSentenced:             {FromDays: 56, ToDays: 70},
		},
		ExemptionExtensionDays: 5,
	}
}

// Merge returns a copy of t with any entries from override replacing its own.
func (t Table) Merge(override Table) Table {
	merged := Table{
		InductionDays:          make(map[schedule.CalculationRule]int, len(t.InductionDays)),
		ReviewWindows:          make(map[schedule.CalculationRule]Offset, len(t.ReviewWindows)),
		ExemptionExtensionDays: t.ExemptionExtensionDays,
	}
	for k, v := range t.InductionDays {
		merged.InductionDays[k] = v
	}
	for k, v := range t.ReviewWindows {
		merged.ReviewWindows[k] = v
	}
	for k, v := range override.InductionDays {
		merged.InductionDays[k] = v
	}
	for k, v := range override.ReviewWindows {
		merged.ReviewWindows[k] = v
	}
	if override.ExemptionExtensionDays > 0 {
		merged.ExemptionExtensionDays = override.ExemptionExtensionDays
	}
	return merged
}

// Validate checks every rule has a timing and every timing is sane.
func (t Table) Validate() error {
	for _, rule := range []schedule.CalculationRule{
		InductionNewPrisonAdmission, InductionPrisonerTransfer,
		InductionExistingPrisonerLessThan6MonthsToServe, InductionExistingPrisonerBetween6And12Months,
		InductionExistingPrisonerOver12MonthsToServe, InductionExistingPrisonerIndeterminateSentence,
		InductionExistingPrisonerOnRemand, InductionExistingPrisonerUnSentenced,
	} {
		days, ok := t.InductionDays[rule]
		if !ok {
			return fmt.Errorf("no induction deadline configured for %s", rule)
		}
		if days < 0 {
			return fmt.Errorf("induction deadline for %s is negative", rule)
		}
	}
	for _, rule := range []schedule.CalculationRule{
		ReviewPrisonerReadmission, ReviewPrisonerTransfer,
		ReviewBetweenReleaseAnd3MonthsToServe, ReviewBetween3MonthsAnd6MonthsToServe,
		ReviewBetween6And12MonthsToServe, ReviewBetween12And60MonthsToServe,
		ReviewMoreThan60MonthsToServe, ReviewIndeterminateSentence,
		ReviewPrisonerOnRemand, ReviewPrisonerUnSentenced,
	} {
		off, ok := t.ReviewWindows[rule]
		if !ok {
			return fmt.Errorf("no review window configured for %s", rule)
		}
		if off.FromDays < 0 || off.ToDays < off.FromDays {
			return fmt.Errorf("review window for %s is invalid: %d..%d", rule, off.FromDays, off.ToDays)
		}
	}
	if t.ExemptionExtensionDays < 0 {
		return fmt.Errorf("exemption extension days is negative")
	}
	return nil
}

// InductionDeadline is the date an induction under rule must be complete by,
// counted from referenceDate. A known release date caps the deadline.
func (t Table) InductionDeadline(rule schedule.CalculationRule, referenceDate time.Time, release *time.Time) time.Time {
	days, ok := t.InductionDays[rule]
	if !ok {
		days = t.InductionDays[InductionNewPrisonAdmission]
	}
	deadline := schedule.Day(referenceDate).AddDate(0, 0, days)
	return capAtRelease(deadline, referenceDate, release)
}

// ReviewWindow is the range in which a review under rule falls due, counted
// from referenceDate. A known release date caps both ends of the window.
func (t Table) ReviewWindow(rule schedule.CalculationRule, referenceDate time.Time, release *time.Time) schedule.Window {
	off, ok := t.ReviewWindows[rule]
	if !ok {
		off = t.ReviewWindows[ReviewPrisonerReadmission]
	}
	ref := schedule.Day(referenceDate)
	return schedule.Window{
		From: capAtRelease(ref.AddDate(0, 0, off.FromDays), referenceDate, release),
		To:   capAtRelease(ref.AddDate(0, 0, off.ToDays), referenceDate, release),
	}
}

// Extend pushes a date out by the exemption extension, starting no earlier
// than from.
func (t Table) Extend(current, from time.Time) time.Time {
	base := schedule.Day(from)
	if current.After(base) {
		base = current
	}
	return base.AddDate(0, 0, t.ExemptionExtensionDays)
}

// capAtRelease keeps d on or before the release date, unless the release date
// has already passed relative to the reference date.
func capAtRelease(d, referenceDate time.Time, release *time.Time) time.Time {
	if release == nil {
		return d
	}
	r := schedule.Day(*release)
	if r.Before(schedule.Day(referenceDate)) {
		return d
	}
	if d.After(r) {
		return r
	}
	return d
}
