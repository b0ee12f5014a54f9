package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/plp/internal/core/schedule"
)

var prisonerNumberPattern = regexp.MustCompile(`^[A-Z]\d{4}[A-Z]{2}$`)

// validatePrisonerNumber checks the NOMIS prisoner number format, e.g. A1234BC.
func validatePrisonerNumber(id string) error {
	if prisonerNumberPattern.MatchString(id) {
		return nil
	}
	if prisonerNumberPattern.MatchString(strings.ToUpper(id)) {
		return fmt.Errorf("invalid prisoner number '%s'. Prisoner numbers are upper case, use: %s", id, strings.ToUpper(id))
	}
	return fmt.Errorf("invalid prisoner number '%s'. Expected format: A1234BC", id)
}

// validateStatus rejects values that are not a schedule status of either kind.
// The services decide whether the status is allowed for the schedule at hand.
func validateStatus(status string) error {
	s := schedule.Status(status)
	if s.ValidFor(schedule.KindInduction) || s.ValidFor(schedule.KindReview) {
		return nil
	}
	if upper := schedule.Status(strings.ToUpper(status)); upper.ValidFor(schedule.KindInduction) || upper.ValidFor(schedule.KindReview) {
		return fmt.Errorf("invalid status '%s'. Statuses are upper case, use: %s", status, upper)
	}
	return fmt.Errorf("invalid status '%s'", status)
}

// prisonerArgs validates the first n positional arguments as prisoner
// numbers, or all of them when n is negative.
func prisonerArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		for i, arg := range args {
			if n >= 0 && i >= n {
				break
			}
			if err := validatePrisonerNumber(arg); err != nil {
				return err
			}
		}
		return nil
	}
}
