package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/wire"
)

var reviewCmd = &cobra.Command{
	Use:     "review-schedule",
	Aliases: []string{"review"},
	Short:   "Inspect, complete and update review schedules",
}

var reviewShowCmd = &cobra.Command{
	Use:   "show [prisoner-number]",
	Short: "Show a prisoner's latest review schedule",
	Args:  cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ScheduleAdapter().ShowReview(cmd.Context(), args[0])
	},
}

var reviewHistoryCmd = &cobra.Command{
	Use:   "history [prisoner-number]",
	Short: "Show every version of a prisoner's review schedule",
	Args:  cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ScheduleAdapter().ReviewHistory(cmd.Context(), args[0])
	},
}

var reviewCompleteCmd = &cobra.Command{
	Use:   "complete [prisoner-number]",
	Short: "Complete the active review and schedule the next one",
	Args:  cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		prison, _ := cmd.Flags().GetString("prison")
		actor, _ := cmd.Flags().GetString("actor")
		return wire.ScheduleAdapter().CompleteReview(cmd.Context(), primary.CompleteReviewRequest{
			PersonID: args[0],
			PrisonID: prison,
			Actor:    actor,
		})
	},
}

var reviewUpdateCmd = &cobra.Command{
	Use:   "update [prisoner-number]",
	Short: "Apply or clear a staff exemption on the active review",
	Long: `Apply a staff exemption or clear one with --status SCHEDULED.
Reviews are completed with the complete command, not with --status COMPLETE.`,
	Args: cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := statusRequest(cmd, args[0])
		if err != nil {
			return err
		}
		return wire.ScheduleAdapter().UpdateReview(cmd.Context(), req)
	},
}

// ReviewCmd returns the review-schedule command
func ReviewCmd() *cobra.Command {
	reviewCompleteCmd.Flags().StringP("prison", "p", "", "Prison the review took place at")
	reviewCompleteCmd.Flags().String("actor", defaultActor(), "Username recorded on the change")
	addStatusFlags(reviewUpdateCmd)

	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewHistoryCmd)
	reviewCmd.AddCommand(reviewCompleteCmd)
	reviewCmd.AddCommand(reviewUpdateCmd)

	return reviewCmd
}
