package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/wire"
)

var inductionCmd = &cobra.Command{
	Use:     "induction-schedule",
	Aliases: []string{"induction"},
	Short:   "Inspect and update induction schedules",
}

var inductionShowCmd = &cobra.Command{
	Use:   "show [prisoner-number]",
	Short: "Show a prisoner's latest induction schedule",
	Args:  cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ScheduleAdapter().ShowInduction(cmd.Context(), args[0])
	},
}

var inductionListCmd = &cobra.Command{
	Use:   "list [prisoner-number...]",
	Short: "List the latest induction schedule of each prisoner",
	Args:  cobra.MatchAll(cobra.MinimumNArgs(1), prisonerArgs(-1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ScheduleAdapter().ListInductions(cmd.Context(), args)
	},
}

var inductionHistoryCmd = &cobra.Command{
	Use:   "history [prisoner-number]",
	Short: "Show every version of a prisoner's induction schedule",
	Args:  cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.ScheduleAdapter().InductionHistory(cmd.Context(), args[0])
	},
}

var inductionUpdateCmd = &cobra.Command{
	Use:   "update [prisoner-number]",
	Short: "Change the status of a prisoner's induction schedule",
	Long: `Apply a staff exemption, clear an exemption with --status SCHEDULED,
or mark the schedule COMPLETE.`,
	Args: cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := statusRequest(cmd, args[0])
		if err != nil {
			return err
		}
		return wire.ScheduleAdapter().UpdateInduction(cmd.Context(), req)
	},
}

// statusRequest reads the flags shared by the update commands.
func statusRequest(cmd *cobra.Command, personID string) (primary.UpdateScheduleStatusRequest, error) {
	status, _ := cmd.Flags().GetString("status")
	reason, _ := cmd.Flags().GetString("reason")
	prison, _ := cmd.Flags().GetString("prison")
	actor, _ := cmd.Flags().GetString("actor")
	if err := validateStatus(status); err != nil {
		return primary.UpdateScheduleStatusRequest{}, err
	}
	return primary.UpdateScheduleStatusRequest{
		PersonID:        personID,
		Status:          status,
		ExemptionReason: reason,
		PrisonID:        prison,
		Actor:           actor,
	}, nil
}

func addStatusFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("status", "s", "", "New status (required)")
	cmd.Flags().StringP("reason", "r", "", "Exemption reason")
	cmd.Flags().StringP("prison", "p", "", "Prison the change is made at")
	cmd.Flags().String("actor", defaultActor(), "Username recorded on the change")
	_ = cmd.MarkFlagRequired("status")
}

// InductionCmd returns the induction-schedule command
func InductionCmd() *cobra.Command {
	addStatusFlags(inductionUpdateCmd)

	inductionCmd.AddCommand(inductionShowCmd)
	inductionCmd.AddCommand(inductionListCmd)
	inductionCmd.AddCommand(inductionHistoryCmd)
	inductionCmd.AddCommand(inductionUpdateCmd)

	return inductionCmd
}
