package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/plp/internal/cli"
	"github.com/example/plp/internal/version"
	"github.com/example/plp/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "plp",
		Short:   "PLP - induction and review schedule engine",
		Version: version.String(),
		Long: `PLP keeps each prisoner's induction and review schedules in step with
their movements through the prison estate. It consumes prisoner lifecycle
events from a queue and exposes the schedules for inspection and update.`,
		SilenceUsage:      true,
		PersistentPreRunE: cli.Initialize,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default $PLP_CONFIG, then built-in defaults)")

	// Add subcommands
	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.ConsumeCmd())
	rootCmd.AddCommand(cli.EventCmd())
	rootCmd.AddCommand(cli.ParkedCmd())

	// Schedule and learning plan commands
	rootCmd.AddCommand(cli.InductionCmd())
	rootCmd.AddCommand(cli.ReviewCmd())
	rootCmd.AddCommand(cli.LearningPlanCmd())

	err := rootCmd.Execute()
	if cerr := wire.Close(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
