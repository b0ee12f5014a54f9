package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/plp/internal/ports/primary"
	"github.com/example/plp/internal/wire"
)

var learningPlanCmd = &cobra.Command{
	Use:     "learning-plan",
	Aliases: []string{"plan"},
	Short:   "Record inductions and action plans",
}

var recordInductionCmd = &cobra.Command{
	Use:   "record-induction [prisoner-number]",
	Short: "Record a completed induction",
	Long: `Record a completed induction. The induction schedule is completed and,
when the action plan already has goals, the first review is scheduled.`,
	Args: cobra.MatchAll(cobra.ExactArgs(1), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		prison, _ := cmd.Flags().GetString("prison")
		actor, _ := cmd.Flags().GetString("actor")
		completed, _ := cmd.Flags().GetString("completed-at")

		req := primary.RecordInductionRequest{PersonID: args[0], PrisonID: prison, Actor: actor}
		if completed != "" {
			t, err := time.Parse(time.RFC3339, completed)
			if err != nil {
				return fmt.Errorf("invalid --completed-at: %w", err)
			}
			req.CompletedAt = t
		}
		return wire.LearningPlanAdapter().RecordInduction(cmd.Context(), req)
	},
}

var saveActionPlanCmd = &cobra.Command{
	Use:   "save-action-plan [prisoner-number] [goals-file]",
	Short: "Replace a prisoner's action plan goals",
	Long: `Replace the goals of a prisoner's action plan with those in a YAML file:

  - reference: 5c0e...    # omit for a new goal
    title: Improve maths
    targetDate: 2026-01-31
    status: ACTIVE

Goals missing from the file are deleted.`,
	Args: cobra.MatchAll(cobra.ExactArgs(2), prisonerArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		prison, _ := cmd.Flags().GetString("prison")
		actor, _ := cmd.Flags().GetString("actor")

		goals, err := readGoals(args[1])
		if err != nil {
			return err
		}
		return wire.LearningPlanAdapter().SaveActionPlan(cmd.Context(), primary.SaveActionPlanRequest{
			PersonID: args[0],
			PrisonID: prison,
			Goals:    goals,
			Actor:    actor,
		})
	},
}

type goalFile struct {
	Reference  string `yaml:"reference"`
	Title      string `yaml:"title"`
	TargetDate string `yaml:"targetDate"`
	Status     string `yaml:"status"`
}

func readGoals(path string) ([]primary.Goal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read goals: %w", err)
	}
	return parseGoals(data)
}

func parseGoals(data []byte) ([]primary.Goal, error) {
	var entries []goalFile
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse goals: %w", err)
	}
	goals := make([]primary.Goal, 0, len(entries))
	for i, e := range entries {
		if e.Title == "" {
			return nil, fmt.Errorf("goal %d has no title", i+1)
		}
		goals = append(goals, primary.Goal{
			Reference:  e.Reference,
			Title:      e.Title,
			TargetDate: e.TargetDate,
			Status:     e.Status,
		})
	}
	return goals, nil
}

// LearningPlanCmd returns the learning-plan command
func LearningPlanCmd() *cobra.Command {
	for _, cmd := range []*cobra.Command{recordInductionCmd, saveActionPlanCmd} {
		cmd.Flags().StringP("prison", "p", "", "Prison the change is made at")
		cmd.Flags().String("actor", defaultActor(), "Username recorded on the change")
	}
	recordInductionCmd.Flags().String("completed-at", "", "Completion time in RFC 3339 (default now)")

	learningPlanCmd.AddCommand(recordInductionCmd)
	learningPlanCmd.AddCommand(saveActionPlanCmd)

	return learningPlanCmd
}
