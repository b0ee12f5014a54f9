package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/plp/internal/wire"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Apply lifecycle events by hand",
}

var eventApplyCmd = &cobra.Command{
	Use:   "apply [file...]",
	Short: "Handle event JSON files as if received from the queue",
	Long: `Each file holds one event, raw or wrapped in an SNS notification.
Use - to read a single event from stdin. Events that cannot be handled
are parked exactly as the consumer would park them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter := wire.EventAdapter()
		for _, path := range args {
			body, err := readEventFile(path)
			if err != nil {
				return err
			}
			if err := adapter.Apply(cmd.Context(), filepath.Base(path), string(body)); err != nil {
				return err
			}
		}
		return nil
	},
}

var parkedCmd = &cobra.Command{
	Use:   "parked",
	Short: "Inspect events parked for manual follow-up",
}

var parkedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List parked events, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.EventAdapter().ListParked(cmd.Context())
	},
}

func readEventFile(path string) ([]byte, error) {
	if path == "-" {
		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return body, nil
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	return body, nil
}

// EventCmd returns the event command
func EventCmd() *cobra.Command {
	eventCmd.AddCommand(eventApplyCmd)
	return eventCmd
}

// ParkedCmd returns the parked command
func ParkedCmd() *cobra.Command {
	parkedCmd.AddCommand(parkedListCmd)
	return parkedCmd
}
