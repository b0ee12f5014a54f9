// Package cli holds the cobra commands. Commands parse flags and arguments
// and hand off to adapters obtained from the wire package.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/plp/internal/wire"
)

// Initialize loads configuration and builds the services before any
// subcommand runs. It is meant to be the root PersistentPreRunE.
func Initialize(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	wire.SetConfigPath(path)
	if err := wire.Init(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	return nil
}

// defaultActor is the username recorded on writes made from the command line.
func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}
