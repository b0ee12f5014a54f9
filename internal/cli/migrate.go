package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/plp/internal/wire"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := wire.Migrate(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
		fmt.Printf("✓ Schema at version %d\n", version)
		return nil
	},
}

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return migrateCmd
}
