package cmd

import (
	"fmt"

	"sighting-engine/core/database"
	"sighting-engine/core/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checkOnly bool

// migrateCmd creates or updates the schema and verifies the result.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables and verify their columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		if !checkOnly {
			if err := rt.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			rt.logger.Info("Schema migrated")
		}

		issues, err := database.VerifySchema(rt.store.DB(), store.ExpectedColumns())
		if err != nil {
			return fmt.Errorf("schema verification failed: %w", err)
		}
		for _, issue := range issues {
			rt.logger.Warn("Schema issue", zap.String("issue", issue.String()))
		}
		if len(issues) > 0 {
			return fmt.Errorf("schema has %d issue(s)", len(issues))
		}
		rt.logger.Info("Schema verified")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&checkOnly, "check", false, "Only verify the schema, do not migrate")
	RootCmd.AddCommand(migrateCmd)
}
