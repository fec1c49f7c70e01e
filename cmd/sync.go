package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"sighting-engine/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd runs one import outside the server.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import species and observations from iNaturalist once",
	Long: `Runs the full import: species under the configured root taxon, research-grade
observations with their contributors, locations and comments, then a recount of
the species observation and observation comment counters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		if err := rt.store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		engine := sync.NewEngine(rt.syncDependencies(rt.locations()), rt.cfg.Sync, rt.logger)
		report, err := engine.Run(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		rt.logger.Info("Sync finished",
			zap.Int("species", report.SpeciesInserted),
			zap.Int("observations", report.ObservationsInserted),
			zap.Int("comments", report.CommentsInserted),
		)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}
