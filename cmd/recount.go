package cmd

import (
	"fmt"

	"sighting-engine/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// recountCmd recomputes the denormalised counters without importing.
var recountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Recompute species observation counts and observation comment counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap()
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		engine := sync.NewEngine(sync.Dependencies{Store: rt.store, Metrics: rt.metrics}, rt.cfg.Sync, rt.logger)
		species, observations, err := engine.Finalize(cmd.Context())
		if err != nil {
			return fmt.Errorf("recount failed: %w", err)
		}

		rt.logger.Info("Recount finished",
			zap.Int64("species", species),
			zap.Int64("observations", observations),
		)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(recountCmd)
}
