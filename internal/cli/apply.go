package cli

import (
	"github.com/spf13/cobra"

	"github.com/edenpkg/edenpkg/internal/engine"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Sync sources, materialize targets, remove orphans, and write the lock",
	RunE:  runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, load, err := engine.LoadConfig(configPathFlag, strictFlag)
	if err != nil {
		return err
	}

	result, err := engine.Apply(cmd.Context(), cfg, load.ConfigDir, load.ConfigPath, engine.ApplyOptions{
		ConcurrencyOverride: concurrencyOverride(),
		DockerBin:           dockerBinFlag,
	})
	if err != nil {
		return err
	}

	printPlanItems(result.Items, jsonFlag)
	printSummaryLine(result.Created, result.Updated, result.Noop, result.Conflict, result.Removed)
	return nil
}
