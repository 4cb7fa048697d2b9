package cli

import (
	"github.com/spf13/cobra"

	"github.com/edenpkg/edenpkg/internal/engine"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile drifted targets back to the declared plan (alias of apply)",
	RunE:  runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	cfg, load, err := engine.LoadConfig(configPathFlag, strictFlag)
	if err != nil {
		return err
	}

	result, err := engine.Repair(cmd.Context(), cfg, load.ConfigDir, load.ConfigPath, engine.ApplyOptions{
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
