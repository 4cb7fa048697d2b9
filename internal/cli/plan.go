package cli

import (
	"github.com/spf13/cobra"

	"github.com/edenpkg/edenpkg/internal/engine"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and print the reconciliation plan without changing anything",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, load, err := engine.LoadConfig(configPathFlag, strictFlag)
	if err != nil {
		return err
	}

	result, err := engine.Plan(cfg, load.ConfigDir, load.ConfigPath)
	if err != nil {
		return err
	}

	printPlanItems(result.Items, jsonFlag)
	created, updated, noop, conflict, removed := engine.Summarize(result.Items)
	printSummaryLine(created, updated, noop, conflict, removed)
	return nil
}
