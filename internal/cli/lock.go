package cli

import (
	"github.com/spf13/cobra"

	"github.com/edenpkg/edenpkg/internal/engine"
	"github.com/edenpkg/edenpkg/internal/plan"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Inspect the skills lock file",
}

var lockDiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show what apply would change: skills to create/update/remove relative to the lock",
	RunE:  runLockDiff,
}

func init() {
	lockCmd.AddCommand(lockDiffCmd)
	rootCmd.AddCommand(lockCmd)
}

func runLockDiff(cmd *cobra.Command, args []string) error {
	cfg, load, err := engine.LoadConfig(configPathFlag, strictFlag)
	if err != nil {
		return err
	}

	result, err := engine.Plan(cfg, load.ConfigDir, load.ConfigPath)
	if err != nil {
		return err
	}

	var changed []plan.Item
	for _, item := range result.Items {
		if item.Action != plan.ActionNoop {
			changed = append(changed, item)
		}
	}

	printPlanItems(changed, jsonFlag)
	created, updated, noop, conflict, removed := engine.Summarize(result.Items)
	printSummaryLine(created, updated, noop, conflict, removed)
	return nil
}
