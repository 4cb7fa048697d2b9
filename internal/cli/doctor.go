package cli

import (
	"github.com/spf13/cobra"

	"github.com/edenpkg/edenpkg/internal/engine"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Report per-skill diagnostic findings (missing sources, broken symlinks, stale registries...)",
	RunE:  runDoctor,
}

var doctorIgnoreFlags []string

func init() {
	doctorCmd.Flags().StringArrayVar(&doctorIgnoreFlags, "ignore", nil,
		"suppress findings whose target path matches this glob (repeatable; .edenignore next to the config is also honored)")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, load, err := engine.LoadConfig(configPathFlag, strictFlag)
	if err != nil {
		return err
	}

	result, err := engine.Doctor(cmd.Context(), cfg, load.ConfigDir, engine.DoctorOptions{
		Strict:         strictFlag,
		DockerBin:      dockerBinFlag,
		IgnorePatterns: doctorIgnoreFlags,
	})
	// Findings are printed regardless of a strict-mode Conflict error so
	// the caller can see what tripped the exit code.
	printFindings(result.Findings, result.Summary, jsonFlag)
	if err != nil {
		return err
	}
	return nil
}
