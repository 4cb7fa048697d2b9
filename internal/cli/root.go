package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/edenpkg/edenpkg/internal/buildinfo"
	"github.com/edenpkg/edenpkg/internal/ekind"
)

// Global flag values, bound in init and read by every subcommand's RunE.
var (
	configPathFlag  string
	strictFlag      bool
	jsonFlag        bool
	concurrencyFlag int
	dockerBinFlag   string
	verboseFlag     bool
	quietFlag       bool
)

var rootCmd = &cobra.Command{
	Use:   "edenpkg",
	Short: "Declaratively install and reconcile AI-agent skills.",
	Long: `edenpkg reconciles a declarative skills.toml against a local content
store and per-agent target directories: it clones or updates each skill's
git source, computes a create/update/noop/conflict plan, materializes
symlinks or copies, removes orphaned skills, and keeps a lock file that
makes every run idempotent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := ResolveLogLevel(verboseFlag, quietFlag)
		format := ResolveLogFormat()
		SetupLogging(level, format)
		slog.Debug("logging initialized", "level", level, "format", format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "skills.toml", "path to the skills config file")
	rootCmd.PersistentFlags().BoolVar(&strictFlag, "strict", false, "promote config warnings / doctor findings to a failing exit code")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "emit machine-readable JSON instead of text")
	rootCmd.PersistentFlags().IntVar(&concurrencyFlag, "concurrency", 0, "override [reactor].concurrency for this run (0 keeps the config value)")
	rootCmd.PersistentFlags().StringVar(&dockerBinFlag, "docker-bin", "", "override the docker binary path (default: \"docker\" from PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "only log errors")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("edenpkg %s (commit %s, built %s, %s, %s/%s)\n",
			buildinfo.Version, buildinfo.Commit, buildinfo.Date, buildinfo.GoVersion, buildinfo.OS(), buildinfo.Arch())
		return nil
	},
}

// concurrencyOverride returns the --concurrency flag as a pointer, or nil
// when left at its zero-value default so config.ResolveConcurrency falls
// back to [reactor].concurrency.
func concurrencyOverride() *int {
	if concurrencyFlag == 0 {
		return nil
	}
	v := concurrencyFlag
	return &v
}

// Execute runs the root command and returns the process exit code
// (0/1/2/3), mapped from any returned ekind.Error.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		slog.Error(err.Error())
		return ekind.ExitCodeFor(err)
	}
	return 0
}

// RootCmd exposes the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
