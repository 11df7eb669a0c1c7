// Package app contains the Cobra command tree for repowatch.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/repowatch/internal/config"
	"github.com/blackwell-systems/repowatch/internal/output"
	"github.com/blackwell-systems/repowatch/internal/scanner"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "repowatch",
	Short: "Local repository intelligence from filesystem and git metadata",
	Long: `repowatch discovers the git repositories under a scan root and computes
per-repo metrics from local data only: language mix, lines of code, commit
history, declared dependencies, security pattern findings, and a composite
health score. Results are written to a JSON snapshot that the watch mode
keeps fresh by polling repository HEADs.

Run 'repowatch' with no arguments for a summary of commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("repowatch", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  scan      Scan all repositories and write the metrics snapshot")
		fmt.Println("  report    Render the latest snapshot as a dashboard or JSON")
		fmt.Println("  watch     Poll repository HEADs and keep the snapshot fresh")
		fmt.Println("  history   List recorded scans and compare health over time")
		return nil
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			output.SetNoColor(true)
		} else {
			output.AutoColor()
		}
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/repowatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
}

// newLogger builds the CLI logger: human-readable debug output with
// --verbose, silent otherwise.
func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	zc := zap.NewDevelopmentConfig()
	zc.DisableStacktrace = true
	log, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// newCollector wires a collector from loaded configuration.
func newCollector(cfg *config.Config, log *zap.Logger) *scanner.Collector {
	return &scanner.Collector{
		Root:        cfg.ScanRoot,
		Concurrency: cfg.Concurrency,
		GitTimeout:  cfg.GitTimeout(),
		Limits: scanner.Limits{
			MaxDiscoveryDepth: cfg.Limits.MaxDiscoveryDepth,
			MaxTreeDepth:      cfg.Limits.MaxTreeDepth,
			MaxFilesPerRepo:   cfg.Limits.MaxFilesPerRepo,
			MaxFileBytes:      cfg.Limits.MaxFileBytes,
			MaxSecurityFiles:  cfg.Limits.MaxSecurityFiles,
		},
		Thresholds: scanner.Thresholds{
			ActiveWindowDays:      cfg.Status.ActiveWindowDays,
			ActiveMinCommits:      cfg.Status.ActiveMinCommits,
			MaintenanceWindowDays: cfg.Status.MaintenanceWindowDays,
		},
		Log: log,
	}
}
