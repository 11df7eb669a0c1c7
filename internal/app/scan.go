package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/repowatch/internal/config"
	"github.com/blackwell-systems/repowatch/internal/output"
	"github.com/blackwell-systems/repowatch/internal/scanner"
	"github.com/blackwell-systems/repowatch/internal/snapshot"
	"github.com/blackwell-systems/repowatch/internal/store"
)

var (
	scanFlagRoot      string
	scanFlagOut       string
	scanFlagWorkers   int
	scanFlagNoHistory bool
	scanFlagSort      string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan all repositories and write the metrics snapshot",
	Long: `Scan discovers every git repository under the scan root, computes the
full metrics record for each (languages, lines of code, git history,
dependencies, security findings, health score), and writes the aggregated
snapshot atomically. Each scan is also recorded in the local history
database so health can be compared over time.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFlagRoot, "root", "", "Scan root (default: configured scan_root)")
	scanCmd.Flags().StringVar(&scanFlagOut, "output", "", "Snapshot path (default: configured snapshot_path)")
	scanCmd.Flags().IntVar(&scanFlagWorkers, "concurrency", 0, "Concurrent repo collections (default: configured concurrency)")
	scanCmd.Flags().BoolVar(&scanFlagNoHistory, "no-history", false, "Skip recording this scan in the history database")
	scanCmd.Flags().StringVar(&scanFlagSort, "sort", "health", "Sort by: health, name, loc, commits")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if scanFlagRoot != "" {
		cfg.ScanRoot = scanFlagRoot
	}
	if scanFlagOut != "" {
		cfg.SnapshotPath = scanFlagOut
	}
	if scanFlagWorkers > 0 {
		cfg.Concurrency = scanFlagWorkers
	}

	log := newLogger()
	defer func() { _ = log.Sync() }()

	snapStore := snapshot.NewStore(cfg.SnapshotPath)
	c := newCollector(cfg, log)
	c.Store = snapStore

	// Ctrl-c aborts the scan; the previous snapshot stays untouched.
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	snap, err := c.CollectAll(ctx)
	if err != nil {
		return err
	}

	if !scanFlagNoHistory {
		if err := recordHistory(snap, cfg.ScanRoot, log); err != nil {
			log.Warn("recording scan history failed", zap.Error(err))
		}
	}

	if flagJSON {
		return renderSnapshotJSON(snap)
	}
	renderScanTable(snap, scanFlagSort)
	fmt.Printf("\nSnapshot written to %s\n", cfg.SnapshotPath)
	return nil
}

// recordHistory appends the scan to the SQLite history database.
func recordHistory(snap *scanner.Snapshot, scanRoot string, log *zap.Logger) error {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	scanID, err := db.RecordScan(snap, scanRoot, appVersion)
	if err != nil {
		return err
	}
	log.Debug("scan recorded", zap.Int64("scan_id", scanID))
	return nil
}

func renderSnapshotJSON(snap *scanner.Snapshot) error {
	return renderJSON(snap)
}

func renderJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderScanTable(snap *scanner.Snapshot, sortBy string) {
	repos := make([]scanner.RepoMetrics, len(snap.Repos))
	copy(repos, snap.Repos)
	sortRepos(repos, sortBy)

	fmt.Println(output.Section(fmt.Sprintf("Repositories (%d)", len(repos))))
	fmt.Println()

	t := output.NewTable("REPO", "HEALTH", "STATUS", "LANGUAGE", "LOC", "30D", "DEPS", "FINDINGS")
	for _, r := range repos {
		t.AddRow(
			r.Name,
			output.ScoreBar(r.HealthScore, 10),
			output.StatusBadge(r.Status),
			r.PrimaryLanguage,
			fmt.Sprintf("%d", r.TotalLOC),
			fmt.Sprintf("%d", r.Git.Commits30d),
			fmt.Sprintf("%d", r.DepCount),
			findingsCell(len(r.SecurityFindings)),
		)
	}
	t.Print()

	renderScanSummary(repos)
}

func renderScanSummary(repos []scanner.RepoMetrics) {
	var active, findings, loc int
	for _, r := range repos {
		if r.Status == scanner.StatusActive {
			active++
		}
		findings += len(r.SecurityFindings)
		loc += r.TotalLOC
	}
	fmt.Printf("\n%d repos scanned: %d active, %d lines of code, %d security findings\n",
		len(repos), active, loc, findings)
}

func findingsCell(n int) string {
	if n == 0 {
		return output.StyleMuted.Render("0")
	}
	return output.StyleError.Render(fmt.Sprintf("%d", n))
}

func sortRepos(repos []scanner.RepoMetrics, sortBy string) {
	switch sortBy {
	case "name":
		sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	case "loc":
		sort.Slice(repos, func(i, j int) bool { return repos[i].TotalLOC > repos[j].TotalLOC })
	case "commits":
		sort.Slice(repos, func(i, j int) bool { return repos[i].Git.Commits30d > repos[j].Git.Commits30d })
	default: // health
		sort.Slice(repos, func(i, j int) bool {
			if repos[i].HealthScore != repos[j].HealthScore {
				return repos[i].HealthScore > repos[j].HealthScore
			}
			return repos[i].Name < repos[j].Name
		})
	}
}
