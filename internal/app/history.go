package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repowatch/internal/config"
	"github.com/blackwell-systems/repowatch/internal/output"
	"github.com/blackwell-systems/repowatch/internal/store"
)

var (
	historyFlagLimit   int
	historyFlagCompare bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scans and compare health over time",
	Long: `History reads the local scan database that 'scan' appends to. The
default view lists recent scans; --compare shows per-repo health deltas
between the two most recent scans.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlagLimit, "limit", 10, "How many scans to list")
	historyCmd.Flags().BoolVar(&historyFlagCompare, "compare", false, "Compare the two most recent scans")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if historyFlagCompare {
		return runHistoryCompare(db)
	}
	return runHistoryList(db)
}

func runHistoryList(db *store.DB) error {
	scans, err := db.ListScans(historyFlagLimit)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		fmt.Println("No scans recorded yet. Run 'repowatch scan' first.")
		return nil
	}
	if flagJSON {
		return renderJSON(scans)
	}

	fmt.Println(output.Section("Scan history"))
	fmt.Println()
	t := output.NewTable("ID", "WHEN", "ROOT", "REPOS", "VERSION")
	for _, s := range scans {
		t.AddRow(
			fmt.Sprintf("%d", s.ID),
			s.TakenAt.Local().Format("2006-01-02 15:04"),
			s.ScanRoot,
			fmt.Sprintf("%d", s.RepoCount),
			s.Version,
		)
	}
	t.Print()
	return nil
}

func runHistoryCompare(db *store.DB) error {
	curr, err := db.GetLatestScan()
	if err != nil {
		return err
	}
	prev, err := db.GetScanN(2)
	if err != nil {
		return err
	}
	if curr == nil || prev == nil {
		return fmt.Errorf("need at least two recorded scans to compare")
	}

	diff, err := db.CompareScans(prev, curr)
	if err != nil {
		return err
	}
	if flagJSON {
		return renderJSON(diff)
	}

	fmt.Println(output.Section(fmt.Sprintf("Health: scan %d vs scan %d", prev.ID, curr.ID)))
	fmt.Println()
	t := output.NewTable("REPO", "BEFORE", "AFTER", "TREND")
	for _, d := range diff.Deltas {
		t.AddRow(
			d.Repo,
			fmt.Sprintf("%.1f", d.Previous),
			fmt.Sprintf("%.1f", d.Current),
			output.TrendArrow(d.Delta),
		)
	}
	t.Print()
	return nil
}
