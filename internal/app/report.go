package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repowatch/internal/config"
	"github.com/blackwell-systems/repowatch/internal/output"
	"github.com/blackwell-systems/repowatch/internal/scanner"
	"github.com/blackwell-systems/repowatch/internal/snapshot"
)

var (
	reportFlagRepo string
	reportFlagSort string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the latest snapshot as a dashboard or JSON",
	Long: `Report reads the snapshot written by 'scan' (or kept fresh by 'watch')
and renders it without touching any repository. Use --repo for a detailed
view of a single repository.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFlagRepo, "repo", "", "Show the detailed view for one repository")
	reportCmd.Flags().StringVar(&reportFlagSort, "sort", "health", "Sort by: health, name, loc, commits")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	snapStore := snapshot.NewStore(cfg.SnapshotPath)
	snap, err := snapStore.Load()
	if errors.Is(err, snapshot.ErrMissing) {
		return fmt.Errorf("no snapshot at %s; run 'repowatch scan' first", cfg.SnapshotPath)
	}
	if err != nil {
		return err
	}

	if reportFlagRepo != "" {
		return renderRepoDetail(snap, reportFlagRepo)
	}
	if flagJSON {
		return renderSnapshotJSON(snap)
	}

	fmt.Printf("Snapshot of %d repos, generated %s\n",
		snap.RepoCount, snap.GeneratedAt.Local().Format("2006-01-02 15:04:05"))
	renderScanTable(snap, reportFlagSort)
	return nil
}

func renderRepoDetail(snap *scanner.Snapshot, name string) error {
	var repo *scanner.RepoMetrics
	for i := range snap.Repos {
		if snap.Repos[i].Name == name {
			repo = &snap.Repos[i]
			break
		}
	}
	if repo == nil {
		return fmt.Errorf("repo %q not in snapshot (%d repos)", name, snap.RepoCount)
	}
	if flagJSON {
		return renderJSON(repo)
	}

	fmt.Println(output.Section(repo.Name))
	fmt.Println()
	detail := func(label, value string) {
		fmt.Printf(" %s %s\n", output.StyleLabel.Render(label), value)
	}
	detail("Path", output.StyleMuted.Render(repo.Path))
	detail("Health", output.ScoreBar(repo.HealthScore, 20))
	detail("Status", output.StatusBadge(repo.Status))
	detail("Collected", repo.CollectedAt.Local().Format("2006-01-02 15:04:05"))

	fmt.Println(output.Section("Code"))
	fmt.Println()
	detail("Files", fmt.Sprintf("%d", repo.TotalFiles))
	detail("Lines of code", fmt.Sprintf("%d", repo.TotalLOC))
	detail("Primary language", repo.PrimaryLanguage)
	langLines := make(map[string]int, len(repo.Languages))
	for lang, ls := range repo.Languages {
		langLines[lang] = ls.Lines
	}
	if bar := output.LangBar(langLines, repo.TotalLOC, 30); bar != "" {
		detail("Mix", bar)
	}
	for _, lang := range sortedLanguages(repo.Languages) {
		ls := repo.Languages[lang]
		detail("  "+lang, fmt.Sprintf("%d files, %d lines", ls.Files, ls.Lines))
	}

	fmt.Println(output.Section("History"))
	fmt.Println()
	if repo.Git.Error != "" {
		detail("Git", output.StyleWarning.Render(repo.Git.Error))
	} else {
		detail("Commits", fmt.Sprintf("%d total, %d in 30d, %d in 90d",
			repo.Git.TotalCommits, repo.Git.Commits30d, repo.Git.Commits90d))
		detail("Contributors", fmt.Sprintf("%d", repo.Git.Contributors))
		detail("Branches / tags", fmt.Sprintf("%d / %d", repo.Git.Branches, repo.Git.Tags))
		if repo.Git.LastCommitHash != "" {
			detail("Last commit", fmt.Sprintf("%s %s (%s)",
				repo.Git.LastCommitHash, repo.Git.LastCommitMessage, repo.Git.LastCommitAuthor))
		}
		for _, tc := range repo.Git.TopContributors {
			detail("  "+tc.Name, fmt.Sprintf("%d commits", tc.Commits))
		}
	}

	fmt.Println(output.Section("Hygiene"))
	fmt.Println()
	detail("Tests", yesNo(repo.HasTests)+testFileSuffix(repo.TestFiles))
	detail("CI", yesNo(repo.HasCI))
	detail("README", yesNo(repo.HasReadme))
	detail("Docs", yesNo(repo.HasDocs))
	detail("Nix flake", yesNo(repo.HasFlake))
	detail("Dependencies", fmt.Sprintf("%d declared", repo.DepCount))
	if repo.DepCount > 0 {
		detail("", output.StyleMuted.Render(strings.Join(repo.Dependencies, ", ")))
	}

	fmt.Println(output.Section("Security"))
	fmt.Println()
	detail("Score", output.ScoreBar(repo.SecurityScore, 20))
	for _, f := range repo.SecurityFindings {
		detail("  "+f.Type, fmt.Sprintf("%s:%d", f.File, f.Line))
	}
	fmt.Println()
	return nil
}

// sortedLanguages orders language buckets by line count descending, name
// ascending on ties.
func sortedLanguages(langs map[string]scanner.LanguageStat) []string {
	names := make([]string, 0, len(langs))
	for lang := range langs {
		names = append(names, lang)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := langs[names[i]], langs[names[j]]
		if a.Lines != b.Lines {
			return a.Lines > b.Lines
		}
		return names[i] < names[j]
	})
	return names
}

func yesNo(v bool) string {
	if v {
		return output.StyleSuccess.Render("yes")
	}
	return output.StyleMuted.Render("no")
}

func testFileSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" (%d test files)", n)
}
