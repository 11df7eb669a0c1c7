package scanner

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// topContributorLimit is how many shortlog entries are kept.
const topContributorLimit = 5

// lastCommitHashLen truncates the stored last-commit hash for display; the
// full SHA is only needed by HeadHash for change detection.
const lastCommitHashLen = 12

// lastCommitMessageLen truncates oversized commit subjects.
const lastCommitMessageLen = 120

var (
	headHashRe = regexp.MustCompile(`^[0-9a-f]{40}$`)
	shortlogRe = regexp.MustCompile(`^\s*(\d+)\s+(.+)$`)
)

// GitInspector reads history metrics from local git metadata by shelling
// out to the git CLI. Every invocation is bounded by a timeout; any failure
// degrades the repo's GitMetrics instead of propagating.
type GitInspector struct {
	timeout time.Duration

	// ActiveWindowDays and MaintenanceWindowDays size the recent-commit
	// windows reported as Commits30d and Commits90d. Zero means the 30
	// and 90 day defaults the field names describe.
	ActiveWindowDays      int
	MaintenanceWindowDays int
}

// NewGitInspector returns an inspector whose git invocations are bounded
// by the given timeout.
func NewGitInspector(timeout time.Duration) *GitInspector {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GitInspector{timeout: timeout}
}

// Inspect computes history metrics for one repository. Repositories with
// no commits (and git tooling failures) produce zeroed metrics with Error
// set; this path never fails.
func (g *GitInspector) Inspect(ctx context.Context, repoPath string) GitMetrics {
	m := GitMetrics{TopContributors: []TopContributor{}}

	if _, err := exec.LookPath("git"); err != nil {
		m.Error = "git executable not found"
		return m
	}
	if _, err := g.run(ctx, repoPath, "rev-parse", "--verify", "HEAD"); err != nil {
		m.Error = "no commits on HEAD"
		return m
	}

	active := g.ActiveWindowDays
	if active <= 0 {
		active = 30
	}
	maintenance := g.MaintenanceWindowDays
	if maintenance <= 0 {
		maintenance = 90
	}

	m.TotalCommits = g.runInt(ctx, repoPath, "rev-list", "--count", "HEAD")
	m.Commits30d = g.runInt(ctx, repoPath, "rev-list", "--count", fmt.Sprintf("--after=%d days ago", active), "HEAD")
	m.Commits90d = g.runInt(ctx, repoPath, "rev-list", "--count", fmt.Sprintf("--after=%d days ago", maintenance), "HEAD")

	shortlog, _ := g.run(ctx, repoPath, "shortlog", "-sn", "--no-merges", "HEAD")
	for _, line := range strings.Split(shortlog, "\n") {
		match := shortlogRe.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		m.Contributors++
		if len(m.TopContributors) < topContributorLimit {
			commits, _ := strconv.Atoi(match[1])
			m.TopContributors = append(m.TopContributors, TopContributor{
				Name:    strings.TrimSpace(match[2]),
				Commits: commits,
			})
		}
	}

	m.Branches = g.runLineCount(ctx, repoPath, "branch", "--list")
	m.Tags = g.runLineCount(ctx, repoPath, "tag", "--list")

	if last, err := g.run(ctx, repoPath, "log", "-1", "--format=%H|%an|%aI|%s"); err == nil {
		parts := strings.SplitN(strings.TrimSpace(last), "|", 4)
		if len(parts) == 4 {
			m.LastCommitHash = truncate(parts[0], lastCommitHashLen)
			m.LastCommitAuthor = parts[1]
			m.LastCommitDate = parts[2]
			m.LastCommitMessage = truncate(parts[3], lastCommitMessageLen)
		}
	}

	return m
}

// HeadHash returns the SHA currently checked out, or "" for a repository
// without commits. It runs a single rev-parse, cheap enough for the
// watcher to poll every tick.
func (g *GitInspector) HeadHash(ctx context.Context, repoPath string) string {
	out, err := g.run(ctx, repoPath, "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	hash := strings.TrimSpace(out)
	if !headHashRe.MatchString(hash) {
		return ""
	}
	return hash
}

// run executes one git command in repoPath under the inspector's timeout.
func (g *GitInspector) run(ctx context.Context, repoPath string, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "git", args...)
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// runInt executes a git command expected to print a single integer.
func (g *GitInspector) runInt(ctx context.Context, repoPath string, args ...string) int {
	out, err := g.run(ctx, repoPath, args...)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0
	}
	return n
}

// runLineCount executes a git command and counts its non-blank output lines.
func (g *GitInspector) runLineCount(ctx context.Context, repoPath string, args ...string) int {
	out, err := g.run(ctx, repoPath, args...)
	if err != nil {
		return 0
	}
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune,
// so truncated subjects stay valid UTF-8 in the snapshot JSON.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for i := n; i > 0; i-- {
		if utf8.RuneStart(s[i]) {
			return s[:i]
		}
	}
	return ""
}
