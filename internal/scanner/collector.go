package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// testFileCountCap bounds the test-file walk; past this point the exact
// count no longer changes the testing tier.
const testFileCountCap = 5000

// SnapshotWriter persists a finished snapshot. Implemented by the snapshot
// store; declared here so the collector does not depend on the persistence
// package.
type SnapshotWriter interface {
	Save(snap *Snapshot) error
}

// Collector runs the full metrics pipeline: discover repos under Root, fan
// out per-repo collection across Concurrency workers, and assemble the
// results into a Snapshot.
type Collector struct {
	Root        string
	Concurrency int
	GitTimeout  time.Duration
	Limits      Limits
	Thresholds  Thresholds

	// Store, when set, receives the finished snapshot.
	Store SnapshotWriter

	Log *zap.Logger
}

// NewCollector returns a collector with default limits and thresholds.
func NewCollector(root string) *Collector {
	return &Collector{
		Root:        root,
		Concurrency: 4,
		GitTimeout:  15 * time.Second,
		Limits:      DefaultLimits(),
		Thresholds:  DefaultThresholds(),
		Log:         zap.NewNop(),
	}
}

func (c *Collector) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}

// DiscoverRepos lists the repositories the collector would scan.
func (c *Collector) DiscoverRepos() ([]Repo, error) {
	return Discover(c.Root, c.Limits.MaxDiscoveryDepth, c.logger())
}

// CollectRepo computes the full metrics record for a single repository.
// Collection degrades per concern: a failing git call or an unreadable
// manifest zeroes that section instead of failing the repo.
func (c *Collector) CollectRepo(ctx context.Context, repo Repo) RepoMetrics {
	log := c.logger().With(zap.String("repo", repo.Name))
	start := time.Now()

	m := RepoMetrics{
		Name:        repo.Name,
		Path:        repo.Path,
		CollectedAt: time.Now().UTC(),
	}

	code := CountCode(repo.Path, c.Limits)
	m.TotalFiles = code.TotalFiles
	m.TotalLOC = code.TotalLOC
	m.Languages = code.Languages
	m.PrimaryLanguage = code.PrimaryLanguage

	insp := NewGitInspector(c.GitTimeout)
	insp.ActiveWindowDays = c.Thresholds.ActiveWindowDays
	insp.MaintenanceWindowDays = c.Thresholds.MaintenanceWindowDays
	m.Git = insp.Inspect(ctx, repo.Path)

	m.Dependencies = ScanDependencies(repo.Path)
	if m.Dependencies == nil {
		m.Dependencies = []string{}
	}
	m.DepCount = len(m.Dependencies)

	findings, score := ScanSecurity(repo.Path, c.Limits)
	m.SecurityFindings = findings
	m.SecurityScore = float64(score)

	c.markQuality(&m)

	m.HealthScore = HealthScore(&m)
	m.Status = ClassifyStatus(&m, c.Thresholds)

	log.Debug("repo collected",
		zap.Int("files", m.TotalFiles),
		zap.Int("loc", m.TotalLOC),
		zap.Float64("health", m.HealthScore),
		zap.String("status", m.Status),
		zap.Duration("elapsed", time.Since(start)))
	return m
}

// CollectAll runs the whole pipeline and returns the snapshot. Per-repo
// results keep discovery order regardless of which worker finished first.
// When a Store is configured the snapshot is saved before returning; a save
// failure is reported as the error but the snapshot is still returned so
// callers can render it.
func (c *Collector) CollectAll(ctx context.Context) (*Snapshot, error) {
	repos, err := c.DiscoverRepos()
	if err != nil {
		return nil, err
	}
	log := c.logger()
	log.Info("scan started", zap.String("root", c.Root), zap.Int("repos", len(repos)))
	start := time.Now()

	results := make([]RepoMetrics, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	workers := c.Concurrency
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.CollectRepo(gctx, repo)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		GeneratedAt: time.Now().UTC(),
		RepoCount:   len(results),
		Repos:       results,
	}
	log.Info("scan finished",
		zap.Int("repos", snap.RepoCount),
		zap.Duration("elapsed", time.Since(start)))

	if c.Store != nil {
		if err := c.Store.Save(snap); err != nil {
			return snap, fmt.Errorf("saving snapshot: %w", err)
		}
	}
	return snap, nil
}

// markQuality sets the hygiene marker fields: tests, CI, README, docs, flake.
func (c *Collector) markQuality(m *RepoMetrics) {
	m.TestFiles = countTestFiles(m.Path, c.Limits)
	m.HasTests = m.TestFiles > 0 || dirExists(filepath.Join(m.Path, "tests")) || dirExists(filepath.Join(m.Path, "test"))

	m.HasCI = dirExists(filepath.Join(m.Path, ".github", "workflows")) ||
		fileExists(filepath.Join(m.Path, ".gitlab-ci.yml")) ||
		fileExists(filepath.Join(m.Path, "Jenkinsfile"))

	for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
		if fileExists(filepath.Join(m.Path, name)) {
			m.HasReadme = true
			break
		}
	}
	m.HasDocs = dirExists(filepath.Join(m.Path, "docs"))
	m.HasFlake = fileExists(filepath.Join(m.Path, "flake.nix"))
}

// countTestFiles counts files whose name marks them as tests, capped so huge
// suites do not extend the walk needlessly.
func countTestFiles(repoPath string, lim Limits) int {
	count := 0
	walkFiles(repoPath, lim, testFileCountCap, func(path, rel string) {
		if isTestFile(filepath.Base(path)) {
			count++
		}
	})
	return count
}

func isTestFile(name string) bool {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, "_test.go"),
		strings.HasSuffix(lower, "_test.py"),
		strings.HasSuffix(lower, ".test.ts"),
		strings.HasSuffix(lower, ".test.js"),
		strings.HasSuffix(lower, ".spec.ts"),
		strings.HasSuffix(lower, ".spec.js"):
		return true
	case strings.HasPrefix(lower, "test_") && strings.HasSuffix(lower, ".py"):
		return true
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
