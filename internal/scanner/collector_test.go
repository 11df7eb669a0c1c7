package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// buildRepo creates a git repo under root with one committed Python file.
func buildRepo(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	gitRun(t, dir, "init", "-q", "-b", "main")
	commitFile(t, dir, "main.py", "print('hello')\nprint('world')\n", "initial commit")
	return dir
}

func TestCollectRepo_FullRecord(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	dir := buildRepo(t, root, "proj")
	writeFile(t, dir, "README.md", "# proj\n")
	writeFile(t, dir, "tests/test_main.py", "def test_ok():\n    assert True\n")
	writeFile(t, dir, ".github/workflows/ci.yml", "on: push\n")
	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"proj\"\ndependencies = [\"flask\"]\n")
	writeFile(t, dir, "flake.nix", "{ }\n")

	c := NewCollector(root)
	m := c.CollectRepo(context.Background(), Repo{Name: "proj", Path: dir})

	if m.Name != "proj" || m.Path != dir {
		t.Errorf("identity = %q %q", m.Name, m.Path)
	}
	if m.CollectedAt.IsZero() {
		t.Error("CollectedAt not set")
	}
	if m.PrimaryLanguage != "Python" {
		t.Errorf("primary language = %q", m.PrimaryLanguage)
	}
	if m.Git.TotalCommits != 1 {
		t.Errorf("total commits = %d", m.Git.TotalCommits)
	}
	if !reflect.DeepEqual(m.Dependencies, []string{"py:flask"}) {
		t.Errorf("deps = %v", m.Dependencies)
	}
	if m.DepCount != 1 {
		t.Errorf("dep count = %d", m.DepCount)
	}
	if !m.HasTests || m.TestFiles != 1 {
		t.Errorf("tests: has=%v files=%d", m.HasTests, m.TestFiles)
	}
	if !m.HasCI || !m.HasReadme || !m.HasFlake {
		t.Errorf("markers: ci=%v readme=%v flake=%v", m.HasCI, m.HasReadme, m.HasFlake)
	}
	if m.SecurityScore != 100 {
		t.Errorf("security score = %v", m.SecurityScore)
	}
	if m.Status != StatusActive {
		t.Errorf("status = %q", m.Status)
	}
	if m.HealthScore <= 0 || m.HealthScore > 100 {
		t.Errorf("health score out of range: %v", m.HealthScore)
	}
}

func TestCollectRepo_WiderActiveWindowKeepsRepoActive(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	dir := filepath.Join(root, "aging")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	gitRun(t, dir, "init", "-q", "-b", "main")
	commitFileAt(t, dir, "main.py", "print('hi')\n", "only commit", time.Now().AddDate(0, 0, -45))

	c := NewCollector(root)
	m := c.CollectRepo(context.Background(), Repo{Name: "aging", Path: dir})
	if m.Status != StatusMaintenance {
		t.Fatalf("default windows: status = %q, want %q", m.Status, StatusMaintenance)
	}

	c.Thresholds.ActiveWindowDays = 60
	m = c.CollectRepo(context.Background(), Repo{Name: "aging", Path: dir})
	if m.Git.Commits30d != 1 {
		t.Errorf("active-window commits = %d, want 1", m.Git.Commits30d)
	}
	if m.Status != StatusActive {
		t.Errorf("60 day window: status = %q, want %q", m.Status, StatusActive)
	}
}

func TestCollectRepo_DegradesWithoutHistory(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	dir := filepath.Join(root, "empty")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	gitRun(t, dir, "init", "-q", "-b", "main")
	writeFile(t, dir, "main.go", "package main\n")

	c := NewCollector(root)
	m := c.CollectRepo(context.Background(), Repo{Name: "empty", Path: dir})

	if m.Git.Error == "" {
		t.Error("expected git error marker for repo with no commits")
	}
	if m.Status != StatusEmpty {
		t.Errorf("status = %q, want %q", m.Status, StatusEmpty)
	}
	// Code metrics still collected.
	if m.TotalFiles == 0 {
		t.Error("code metrics missing despite readable tree")
	}
	if m.Dependencies == nil {
		t.Error("Dependencies should be an empty slice, not nil")
	}
}

func TestCollectAll_SnapshotInvariants(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	buildRepo(t, root, "alpha")
	buildRepo(t, root, "beta")

	c := NewCollector(root)
	snap, err := c.CollectAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.RepoCount != len(snap.Repos) {
		t.Errorf("repo_count %d != %d repos", snap.RepoCount, len(snap.Repos))
	}
	if snap.RepoCount != 2 {
		t.Fatalf("expected 2 repos, got %d", snap.RepoCount)
	}
	if snap.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	// Discovery order survives the concurrent fan-out.
	if snap.Repos[0].Name != "alpha" || snap.Repos[1].Name != "beta" {
		t.Errorf("order = %q, %q", snap.Repos[0].Name, snap.Repos[1].Name)
	}
}

func TestCollectAll_Idempotent(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	buildRepo(t, root, "alpha")
	buildRepo(t, root, "beta")

	c := NewCollector(root)
	first, err := c.CollectAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.CollectAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(first.Repos) != len(second.Repos) {
		t.Fatalf("runs disagree on repo count")
	}
	for i := range first.Repos {
		a, b := first.Repos[i], second.Repos[i]
		// Timestamps differ between runs; everything else must not.
		a.CollectedAt = b.CollectedAt
		if !reflect.DeepEqual(a, b) {
			t.Errorf("repo %s differs between identical scans:\n%+v\n%+v", a.Name, a, b)
		}
	}
}

// failingStore always refuses to save.
type failingStore struct{}

func (failingStore) Save(*Snapshot) error { return errors.New("disk full") }

func TestCollectAll_ReturnsSnapshotWhenSaveFails(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	buildRepo(t, root, "alpha")

	c := NewCollector(root)
	c.Store = failingStore{}

	snap, err := c.CollectAll(context.Background())
	if err == nil {
		t.Fatal("expected save error")
	}
	if snap == nil || snap.RepoCount != 1 {
		t.Error("snapshot should still be returned when the save fails")
	}
}

func TestCollectAll_Cancelled(t *testing.T) {
	requireGit(t)
	root := t.TempDir()
	buildRepo(t, root, "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector(root)
	if _, err := c.CollectAll(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
