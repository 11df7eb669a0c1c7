package scanner

import (
	"context"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// requireGit skips the test when no git executable is available.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// gitRun executes git with the given args in dir, failing the test on error.
func gitRun(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-C", dir,
		"-c", "user.name=Test User",
		"-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false"}, args...)
	out, err := exec.Command("git", full...).CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}
}

// initGitRepo creates an empty git repository in a temp dir.
func initGitRepo(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	gitRun(t, dir, "init", "-q", "-b", "main")
	return dir
}

// commitFile writes a file and commits it.
func commitFile(t *testing.T, dir, name, content, message string) {
	t.Helper()
	writeFile(t, dir, name, content)
	gitRun(t, dir, "add", name)
	gitRun(t, dir, "commit", "-q", "-m", message)
}

// commitFileAt writes a file and commits it with both author and committer
// dates set to when, so rev-list date filters see the backdated commit.
func commitFileAt(t *testing.T, dir, name, content, message string, when time.Time) {
	t.Helper()
	writeFile(t, dir, name, content)
	gitRun(t, dir, "add", name)

	stamp := when.Format(time.RFC3339)
	cmd := exec.Command("git", "-C", dir,
		"-c", "user.name=Test User",
		"-c", "user.email=test@example.com",
		"-c", "commit.gpgsign=false",
		"commit", "-q", "-m", message, "--date", stamp)
	cmd.Env = append(os.Environ(), "GIT_COMMITTER_DATE="+stamp)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git commit failed: %v\n%s", err, out)
	}
}

func TestInspect_EmptyRepo(t *testing.T) {
	dir := initGitRepo(t)

	m := NewGitInspector(0).Inspect(context.Background(), dir)
	if m.Error == "" {
		t.Error("expected an error marker for a repo with no commits")
	}
	if m.TotalCommits != 0 {
		t.Errorf("expected 0 commits, got %d", m.TotalCommits)
	}
	if m.TopContributors == nil {
		t.Error("TopContributors should be an empty slice, not nil")
	}
}

func TestInspect_WithCommits(t *testing.T) {
	dir := initGitRepo(t)
	commitFile(t, dir, "a.txt", "one\n", "first commit")
	commitFile(t, dir, "b.txt", "two\n", "second commit")

	m := NewGitInspector(0).Inspect(context.Background(), dir)
	if m.Error != "" {
		t.Fatalf("unexpected error: %s", m.Error)
	}
	if m.TotalCommits != 2 {
		t.Errorf("expected 2 commits, got %d", m.TotalCommits)
	}
	if m.Commits30d != 2 {
		t.Errorf("expected 2 commits in 30d, got %d", m.Commits30d)
	}
	if m.Contributors != 1 {
		t.Errorf("expected 1 contributor, got %d", m.Contributors)
	}
	if m.Branches < 1 {
		t.Errorf("expected at least 1 branch, got %d", m.Branches)
	}
	if len(m.LastCommitHash) != 12 {
		t.Errorf("expected 12-char hash, got %q", m.LastCommitHash)
	}
	if m.LastCommitMessage != "second commit" {
		t.Errorf("last message = %q", m.LastCommitMessage)
	}
	if m.LastCommitAuthor != "Test User" {
		t.Errorf("last author = %q", m.LastCommitAuthor)
	}
	if len(m.TopContributors) != 1 || m.TopContributors[0].Commits != 2 {
		t.Errorf("top contributors = %v", m.TopContributors)
	}
}

func TestInspect_TruncatesLongMessage(t *testing.T) {
	dir := initGitRepo(t)
	long := strings.Repeat("x", 300)
	commitFile(t, dir, "a.txt", "one\n", long)

	m := NewGitInspector(0).Inspect(context.Background(), dir)
	if len(m.LastCommitMessage) != 120 {
		t.Errorf("expected message truncated to 120 chars, got %d", len(m.LastCommitMessage))
	}
}

func TestInspect_Tags(t *testing.T) {
	dir := initGitRepo(t)
	commitFile(t, dir, "a.txt", "one\n", "first")
	gitRun(t, dir, "tag", "v0.1.0")
	gitRun(t, dir, "tag", "v0.2.0")

	m := NewGitInspector(0).Inspect(context.Background(), dir)
	if m.Tags != 2 {
		t.Errorf("expected 2 tags, got %d", m.Tags)
	}
}

func TestInspect_WindowsFollowConfiguration(t *testing.T) {
	dir := initGitRepo(t)
	commitFileAt(t, dir, "a.txt", "one\n", "older work", time.Now().AddDate(0, 0, -45))

	def := NewGitInspector(0).Inspect(context.Background(), dir)
	if def.Commits30d != 0 {
		t.Errorf("default active window counted %d commits, want 0", def.Commits30d)
	}
	if def.Commits90d != 1 {
		t.Errorf("default maintenance window counted %d commits, want 1", def.Commits90d)
	}

	wide := NewGitInspector(0)
	wide.ActiveWindowDays = 60
	wide.MaintenanceWindowDays = 120
	m := wide.Inspect(context.Background(), dir)
	if m.Commits30d != 1 {
		t.Errorf("60 day active window counted %d commits, want 1", m.Commits30d)
	}
	if m.Commits90d != 1 {
		t.Errorf("120 day maintenance window counted %d commits, want 1", m.Commits90d)
	}
}

func TestInspect_TruncatedSubjectStaysValidUTF8(t *testing.T) {
	dir := initGitRepo(t)
	subject := "x" + strings.Repeat("あ", 60)
	commitFile(t, dir, "a.txt", "one\n", subject)

	m := NewGitInspector(0).Inspect(context.Background(), dir)
	if len(m.LastCommitMessage) > 120 {
		t.Errorf("message not truncated, got %d bytes", len(m.LastCommitMessage))
	}
	if !utf8.ValidString(m.LastCommitMessage) {
		t.Errorf("truncated message is not valid UTF-8: %q", m.LastCommitMessage)
	}
	if !strings.HasPrefix(subject, m.LastCommitMessage) {
		t.Errorf("truncated message %q is not a prefix of the subject", m.LastCommitMessage)
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "h"},
		{"日本語", 4, "日"},
		{"日本語", 6, "日本"},
		{"日本語", 9, "日本語"},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tc.in, tc.n)
		}
	}
}

func TestHeadHash_FullHex(t *testing.T) {
	dir := initGitRepo(t)
	commitFile(t, dir, "a.txt", "one\n", "first")

	head := NewGitInspector(0).HeadHash(context.Background(), dir)
	if !regexp.MustCompile(`^[0-9a-f]{40}$`).MatchString(head) {
		t.Errorf("HeadHash = %q, want 40 hex chars", head)
	}
}

func TestHeadHash_EmptyRepo(t *testing.T) {
	dir := initGitRepo(t)

	if head := NewGitInspector(0).HeadHash(context.Background(), dir); head != "" {
		t.Errorf("expected empty hash for empty repo, got %q", head)
	}
}

func TestHeadHash_ChangesAfterCommit(t *testing.T) {
	dir := initGitRepo(t)
	commitFile(t, dir, "a.txt", "one\n", "first")

	insp := NewGitInspector(0)
	before := insp.HeadHash(context.Background(), dir)
	commitFile(t, dir, "a.txt", "two\n", "second")
	after := insp.HeadHash(context.Background(), dir)

	if before == after {
		t.Error("HEAD hash did not change after a commit")
	}
}

func TestInspect_NotARepo(t *testing.T) {
	requireGit(t)
	m := NewGitInspector(2 * time.Second).Inspect(context.Background(), t.TempDir())
	if m.Error == "" {
		t.Error("expected an error marker outside a repository")
	}
}
