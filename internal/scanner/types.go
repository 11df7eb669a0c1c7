// Package scanner collects per-repository metrics from local filesystem
// and git metadata only. No network access, no external analysis service:
// everything is derived from directory walks, manifest files, and the git
// CLI, so a full scan costs nothing but disk reads.
package scanner

import "time"

// Repo statuses derived from commit activity and hygiene markers.
const (
	// StatusActive means the repo has recent commits within the active window.
	StatusActive = "active"

	// StatusMaintenance means the repo is past the active window but still
	// shows signs of upkeep (older commits, tests, or CI).
	StatusMaintenance = "maintenance"

	// StatusArchived means the repo has no recent activity and no upkeep signals.
	StatusArchived = "archived"

	// StatusEmpty means the repo has no commits on HEAD.
	StatusEmpty = "empty"
)

// Repo is a discovered repository handle: a unique display name plus the
// canonical path. Names are unique within one discovery run; collisions are
// disambiguated deterministically.
type Repo struct {
	// Name is the unique display name, usually the directory name.
	Name string `json:"name"`

	// Path is the canonical absolute path to the repository root.
	Path string `json:"path"`
}

// LanguageStat counts files and non-blank lines for one language bucket.
type LanguageStat struct {
	Files int `json:"files"`
	Lines int `json:"lines"`
}

// TopContributor is one entry in the ranked contributor list.
type TopContributor struct {
	Name    string `json:"name"`
	Commits int    `json:"commits"`
}

// GitMetrics holds history metrics computed from local git metadata.
// For a repository with no commits (or when the git tool fails), all
// numeric fields are zero and Error records the reason.
type GitMetrics struct {
	TotalCommits int `json:"total_commits"`

	// Commits30d and Commits90d count commits inside the configured
	// active and maintenance windows; the names reflect the defaults.
	Commits30d int `json:"commits_30d"`
	Commits90d int `json:"commits_90d"`
	Contributors int `json:"contributors"`
	Branches     int `json:"branches"`
	Tags         int `json:"tags"`

	LastCommitHash    string `json:"last_commit_hash,omitempty"`
	LastCommitAuthor  string `json:"last_commit_author,omitempty"`
	LastCommitDate    string `json:"last_commit_date,omitempty"`
	LastCommitMessage string `json:"last_commit_message,omitempty"`

	TopContributors []TopContributor `json:"top_contributors"`

	// Error is set instead of failing when history is unavailable
	// (empty repo, missing git tool, timeout).
	Error string `json:"error,omitempty"`
}

// SecurityFinding is one pattern-rule hit: which rule, where.
type SecurityFinding struct {
	Type string `json:"type"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// RepoMetrics is the full metrics record for one repository. It is built
// fresh on every scan and never mutated in place afterwards; degraded
// collection leaves zero values rather than absent fields.
type RepoMetrics struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	CollectedAt time.Time `json:"collected_at"`

	// Code
	TotalFiles      int                     `json:"total_files"`
	TotalLOC        int                     `json:"total_loc"`
	Languages       map[string]LanguageStat `json:"languages"`
	PrimaryLanguage string                  `json:"primary_language"`

	// Git
	Git GitMetrics `json:"git"`

	// Dependencies
	Dependencies []string `json:"dependencies"`
	DepCount     int      `json:"dep_count"`

	// Security
	SecurityFindings []SecurityFinding `json:"security_findings"`
	SecurityScore    float64           `json:"security_score"`

	// Quality markers
	HasTests  bool `json:"has_tests"`
	TestFiles int  `json:"test_files"`
	HasCI     bool `json:"has_ci"`
	HasReadme bool `json:"has_readme"`
	HasDocs   bool `json:"has_docs"`
	HasFlake  bool `json:"has_flake"`

	// Derived
	HealthScore float64 `json:"health_score"`
	Status      string  `json:"status"`
}

// Snapshot is the aggregated result of one full scan. RepoCount always
// equals len(Repos) and repo names are pairwise distinct.
type Snapshot struct {
	GeneratedAt time.Time     `json:"generated_at"`
	RepoCount   int           `json:"repo_count"`
	Repos       []RepoMetrics `json:"repos"`
}
