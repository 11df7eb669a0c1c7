package scanner

import "math"

// Thresholds controls the recent-commit windows used when counting
// activity and classifying a repo's lifecycle status.
type Thresholds struct {
	// ActiveWindowDays is the recent-commit window for "active".
	ActiveWindowDays int

	// ActiveMinCommits is how many commits inside the window count as active.
	ActiveMinCommits int

	// MaintenanceWindowDays is the wider window for "maintenance".
	MaintenanceWindowDays int
}

// DefaultThresholds returns the standard status windows.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ActiveWindowDays:      30,
		ActiveMinCommits:      1,
		MaintenanceWindowDays: 90,
	}
}

// Weights of the five health components. They sum to 1.0.
const (
	weightActivity = 0.30
	weightDocs     = 0.20
	weightTesting  = 0.20
	weightCI       = 0.15
	weightSecurity = 0.15
)

// HealthScore combines activity, documentation, testing, CI and security
// into a single 0-100 figure rounded to one decimal.
func HealthScore(m *RepoMetrics) float64 {
	score := weightActivity*activityScore(m.Git) +
		weightDocs*docsScore(m) +
		weightTesting*testingScore(m) +
		weightCI*ciScore(m) +
		weightSecurity*m.SecurityScore
	return math.Round(score*10) / 10
}

// activityScore rewards recent commits: five points per commit in the last
// 30 days on a base of 20, falling back to two points per commit in the
// last 90 days on a base of 10. Repos with no reachable history score zero.
func activityScore(g GitMetrics) float64 {
	if g.Error != "" || g.TotalCommits == 0 {
		return 0
	}
	var score float64
	switch {
	case g.Commits30d > 0:
		score = float64(g.Commits30d)*5 + 20
	case g.Commits90d > 0:
		score = float64(g.Commits90d)*2 + 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func docsScore(m *RepoMetrics) float64 {
	var score float64
	if m.HasReadme {
		score += 40
	}
	if m.HasDocs {
		score += 40
	}
	if m.TotalLOC > 100 {
		score += 20
	}
	if m.HasFlake {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// testingScore is tiered on test file count rather than linear, so a repo
// with a token test does not look half as covered as a serious suite.
func testingScore(m *RepoMetrics) float64 {
	switch {
	case !m.HasTests:
		return 0
	case m.TestFiles > 20:
		return 100
	case m.TestFiles > 5:
		return 80
	default:
		return 60
	}
}

func ciScore(m *RepoMetrics) float64 {
	if m.HasCI {
		return 100
	}
	return 0
}

// ClassifyStatus buckets a repo by its recent history. Repos with no commits
// are "empty"; recent commits make it "active"; older commits or the presence
// of tests or CI make it "maintenance"; everything else is "archived".
func ClassifyStatus(m *RepoMetrics, th Thresholds) string {
	if m.Git.Error != "" || m.Git.TotalCommits == 0 {
		return StatusEmpty
	}
	if m.Git.Commits30d >= th.ActiveMinCommits {
		return StatusActive
	}
	if m.Git.Commits90d > 0 || m.HasTests || m.HasCI {
		return StatusMaintenance
	}
	return StatusArchived
}
