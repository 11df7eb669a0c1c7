package scanner

import "testing"

func TestActivityScore(t *testing.T) {
	tests := []struct {
		name string
		git  GitMetrics
		want float64
	}{
		{"no history", GitMetrics{}, 0},
		{"git error", GitMetrics{TotalCommits: 5, Error: "timeout"}, 0},
		{"recent commits", GitMetrics{TotalCommits: 10, Commits30d: 4, Commits90d: 8}, 40},
		{"recent capped", GitMetrics{TotalCommits: 100, Commits30d: 30, Commits90d: 60}, 100},
		{"older commits only", GitMetrics{TotalCommits: 10, Commits90d: 5}, 20},
		{"older capped", GitMetrics{TotalCommits: 200, Commits90d: 60}, 100},
		{"dormant", GitMetrics{TotalCommits: 10}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := activityScore(tc.git); got != tc.want {
				t.Errorf("activityScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDocsScore(t *testing.T) {
	tests := []struct {
		name string
		m    RepoMetrics
		want float64
	}{
		{"bare", RepoMetrics{}, 0},
		{"readme only", RepoMetrics{HasReadme: true}, 40},
		{"readme and docs", RepoMetrics{HasReadme: true, HasDocs: true}, 80},
		{"substantial code", RepoMetrics{TotalLOC: 500}, 20},
		{"everything capped", RepoMetrics{HasReadme: true, HasDocs: true, HasFlake: true, TotalLOC: 500}, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := docsScore(&tc.m); got != tc.want {
				t.Errorf("docsScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTestingScore(t *testing.T) {
	tests := []struct {
		name string
		m    RepoMetrics
		want float64
	}{
		{"no tests", RepoMetrics{}, 0},
		{"token suite", RepoMetrics{HasTests: true, TestFiles: 2}, 60},
		{"medium suite", RepoMetrics{HasTests: true, TestFiles: 10}, 80},
		{"large suite", RepoMetrics{HasTests: true, TestFiles: 30}, 100},
		{"test dir without matching files", RepoMetrics{HasTests: true, TestFiles: 0}, 60},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := testingScore(&tc.m); got != tc.want {
				t.Errorf("testingScore = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHealthScore_Composition(t *testing.T) {
	m := RepoMetrics{
		Git:           GitMetrics{TotalCommits: 50, Commits30d: 16},
		HasReadme:     true,
		HasDocs:       true,
		TotalLOC:      5000,
		HasTests:      true,
		TestFiles:     25,
		HasCI:         true,
		SecurityScore: 100,
	}
	// activity 100*0.30 + docs 100*0.20 + testing 100*0.20 + ci 100*0.15 + security 100*0.15
	if got := HealthScore(&m); got != 100.0 {
		t.Errorf("perfect repo scored %v, want 100", got)
	}

	m.SecurityScore = 60
	// 30 + 20 + 20 + 15 + 9 = 94
	if got := HealthScore(&m); got != 94.0 {
		t.Errorf("score = %v, want 94.0", got)
	}
}

func TestHealthScore_RoundsToOneDecimal(t *testing.T) {
	m := RepoMetrics{
		Git:           GitMetrics{TotalCommits: 3, Commits30d: 1},
		SecurityScore: 85,
	}
	// activity 25*0.30 + security 85*0.15 = 7.5 + 12.75 = 20.25 -> 20.3
	if got := HealthScore(&m); got != 20.3 {
		t.Errorf("score = %v, want 20.3", got)
	}
}

func TestClassifyStatus(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name string
		m    RepoMetrics
		want string
	}{
		{"no commits", RepoMetrics{}, StatusEmpty},
		{"git failure", RepoMetrics{Git: GitMetrics{TotalCommits: 3, Error: "git executable not found"}}, StatusEmpty},
		{"recent commit", RepoMetrics{Git: GitMetrics{TotalCommits: 5, Commits30d: 1, Commits90d: 2}}, StatusActive},
		{"older commits", RepoMetrics{Git: GitMetrics{TotalCommits: 5, Commits90d: 2}}, StatusMaintenance},
		{"dormant with tests", RepoMetrics{Git: GitMetrics{TotalCommits: 5}, HasTests: true}, StatusMaintenance},
		{"dormant with ci", RepoMetrics{Git: GitMetrics{TotalCommits: 5}, HasCI: true}, StatusMaintenance},
		{"dormant bare", RepoMetrics{Git: GitMetrics{TotalCommits: 5}}, StatusArchived},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyStatus(&tc.m, th); got != tc.want {
				t.Errorf("status = %q, want %q", got, tc.want)
			}
		})
	}
}
