// Package store provides SQLite-backed scan history, so snapshots can be
// compared over time even though the JSON snapshot file only ever holds the
// latest state.
package store

import "time"

// ScanRow is one recorded scan run.
type ScanRow struct {
	ID        int64     `json:"id"`
	TakenAt   time.Time `json:"taken_at"`
	ScanRoot  string    `json:"scan_root"`
	RepoCount int       `json:"repo_count"`
	Version   string    `json:"version"`
}

// RepoHealthRow is one repo's headline metrics within a recorded scan.
type RepoHealthRow struct {
	ID              int64   `json:"id"`
	ScanID          int64   `json:"scan_id"`
	Repo            string  `json:"repo"`
	HealthScore     float64 `json:"health_score"`
	SecurityScore   float64 `json:"security_score"`
	Status          string  `json:"status"`
	TotalLOC        int     `json:"total_loc"`
	PrimaryLanguage string  `json:"primary_language,omitempty"`
	Commits30d      int     `json:"commits_30d"`
	DepCount        int     `json:"dep_count"`
	FindingCount    int     `json:"finding_count"`
}

// HealthDelta is the change in one repo's health between two scans.
type HealthDelta struct {
	Repo      string  `json:"repo"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"` // "improved", "regressed", "unchanged"
}

// ScanDiff compares two recorded scans repo by repo.
type ScanDiff struct {
	Previous *ScanRow      `json:"previous"`
	Current  *ScanRow      `json:"current"`
	Deltas   []HealthDelta `json:"deltas"`
}
