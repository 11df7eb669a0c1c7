package store

import (
	"database/sql"
	"math"
	"time"

	"github.com/blackwell-systems/repowatch/internal/scanner"
)

// RecordScan stores a finished snapshot as one scan row plus one repo_health
// row per repo, in a single transaction.
func (db *DB) RecordScan(snap *scanner.Snapshot, scanRoot, version string) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO scans (taken_at, scan_root, repo_count, version) VALUES (?, ?, ?, ?)",
		snap.GeneratedAt.UTC().Format(time.RFC3339), scanRoot, snap.RepoCount, version,
	)
	if err != nil {
		return 0, err
	}
	scanID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, r := range snap.Repos {
		if _, err := tx.Exec(
			`INSERT INTO repo_health
			(scan_id, repo, health_score, security_score, status, total_loc,
			 primary_language, commits_30d, dep_count, finding_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			scanID, r.Name, r.HealthScore, r.SecurityScore, r.Status,
			r.TotalLOC, r.PrimaryLanguage, r.Git.Commits30d, r.DepCount,
			len(r.SecurityFindings),
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return scanID, nil
}

// GetLatestScan returns the most recent scan, or nil if none exist.
func (db *DB) GetLatestScan() (*ScanRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, taken_at, scan_root, repo_count, version FROM scans ORDER BY id DESC LIMIT 1")
	return scanScan(row)
}

// GetScanN returns the Nth most recent scan (1 = latest, 2 = previous, etc.).
func (db *DB) GetScanN(n int) (*ScanRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, taken_at, scan_root, repo_count, version FROM scans ORDER BY id DESC LIMIT 1 OFFSET ?",
		n-1,
	)
	return scanScan(row)
}

// ListScans returns up to limit scans, newest first.
func (db *DB) ListScans(limit int) ([]ScanRow, error) {
	rows, err := db.conn.Query(
		"SELECT id, taken_at, scan_root, repo_count, version FROM scans ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var scans []ScanRow
	for rows.Next() {
		var s ScanRow
		var takenAt string
		if err := rows.Scan(&s.ID, &takenAt, &s.ScanRoot, &s.RepoCount, &s.Version); err != nil {
			return nil, err
		}
		s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

func scanScan(row *sql.Row) (*ScanRow, error) {
	var s ScanRow
	var takenAt string
	err := row.Scan(&s.ID, &takenAt, &s.ScanRoot, &s.RepoCount, &s.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &s, nil
}

// GetRepoHealth returns all repo health rows for a scan, ordered by repo name.
func (db *DB) GetRepoHealth(scanID int64) ([]RepoHealthRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, scan_id, repo, health_score, security_score, status, total_loc,
		 primary_language, commits_30d, dep_count, finding_count
		 FROM repo_health WHERE scan_id = ? ORDER BY repo`,
		scanID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var health []RepoHealthRow
	for rows.Next() {
		var r RepoHealthRow
		var lang sql.NullString
		if err := rows.Scan(
			&r.ID, &r.ScanID, &r.Repo, &r.HealthScore, &r.SecurityScore,
			&r.Status, &r.TotalLOC, &lang, &r.Commits30d, &r.DepCount,
			&r.FindingCount,
		); err != nil {
			return nil, err
		}
		r.PrimaryLanguage = lang.String
		health = append(health, r)
	}
	return health, rows.Err()
}

// CompareScans returns the per-repo health deltas between two recorded scans.
// Repos present in only one scan are skipped; there is no trend to report
// for them yet.
func (db *DB) CompareScans(prev, curr *ScanRow) (*ScanDiff, error) {
	prevHealth, err := db.GetRepoHealth(prev.ID)
	if err != nil {
		return nil, err
	}
	currHealth, err := db.GetRepoHealth(curr.ID)
	if err != nil {
		return nil, err
	}

	prevByRepo := make(map[string]RepoHealthRow, len(prevHealth))
	for _, r := range prevHealth {
		prevByRepo[r.Repo] = r
	}

	diff := &ScanDiff{Previous: prev, Current: curr}
	for _, c := range currHealth {
		p, ok := prevByRepo[c.Repo]
		if !ok {
			continue
		}
		delta := c.HealthScore - p.HealthScore
		direction := "unchanged"
		switch {
		case delta > 0.05:
			direction = "improved"
		case delta < -0.05:
			direction = "regressed"
		}
		diff.Deltas = append(diff.Deltas, HealthDelta{
			Repo:      c.Repo,
			Previous:  p.HealthScore,
			Current:   c.HealthScore,
			Delta:     math.Round(delta*10) / 10,
			Direction: direction,
		})
	}
	return diff, nil
}
