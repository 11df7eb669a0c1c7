package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	// Create the schema_version table if it does not exist.
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates the scan history tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at   TEXT NOT NULL,
			scan_root  TEXT NOT NULL,
			repo_count INTEGER NOT NULL,
			version    TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS repo_health (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id          INTEGER NOT NULL REFERENCES scans(id),
			repo             TEXT NOT NULL,
			health_score     REAL NOT NULL,
			security_score   REAL NOT NULL,
			status           TEXT NOT NULL,
			total_loc        INTEGER NOT NULL,
			primary_language TEXT,
			commits_30d      INTEGER NOT NULL,
			dep_count        INTEGER NOT NULL,
			finding_count    INTEGER NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_repo_health_scan ON repo_health(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_repo_health_repo ON repo_health(repo)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	// Set schema version.
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
