// Package config provides configuration loading and defaults for repowatch.
package config

// DefaultScanRoot is the default directory scanned for git repositories.
const DefaultScanRoot = "~/code"

// DefaultConfigDir is the default location for repowatch configuration.
const DefaultConfigDir = "~/.config/repowatch"

// DefaultSnapshotName is the filename for the persisted metrics snapshot.
const DefaultSnapshotName = "metrics_snapshot.json"

// DefaultDBName is the filename for the SQLite scan-history database.
const DefaultDBName = "repowatch.db"

// DefaultConcurrency is the number of repositories scanned in parallel.
const DefaultConcurrency = 4

// DefaultGitTimeoutSeconds bounds every git invocation.
const DefaultGitTimeoutSeconds = 15

// DefaultPollIntervalSeconds is the watcher's HEAD-hash polling interval.
const DefaultPollIntervalSeconds = 10

// DefaultLimits holds the per-repo work ceilings. One pathologically large
// repository must not stall a whole scan, so tree walks stop at these caps
// and report whatever subset was scanned.
var DefaultLimits = Limits{
	MaxDiscoveryDepth: 3,
	MaxTreeDepth:      7,
	MaxFilesPerRepo:   80000,
	MaxFileBytes:      5_000_000,
	MaxSecurityFiles:  15000,
}

// DefaultStatus holds the commit-activity windows that classify a repo as
// active, maintenance, or archived. Identical repo state always maps to the
// same status; these knobs only move the boundaries.
var DefaultStatus = Status{
	ActiveWindowDays:      30,
	ActiveMinCommits:      1,
	MaintenanceWindowDays: 90,
}

// DefaultOutput holds the default terminal output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}
