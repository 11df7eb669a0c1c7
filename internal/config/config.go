package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level repowatch configuration.
type Config struct {
	ScanRoot            string `mapstructure:"scan_root"`
	SnapshotPath        string `mapstructure:"snapshot_path"`
	Concurrency         int    `mapstructure:"concurrency"`
	GitTimeoutSeconds   int    `mapstructure:"git_timeout_seconds"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"`
	Limits              Limits `mapstructure:"limits"`
	Status              Status `mapstructure:"status"`
	Output              Output `mapstructure:"output"`
}

// Limits defines the per-repo work ceilings for tree walks.
type Limits struct {
	MaxDiscoveryDepth int   `mapstructure:"max_discovery_depth"`
	MaxTreeDepth      int   `mapstructure:"max_tree_depth"`
	MaxFilesPerRepo   int   `mapstructure:"max_files_per_repo"`
	MaxFileBytes      int64 `mapstructure:"max_file_bytes"`
	MaxSecurityFiles  int   `mapstructure:"max_security_files"`
}

// Status defines the activity windows used for status classification.
type Status struct {
	ActiveWindowDays      int `mapstructure:"active_window_days"`
	ActiveMinCommits      int `mapstructure:"active_min_commits"`
	MaintenanceWindowDays int `mapstructure:"maintenance_window_days"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// GitTimeout returns the git invocation timeout as a duration.
func (c *Config) GitTimeout() time.Duration {
	return time.Duration(c.GitTimeoutSeconds) * time.Second
}

// PollInterval returns the watcher polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults.
	v.SetDefault("scan_root", DefaultScanRoot)
	v.SetDefault("snapshot_path", filepath.Join(DefaultConfigDir, DefaultSnapshotName))
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("git_timeout_seconds", DefaultGitTimeoutSeconds)
	v.SetDefault("poll_interval_seconds", DefaultPollIntervalSeconds)
	v.SetDefault("limits.max_discovery_depth", DefaultLimits.MaxDiscoveryDepth)
	v.SetDefault("limits.max_tree_depth", DefaultLimits.MaxTreeDepth)
	v.SetDefault("limits.max_files_per_repo", DefaultLimits.MaxFilesPerRepo)
	v.SetDefault("limits.max_file_bytes", DefaultLimits.MaxFileBytes)
	v.SetDefault("limits.max_security_files", DefaultLimits.MaxSecurityFiles)
	v.SetDefault("status.active_window_days", DefaultStatus.ActiveWindowDays)
	v.SetDefault("status.active_min_commits", DefaultStatus.ActiveMinCommits)
	v.SetDefault("status.maintenance_window_days", DefaultStatus.MaintenanceWindowDays)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		configDir := expandPath(DefaultConfigDir)
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Expand paths.
	cfg.ScanRoot = expandPath(cfg.ScanRoot)
	cfg.SnapshotPath = expandPath(cfg.SnapshotPath)

	return &cfg, nil
}

// DBPath returns the full path to the SQLite scan-history database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
