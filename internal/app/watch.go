package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/repowatch/internal/config"
	"github.com/blackwell-systems/repowatch/internal/scanner"
	"github.com/blackwell-systems/repowatch/internal/snapshot"
	"github.com/blackwell-systems/repowatch/internal/watcher"
)

var (
	watchDaemon   bool
	watchInterval string
	watchStop     bool
	watchQuiet    bool
	watchNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll repository HEADs and keep the snapshot fresh",
	Long: `Watch polls every tracked repository's HEAD at a fixed interval and
re-collects metrics for any repo whose HEAD moved, updating the snapshot in
place. The repo list itself is refreshed periodically so new clones are
picked up without a restart.

Examples:
  repowatch watch                  # run in foreground (ctrl-c to stop)
  repowatch watch --daemon         # run in background, write PID file
  repowatch watch --interval 30s   # poll every 30 seconds
  repowatch watch --stop           # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "Poll interval as duration string (default: configured poll interval)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress per-change terminal output")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send a desktop notification on every repo change")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon()
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	interval := cfg.PollInterval()
	if watchInterval != "" {
		interval, err = time.ParseDuration(watchInterval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", watchInterval, err)
		}
	}
	if interval < time.Second {
		return fmt.Errorf("interval must be at least 1s, got %s", interval)
	}

	if watchDaemon {
		return runDaemon(cfg, interval)
	}
	return runForeground(cfg, interval)
}

// runForeground runs the watcher in the foreground with live terminal output.
func runForeground(cfg *config.Config, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	log := newLogger()
	defer func() { _ = log.Sync() }()

	snapStore := snapshot.NewStore(cfg.SnapshotPath)
	c := newCollector(cfg, log)
	w := watcher.New(c, snapStore, interval, log)
	w.OnChange = func(m scanner.RepoMetrics) {
		if watchNotify {
			_ = watcher.Notify(m.Name, changeMessage(m))
		}
		if !watchQuiet {
			printChange(m)
		}
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	st := w.Status()
	if !watchQuiet {
		fmt.Printf("repowatch watching %d repos (polling every %s)\n",
			st.TrackedRepos, interval)
	}

	<-ctx.Done()
	if !watchQuiet {
		fmt.Println("\nStopped.")
	}
	return nil
}

// runDaemon sets up PID and log files, then runs the watcher. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon(cfg *config.Config, interval time.Duration) error {
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	// Check for existing daemon.
	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		// Stale PID file, remove it.
		_ = os.Remove(pidFilePath())
	}

	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	log := newLogger()
	defer func() { _ = log.Sync() }()

	writeLog(logFile, "repowatch daemon started (PID %d, interval %s)", pid, interval)

	snapStore := snapshot.NewStore(cfg.SnapshotPath)
	c := newCollector(cfg, log)
	w := watcher.New(c, snapStore, interval, log)
	w.OnChange = func(m scanner.RepoMetrics) {
		if watchNotify {
			_ = watcher.Notify(m.Name, changeMessage(m))
		}
		writeLog(logFile, "%s: %s", m.Name, changeMessage(m))
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	<-ctx.Done()
	writeLog(logFile, "daemon stopped (%d changes detected)", w.Status().ChangesDetected)
	return nil
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

// writeLog writes a timestamped line to the log file.
func writeLog(f *os.File, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(f, "[%s] %s\n", timestamp, msg)
}

// printChange formats one repo change for the terminal.
func printChange(m scanner.RepoMetrics) {
	fmt.Printf("[%s] %s %s\n",
		time.Now().Format("15:04:05"), m.Name, changeMessage(m))
}

func changeMessage(m scanner.RepoMetrics) string {
	hash := m.Git.LastCommitHash
	if hash == "" {
		hash = "unknown"
	}
	return fmt.Sprintf("HEAD moved to %s, health %.1f (%s)", hash, m.HealthScore, m.Status)
}
