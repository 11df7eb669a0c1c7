package watcher

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Notify sends a desktop notification about a repo change. On macOS it uses
// osascript, on Linux it tries notify-send. If neither is available, it
// falls back to printing to stderr.
func Notify(title, message string) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(title, message)
	case "linux":
		return notifyLinux(title, message)
	default:
		return notifyFallback(title, message)
	}
}

// notifyMacOS sends a notification via osascript on macOS.
func notifyMacOS(title, message string) error {
	script := fmt.Sprintf(
		`display notification %q with title "repowatch" subtitle %q`,
		message, title,
	)
	cmd := exec.Command("osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		// Fall back to stderr if osascript fails.
		return notifyFallback(title, message)
	}
	return nil
}

// notifyLinux sends a notification via notify-send on Linux.
func notifyLinux(title, message string) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return notifyFallback(title, message)
	}

	cmd := exec.Command("notify-send", "repowatch: "+title, message)
	if err := cmd.Run(); err != nil {
		return notifyFallback(title, message)
	}
	return nil
}

// notifyFallback prints the notification to stderr when no desktop
// notification system is available.
func notifyFallback(title, message string) error {
	_, err := fmt.Fprintf(os.Stderr, "repowatch: %s: %s\n", title, message)
	return err
}
