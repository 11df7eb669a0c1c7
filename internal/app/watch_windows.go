//go:build windows

package app

import (
	"fmt"
	"os"
)

// shutdownSignals end the watch loop cleanly.
var shutdownSignals = []os.Signal{os.Interrupt}

// stopDaemon terminates the watch daemon recorded in the PID file. Windows
// has no SIGTERM, so the process is killed outright. A PID file left behind
// by a crashed daemon is removed along the way.
func stopDaemon() error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no watch daemon running (could not read PID file: %v)", err)
	}

	if !processExists(pid) {
		os.Remove(pidFilePath())
		return fmt.Errorf("no watch daemon running (PID %d is gone, removed stale PID file)", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding watch daemon (PID %d): %w", pid, err)
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("stopping watch daemon (PID %d): %w", pid, err)
	}

	os.Remove(pidFilePath())
	fmt.Printf("Stopped watch daemon (PID %d)\n", pid)
	return nil
}

// processExists reports whether pid names a live process. FindProcess never
// fails on Windows, so liveness is checked with a nil signal.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(os.Signal(nil)) == nil
}
