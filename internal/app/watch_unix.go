//go:build !windows

package app

import (
	"fmt"
	"os"
	"syscall"
)

// shutdownSignals end the watch loop cleanly.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// stopDaemon terminates the watch daemon recorded in the PID file. A PID
// file left behind by a crashed daemon is removed along the way.
func stopDaemon() error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no watch daemon running (could not read PID file: %v)", err)
	}

	if !processExists(pid) {
		os.Remove(pidFilePath())
		return fmt.Errorf("no watch daemon running (PID %d is gone, removed stale PID file)", pid)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("stopping watch daemon (PID %d): %w", pid, err)
	}

	os.Remove(pidFilePath())
	fmt.Printf("Stopped watch daemon (PID %d)\n", pid)
	return nil
}

// processExists reports whether pid names a live process. Signal 0 tests
// existence without delivering anything.
func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
