// Package process has small helpers for probing and signalling local processes.
package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsProcessAlive checks if a process with the given PID is still running.
// Signal 0 probes for existence; EPERM still means the process exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Terminate asks the process to shut down with SIGTERM.
func Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}
