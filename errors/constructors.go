package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *BridgeError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *BridgeError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// DaemonUnavailable reports that nothing is listening on the daemon socket.
func DaemonUnavailable(socketPath string, err error) *BridgeError {
	return Wrap(err, ErrCodeDaemonUnavailable, "daemon is not listening").
		WithDetail("socket", socketPath)
}

// DaemonRunning reports that another daemon instance owns the pidfile.
func DaemonRunning(pid int) *BridgeError {
	return New(ErrCodeDaemonRunning, fmt.Sprintf("daemon already running with PID %d", pid)).
		WithDetail("pid", pid)
}

// SocketBind wraps a failure to bind the daemon socket.
func SocketBind(socketPath string, err error) *BridgeError {
	return Wrap(err, ErrCodeSocketBind, fmt.Sprintf("failed to bind socket %s", socketPath)).
		WithDetail("socket", socketPath)
}

// SnapshotWrite wraps a failure to publish a snapshot file.
func SnapshotWrite(path string, err error) *BridgeError {
	return Wrap(err, ErrCodeSnapshotWrite, fmt.Sprintf("failed to write snapshot %s", path)).
		WithDetail("path", path)
}

// SnapshotRead wraps a failure to read or decode a snapshot file.
func SnapshotRead(path string, err error) *BridgeError {
	return Wrap(err, ErrCodeSnapshotRead, fmt.Sprintf("failed to read snapshot %s", path)).
		WithDetail("path", path)
}

// ProcessNotFound reports that no renderer process could be located.
func ProcessNotFound(name string) *BridgeError {
	return New(ErrCodeProcessNotFound, fmt.Sprintf("no running process named '%s'", name)).
		WithDetail("process", name)
}

// HooksInstall wraps a failure to edit the agent settings file.
func HooksInstall(path string, err error) *BridgeError {
	return Wrap(err, ErrCodeHooksInstall, fmt.Sprintf("failed to update agent settings %s", path)).
		WithDetail("path", path)
}

// InvalidInput creates an invalid input error
func InvalidInput(reason string) *BridgeError {
	return New(ErrCodeInvalidInput, reason)
}
