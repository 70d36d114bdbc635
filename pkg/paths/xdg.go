// Package paths provides XDG-compliant path resolution for llm-bridge.
//
// Resolution order:
// 1. LLM_BRIDGE_HOME (portable root) → $LLM_BRIDGE_HOME/{config,state,run}
// 2. XDG env vars → $XDG_*_HOME/llm-bridge
// 3. Platform defaults → ~/.config/llm-bridge, ~/.local/state/llm-bridge
//
// Runtime files the status bar reads (snapshot, sessions dir, socket) live
// directly in $XDG_RUNTIME_DIR so existing bar configs keep working.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "llm-bridge"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("LLM_BRIDGE_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("LLM_BRIDGE_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the llm-bridge configuration directory.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the llm-bridge state directory.
// Used for the pidfile and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(base, appName)
}

// LogDir returns the directory daemon log files are written to.
func LogDir() string {
	return filepath.Join(StateDir(), "logs")
}

// RuntimeDir returns the directory holding the snapshot, session files
// and the daemon socket. Falls back to /tmp without XDG_RUNTIME_DIR.
func RuntimeDir() string {
	if home := os.Getenv("LLM_BRIDGE_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return "/tmp"
}

// StatePath returns the default primary snapshot path.
func StatePath() string {
	return filepath.Join(RuntimeDir(), "llm_state.json")
}

// SessionsDir returns the default per-session snapshot directory.
func SessionsDir() string {
	return filepath.Join(RuntimeDir(), "llm_sessions")
}

// SocketPath returns the path to the daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "llm-bridge.sock")
}

// PidFilePath returns the path to the daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "llm-bridge.pid")
}

// EnsureDirs creates the llm-bridge directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		StateDir(),
		LogDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
