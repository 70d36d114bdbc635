package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/util/sanitize"
)

// ErrCorrupt marks a snapshot file that exists but does not decode.
var ErrCorrupt = errors.New("snapshot is not valid JSON")

// testHookBeforeRename runs between fsync of the temp file and the rename.
// Tests use it to simulate a crash in that window.
var testHookBeforeRename func(tmpPath string)

// WriteAtomic serializes v and publishes it at path so readers only ever
// see the previous or the new complete document.
func WriteAtomic(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return bridgeerrors.SnapshotWrite(path, err)
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return bridgeerrors.SnapshotWrite(path, err)
	}
	return nil
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return writeFileAtomic(path, data, perm)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// The temp name must not end in .json so directory scans skip it.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if testHookBeforeRename != nil {
		testHookBeforeRename(tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	renamed = true

	// Persist the rename itself. Failure here leaves a valid file behind.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}

// Read loads a snapshot and applies the activity timeout so a session
// whose agent died mid-tool does not read as busy forever. format renders
// the text of a timed-out snapshot.
func Read(path string, now time.Time, activityTimeout time.Duration, format string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, bridgeerrors.SnapshotRead(path, err)
	}
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, bridgeerrors.SnapshotRead(path, fmt.Errorf("%w: %v", ErrCorrupt, err))
	}
	s.CheckActivityTimeout(now, activityTimeout, format)
	return s, nil
}

// ReadOrDefault is Read, except a missing file yields Default().
func ReadOrDefault(path string, now time.Time, activityTimeout time.Duration, format string) (State, error) {
	s, err := Read(path, now, activityTimeout, format)
	if err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return Default(), nil
		}
		return State{}, err
	}
	return s, nil
}

// SessionPath returns <dir>/<session_id>.json.
func SessionPath(dir, sessionID string) string {
	return filepath.Join(dir, sanitize.ForFilename(sessionID)+".json")
}

// WriteSessionFile persists s under its session id in dir.
func WriteSessionFile(dir string, s State) error {
	if s.SessionID == "" {
		return bridgeerrors.InvalidInput("session snapshot requires a session id")
	}
	return WriteAtomic(SessionPath(dir, s.SessionID), s)
}

