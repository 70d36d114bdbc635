package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_state.json")
	now := time.Unix(1_700_000_000, 0)

	s := Default()
	s.SessionID = "abc"
	s.Cwd = "/home/u/proj"
	s.Model = "Opus"
	s.Activity, s.Class, s.Alt = "Read", ClassToolActive, AltActive
	s.Cost = 0.75
	s.InputTokens, s.OutputTokens, s.CacheRead, s.CacheWrite = 1, 2, 3, 4
	s.LastActivityTime = now.Unix()
	s.Refresh(testFormat)

	require.NoError(t, WriteAtomic(path, s))

	got, err := Read(path, now, time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	var raw map[string]interface{}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"text", "tooltip", "class", "alt", "percentage", "model", "activity", "cost",
		"input_tokens", "output_tokens", "cache_read", "cache_write", "last_activity_time", "session_id", "cwd"} {
		assert.Contains(t, raw, key)
	}
}

func TestReadAppliesActivityTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	s := Default()
	s.Activity, s.Class, s.Alt, s.LastActivityTime = "Read", ClassToolActive, AltActive, 1000
	s.Refresh("{icon} {activity}")
	require.NoError(t, WriteAtomic(path, s))

	got, err := Read(path, time.Unix(1000+120, 0), time.Minute, "{icon} {activity}")
	require.NoError(t, err)
	assert.Equal(t, ActivityIdle, got.Activity)
	assert.Equal(t, ClassIdle, got.Class)
	// Derived fields follow the reset instead of keeping the old tool.
	assert.Equal(t, IconIdle+" Idle", got.Text)
	assert.NotContains(t, got.Tooltip, "Read")

	got, err = Read(path, time.Unix(1000+120, 0), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, "Idle | $0.00", got.Text)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.json"), time.Now(), time.Minute, "")
	assert.True(t, bridgeerrors.Is(err, bridgeerrors.ErrCodeSnapshotRead))

	s, err := ReadOrDefault(filepath.Join(dir, "missing.json"), time.Now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{\"text\":"), 0644))
	_, err = ReadOrDefault(corrupt, time.Now(), time.Minute, "")
	assert.True(t, bridgeerrors.Is(err, bridgeerrors.ErrCodeSnapshotRead))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCrashBeforeRenameKeepsPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "llm_state.json")

	old := Default()
	old.Model = "old"
	require.NoError(t, WriteAtomic(path, old))

	testHookBeforeRename = func(string) { panic("simulated crash") }
	defer func() { testHookBeforeRename = nil }()

	next := Default()
	next.Model = "new"
	assert.Panics(t, func() { _ = WriteAtomic(path, next) })

	// The reader still sees the complete previous document.
	got, err := Read(path, time.Now(), time.Minute, "")
	require.NoError(t, err)
	assert.Equal(t, "old", got.Model)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestWriteSessionFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "llm_sessions")

	s := Default()
	s.SessionID = "sess-1"
	require.NoError(t, WriteSessionFile(dir, s))
	_, err := os.Stat(filepath.Join(dir, "sess-1.json"))
	require.NoError(t, err)

	err = WriteSessionFile(dir, Default())
	assert.True(t, bridgeerrors.Is(err, bridgeerrors.ErrCodeInvalidInput))

	assert.Equal(t, filepath.Join(dir, "_etc_passwd.json"), SessionPath(dir, "/etc/passwd"))
}
