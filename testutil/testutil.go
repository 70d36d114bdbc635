// Package testutil holds helpers shared by the llm-bridge test suites.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

// SocketPath returns a socket path in a fresh short directory. t.TempDir
// paths can exceed the 108 byte sun_path limit on some systems.
func SocketPath(t *testing.T, name string) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "lb")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name)
}

// Isolate points every llm-bridge path at a temporary home and returns it.
func Isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("LLM_BRIDGE_HOME", home)
	for _, key := range []string{
		"LLM_BRIDGE_STATE_PATH",
		"LLM_BRIDGE_SESSIONS_DIR",
		"LLM_BRIDGE_SOCKET_PATH",
		"LLM_BRIDGE_FORMAT",
		"LLM_BRIDGE_SIGNAL",
	} {
		t.Setenv(key, "")
	}
	return home
}

// WriteSession writes a session snapshot with the given activity and cost,
// last active at the given time.
func WriteSession(t *testing.T, dir, id, activity string, cost float64, at time.Time) {
	t.Helper()

	s := snapshot.Default()
	s.SessionID, s.Activity, s.Cost = id, activity, cost
	s.LastActivityTime = at.Unix()
	require.NoError(t, snapshot.WriteSessionFile(dir, s))
}
