package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/llm-bridge/pkg/protocol"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
)

const format = "{activity} | ${cost:.2}"

func testOptions(t *testing.T, mode Mode) Options {
	dir := t.TempDir()
	return Options{
		Mode:            mode,
		Format:          format,
		StatePath:       filepath.Join(dir, "llm_state.json"),
		SessionsDir:     filepath.Join(dir, "llm_sessions"),
		Stale:           300 * time.Second,
		ActivityTimeout: 60 * time.Second,
	}
}

func TestSingleModeApplyAndFlush(t *testing.T) {
	opts := testOptions(t, ModeSingle)
	s := New(opts)
	now := time.Unix(1_700_000_000, 0)
	require.NoError(t, s.Load(now))

	assert.True(t, s.Apply(protocol.NewEvent("", protocol.EventToolStart, "Bash"), now))
	assert.True(t, s.Apply(protocol.NewStatus("", `{"session_id":"abc","cost":{"total_cost_usd":0.5}}`), now))
	assert.False(t, s.Apply(protocol.NewEvent("", "reboot", ""), now))
	require.NoError(t, s.Flush(now))

	got, err := snapshot.Read(opts.StatePath, now, opts.ActivityTimeout, "")
	require.NoError(t, err)
	assert.Equal(t, "Bash", got.Activity)
	assert.Equal(t, "Bash | $0.50", got.Text)

	// A primary with a session id is mirrored into the sessions dir.
	_, err = os.Stat(snapshot.SessionPath(opts.SessionsDir, "abc"))
	assert.NoError(t, err)
}

func TestSingleModeLoadRestoresPrimary(t *testing.T) {
	opts := testOptions(t, ModeSingle)
	now := time.Unix(1_700_000_000, 0)

	prev := snapshot.Default()
	prev.Model, prev.Cost = "Opus", 1.5
	require.NoError(t, snapshot.WriteAtomic(opts.StatePath, prev))

	s := New(opts)
	require.NoError(t, s.Load(now))
	assert.Equal(t, "Opus", s.Primary(now).Model)
}

func TestSingleModeLoadCorrupt(t *testing.T) {
	opts := testOptions(t, ModeSingle)
	require.NoError(t, os.WriteFile(opts.StatePath, []byte("{"), 0644))

	s := New(opts)
	require.NoError(t, s.Load(time.Now()))
	assert.Equal(t, snapshot.Default(), s.Primary(time.Now()))
}

func TestSessionRouting(t *testing.T) {
	s := New(testOptions(t, ModeSessions))
	now := time.Unix(1_700_000_000, 0)

	// Nothing to route an unscoped event to yet.
	assert.False(t, s.Apply(protocol.NewEvent("", protocol.EventSubmit, ""), now))
	assert.Equal(t, 0, s.Len())

	assert.True(t, s.Apply(protocol.NewEvent("a", protocol.EventSubmit, ""), now))
	assert.True(t, s.Apply(protocol.NewStatus("", `{"session_id":"b","model":{"display_name":"Sonnet"}}`), now))
	assert.Equal(t, 2, s.Len())

	// Unscoped messages follow the most recently mutated session (b).
	assert.True(t, s.Apply(protocol.NewEvent("", protocol.EventToolStart, "Read"), now))
	b, ok := s.Session("b")
	require.True(t, ok)
	assert.Equal(t, "Read", b.Activity)
	assert.Equal(t, "b", b.SessionID)

	a, _ := s.Session("a")
	assert.Equal(t, "Thinking", a.Activity)

	// Unknown events never create sessions.
	assert.False(t, s.Apply(protocol.NewEvent("c", "reboot", ""), now))
	assert.Equal(t, 2, s.Len())
}

func TestSessionModeFlushWritesFilesAndAggregate(t *testing.T) {
	opts := testOptions(t, ModeSessions)
	s := New(opts)
	now := time.Unix(1_700_000_000, 0)

	s.Apply(protocol.NewEvent("a", protocol.EventSubmit, ""), now)
	s.Apply(protocol.NewStatus("a", `{"cost":{"total_cost_usd":1}}`), now)
	s.Apply(protocol.NewEvent("b", protocol.EventSubmit, ""), now)
	s.Apply(protocol.NewStatus("b", `{"cost":{"total_cost_usd":2}}`), now)
	s.Apply(protocol.NewEvent("c", protocol.EventToolStart, "Read"), now)
	s.Apply(protocol.NewStatus("c", `{"cost":{"total_cost_usd":0.5}}`), now)
	require.NoError(t, s.Flush(now))

	for _, id := range []string{"a", "b", "c"} {
		_, err := os.Stat(snapshot.SessionPath(opts.SessionsDir, id))
		assert.NoError(t, err, id)
	}

	primary, err := snapshot.Read(opts.StatePath, now, opts.ActivityTimeout, "")
	require.NoError(t, err)
	assert.Equal(t, "2 "+snapshot.IconThinking+" 1 "+snapshot.IconRead+" | $3.50", primary.Text)
	assert.Equal(t, 3.5, primary.Cost)

	// A restarted daemon picks the sessions back up.
	restarted := New(opts)
	require.NoError(t, restarted.Load(now))
	assert.Equal(t, 3, restarted.Len())
}

func TestEvict(t *testing.T) {
	s := New(testOptions(t, ModeSessions))
	start := time.Unix(1_700_000_000, 0)

	s.Apply(protocol.NewEvent("old", protocol.EventSubmit, ""), start)
	s.Apply(protocol.NewEvent("new", protocol.EventSubmit, ""), start.Add(200*time.Second))

	assert.Equal(t, 0, s.Evict(start.Add(299*time.Second)))
	assert.Equal(t, 1, s.Evict(start.Add(301*time.Second)))
	_, ok := s.Session("old")
	assert.False(t, ok)
	_, ok = s.Session("new")
	assert.True(t, ok)
}

func TestFlushErrorKeepsDirty(t *testing.T) {
	opts := testOptions(t, ModeSessions)
	// A regular file where the sessions directory should be.
	require.NoError(t, os.WriteFile(opts.SessionsDir, []byte("x"), 0644))

	s := New(opts)
	now := time.Unix(1_700_000_000, 0)
	s.Apply(protocol.NewEvent("a", protocol.EventSubmit, ""), now)
	require.Error(t, s.Flush(now))

	require.NoError(t, os.Remove(opts.SessionsDir))
	require.NoError(t, s.Flush(now))
	_, err := os.Stat(snapshot.SessionPath(opts.SessionsDir, "a"))
	assert.NoError(t, err)
}
