package notify

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
)

type fakeFinder struct {
	results [][]int
	calls   int
	err     error
}

func (f *fakeFinder) Find(ctx context.Context, name string) ([]int, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r, nil
}

type fakeNotifier struct {
	alive    map[int]bool
	notified []int
}

func (n *fakeNotifier) Notify(pid int) (Result, error) {
	n.notified = append(n.notified, pid)
	if n.alive[pid] {
		return Delivered, nil
	}
	return NotFound, nil
}

func TestLocatorUsesCache(t *testing.T) {
	finder := &fakeFinder{results: [][]int{{100}}}
	notifier := &fakeNotifier{alive: map[int]bool{100: true}}
	l := NewLocator("waybar", finder, notifier)

	for i := 0; i < 3; i++ {
		n, err := l.Signal(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, 1, finder.calls)
	assert.Equal(t, []int{100, 100, 100}, notifier.notified)
}

func TestLocatorSignalsAllInstances(t *testing.T) {
	finder := &fakeFinder{results: [][]int{{100, 200}}}
	notifier := &fakeNotifier{alive: map[int]bool{100: true, 200: true}}
	l := NewLocator("waybar", finder, notifier)

	n, err := l.Signal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLocatorRefreshesOnceWhenStale(t *testing.T) {
	finder := &fakeFinder{results: [][]int{{100}, {300}}}
	notifier := &fakeNotifier{alive: map[int]bool{100: true}}
	l := NewLocator("waybar", finder, notifier)

	_, err := l.Signal(context.Background())
	require.NoError(t, err)

	// Renderer restarted under a new PID.
	notifier.alive = map[int]bool{300: true}
	n, err := l.Signal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, finder.calls)

	pids, _ := l.CachedPIDs()
	assert.Equal(t, []int{300}, pids)
}

func TestLocatorDropsSignalWhenRendererGone(t *testing.T) {
	finder := &fakeFinder{results: [][]int{{100}, {}}}
	notifier := &fakeNotifier{alive: map[int]bool{100: true}}
	l := NewLocator("waybar", finder, notifier)

	_, err := l.Signal(context.Background())
	require.NoError(t, err)

	notifier.alive = map[int]bool{}
	n, err := l.Signal(context.Background())
	assert.Equal(t, 0, n)
	assert.True(t, bridgeerrors.Is(err, bridgeerrors.ErrCodeProcessNotFound))
	// Exactly one fresh lookup after the failure.
	assert.Equal(t, 2, finder.calls)
}

func TestLocatorFreshLookupIsNotRepeated(t *testing.T) {
	finder := &fakeFinder{results: [][]int{{100}}}
	notifier := &fakeNotifier{alive: map[int]bool{}}
	l := NewLocator("waybar", finder, notifier)

	n, err := l.Signal(context.Background())
	assert.Equal(t, 0, n)
	assert.True(t, bridgeerrors.Is(err, bridgeerrors.ErrCodeProcessNotFound))
	assert.Equal(t, 1, finder.calls)
}

func TestLocatorFinderError(t *testing.T) {
	finder := &fakeFinder{err: errors.New("pgrep missing")}
	l := NewLocator("waybar", finder, &fakeNotifier{})

	_, err := l.Signal(context.Background())
	assert.EqualError(t, err, "pgrep missing")
}

func TestLocatorWithoutFinder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_state.json")
	l := NewLocator("waybar", nil, TouchNotifier{Path: path})

	_, err := l.Signal(context.Background())
	assert.True(t, bridgeerrors.Is(err, bridgeerrors.ErrCodeProcessNotFound))

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	n, err := l.Signal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(old))
}

type scriptExecutor struct {
	script string
}

func (e *scriptExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", e.script)
}

func TestPgrepFinder(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    []int
		wantErr bool
	}{
		{name: "several", script: "printf '12\\n34\\n'", want: []int{12, 34}},
		{name: "none", script: "exit 1", want: nil},
		{name: "failure", script: "exit 3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewPgrepFinder(&scriptExecutor{script: tt.script})
			got, err := f.Find(context.Background(), "waybar")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewPgrepFinder(&scriptExecutor{}).Find(context.Background(), "way.*")
	assert.True(t, bridgeerrors.Is(err, bridgeerrors.ErrCodeInvalidInput))
}
