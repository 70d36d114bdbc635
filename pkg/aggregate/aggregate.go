// Package aggregate folds per-session snapshots into the single summary the
// status bar shows when several agent sessions run at once.
package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/llm-bridge/logging"
	"github.com/grovetools/llm-bridge/pkg/snapshot"
	"github.com/grovetools/llm-bridge/util/pathutil"
)

// priority is the fixed display order of activity counts.
var priority = []string{"Thinking", "Read", "Edit", "Write", "Bash", "Grep", "Glob", "Task"}

// Result is the combined view of all live sessions.
type Result struct {
	Text      string
	Tooltip   string
	Class     string
	Alt       string
	Sessions  int
	TotalCost float64
}

// Snapshot renders r as the primary snapshot document.
func (r Result) Snapshot() snapshot.State {
	s := snapshot.Default()
	s.Text = r.Text
	s.Tooltip = r.Tooltip
	s.Class = r.Class
	s.Alt = r.Alt
	s.Cost = r.TotalCost
	return s
}

// Live reports whether s counts toward the aggregate at now. Sessions that
// never recorded activity are skipped but are not stale either.
func Live(s snapshot.State, now time.Time, threshold time.Duration) bool {
	return s.LastActivityTime > 0 && !Stale(s, now, threshold)
}

// Stale reports whether s is older than threshold.
func Stale(s snapshot.State, now time.Time, threshold time.Duration) bool {
	if s.LastActivityTime <= 0 {
		return false
	}
	return now.Unix()-s.LastActivityTime > int64(threshold/time.Second)
}

// Compute summarizes sessions, which must already be filtered to live ones.
// home, when non-empty, is shortened to ~ in tooltip paths.
func Compute(sessions []snapshot.State, home string) Result {
	if len(sessions) == 0 {
		d := snapshot.Default()
		return Result{Text: d.Text, Class: d.Class, Alt: d.Alt}
	}

	counts := make(map[string]int)
	total := 0.0
	active := false
	for _, s := range sessions {
		counts[s.Activity]++
		if s.Cost > 0 {
			total += s.Cost
		}
		if s.Activity != snapshot.ActivityIdle {
			active = true
		}
	}

	var parts []string
	for _, activity := range priority {
		if n := counts[activity]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, snapshot.Icon(activity)))
		}
	}

	var text string
	if len(parts) == 0 {
		text = fmt.Sprintf("%s Idle | $%.2f", snapshot.IconIdle, total)
	} else {
		text = fmt.Sprintf("%s | $%.2f", strings.Join(parts, " "), total)
	}

	lines := []string{
		fmt.Sprintf("%d active sessions | $%.2f total", len(sessions), total),
		"",
	}
	for _, s := range sessions {
		lines = append(lines, fmt.Sprintf("%s: %s - %s ($%.2f)", pathutil.Collapse(s.Cwd, home), s.Model, s.Activity, s.Cost))
	}

	class, alt := snapshot.ClassIdle, snapshot.AltIdle
	if active {
		class, alt = snapshot.AltActive, snapshot.AltActive
	}

	return Result{
		Text:      text,
		Tooltip:   strings.Join(lines, "\n"),
		Class:     class,
		Alt:       alt,
		Sessions:  len(sessions),
		TotalCost: total,
	}
}

// Aggregator reads session files from a directory.
type Aggregator struct {
	dir             string
	stale           time.Duration
	activityTimeout time.Duration
	format          string
	home            string
	logger          *logrus.Entry
}

// New creates an aggregator over dir.
func New(dir string, stale, activityTimeout time.Duration) *Aggregator {
	home, _ := os.UserHomeDir()
	return &Aggregator{
		dir:             dir,
		stale:           stale,
		activityTimeout: activityTimeout,
		home:            home,
		logger:          logging.NewLogger("aggregate"),
	}
}

// WithFormat sets the template used to re-render sessions that timed out.
func (a *Aggregator) WithFormat(format string) *Aggregator {
	a.format = format
	return a
}

// Dir returns the sessions directory.
func (a *Aggregator) Dir() string { return a.dir }

type sessionFile struct {
	path  string
	state snapshot.State
}

// scan decodes every *.json file in the directory. Unreadable or corrupt
// files are skipped for this pass.
func (a *Aggregator) scan(now time.Time) ([]sessionFile, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []sessionFile
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(a.dir, e.Name())
		s, err := snapshot.Read(path, now, a.activityTimeout, a.format)
		if err != nil {
			a.logger.WithError(err).WithField("path", path).Debug("Skipping unreadable session file")
			continue
		}
		files = append(files, sessionFile{path: path, state: s})
	}
	return files, nil
}

// Sessions returns the live sessions on disk at now.
func (a *Aggregator) Sessions(now time.Time) ([]snapshot.State, error) {
	files, err := a.scan(now)
	if err != nil {
		return nil, err
	}
	var live []snapshot.State
	for _, f := range files {
		if Live(f.state, now, a.stale) {
			live = append(live, f.state)
		}
	}
	return live, nil
}

// Aggregate computes the summary of the live sessions on disk.
func (a *Aggregator) Aggregate(now time.Time) (Result, error) {
	live, err := a.Sessions(now)
	if err != nil {
		return Result{}, err
	}
	return Compute(live, a.home), nil
}

// Sweep deletes session files older than the staleness threshold and
// returns how many were removed.
func (a *Aggregator) Sweep(now time.Time) (int, error) {
	files, err := a.scan(now)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if !Stale(f.state, now, a.stale) {
			continue
		}
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			a.logger.WithError(err).WithField("path", f.path).Warn("Failed to remove stale session file")
			continue
		}
		removed++
	}
	if removed > 0 {
		a.logger.WithField("removed", removed).Debug("Swept stale sessions")
	}
	return removed, nil
}

// Write publishes r as the primary snapshot at path.
func Write(path string, r Result) error {
	return snapshot.WriteAtomic(path, r.Snapshot())
}
