package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/llm-bridge/logging"
)

// DefaultSettle is how long a burst of file events is allowed to settle
// before the aggregate is recomputed.
const DefaultSettle = 50 * time.Millisecond

// WatchCollector watches the sessions directory with fsnotify.
type WatchCollector struct {
	dir    string
	settle time.Duration
	logger *logrus.Entry
}

// NewWatchCollector watches dir. If settle is 0, DefaultSettle is used.
func NewWatchCollector(dir string, settle time.Duration) *WatchCollector {
	if settle == 0 {
		settle = DefaultSettle
	}
	return &WatchCollector{
		dir:    dir,
		settle: settle,
		logger: logging.NewLogger("watch"),
	}
}

// Name returns the collector's name.
func (c *WatchCollector) Name() string { return "watch" }

// Run emits ReasonChange once per settled burst of session file events.
func (c *WatchCollector) Run(ctx context.Context, triggers chan<- Reason) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}
	c.logger.WithField("dir", c.dir).Info("Watching sessions directory")

	// settle is armed by the first relevant event of a burst. Events that
	// arrive before it fires are folded into the same trigger.
	var (
		settle  *time.Timer
		settled <-chan time.Time
	)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.WithError(err).Warn("Watcher error")
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			c.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)
			if settled == nil {
				settle = time.NewTimer(c.settle)
				settled = settle.C
			}
		case <-settled:
			settle, settled = nil, nil
			select {
			case triggers <- ReasonChange:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// relevant keeps create, write, remove and rename events on session files.
// Temp files from atomic writes are skipped; their rename shows up as a
// create of the final name.
func relevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != ".json" {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
