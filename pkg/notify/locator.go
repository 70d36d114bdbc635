package notify

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/llm-bridge/command"
	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/logging"
)

// LookupTimeout bounds a single process lookup.
const LookupTimeout = 500 * time.Millisecond

// Finder resolves a process name to the PIDs of its running instances.
type Finder interface {
	Find(ctx context.Context, name string) ([]int, error)
}

// PgrepFinder finds processes by exact name with pgrep -x.
type PgrepFinder struct {
	builder *command.SafeBuilder
}

// NewPgrepFinder returns a finder that runs pgrep through exec.
func NewPgrepFinder(exec command.Executor) *PgrepFinder {
	return &PgrepFinder{builder: command.NewSafeBuilderWithExecutor(exec)}
}

func (f *PgrepFinder) Find(ctx context.Context, name string) ([]int, error) {
	if err := f.builder.Validate("processName", name); err != nil {
		return nil, bridgeerrors.Wrap(err, bridgeerrors.ErrCodeInvalidInput, "invalid renderer process name")
	}
	cmd, err := f.builder.Build("pgrep", "-x", name)
	if err != nil {
		return nil, err
	}
	out, err := cmd.WithTimeout(LookupTimeout).Output(ctx)
	if err != nil {
		// pgrep exits 1 when nothing matched.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, err
	}
	return parsePIDs(out), nil
}

func parsePIDs(out []byte) []int {
	var pids []int
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if pid, err := strconv.Atoi(strings.TrimSpace(scanner.Text())); err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// Locator caches the renderer's PIDs and signals every instance.
type Locator struct {
	name     string
	finder   Finder
	notifier Notifier
	logger   *logrus.Entry

	pids     []int
	cachedAt time.Time
}

// NewLocator builds a locator for the named renderer. A nil finder means
// the notifier needs no PID (file-touch platforms).
func NewLocator(name string, finder Finder, notifier Notifier) *Locator {
	return &Locator{
		name:     name,
		finder:   finder,
		notifier: notifier,
		logger:   logging.NewLogger("notify"),
	}
}

// CachedPIDs returns the cached PIDs and when they were resolved.
func (l *Locator) CachedPIDs() ([]int, time.Time) {
	return append([]int(nil), l.pids...), l.cachedAt
}

// Invalidate drops the PID cache.
func (l *Locator) Invalidate() {
	l.pids = nil
	l.cachedAt = time.Time{}
}

// Signal asks every renderer instance to refresh and returns how many were
// reached. A vanished PID invalidates the cache and triggers exactly one
// fresh lookup. When no instance can be found a PROCESS_NOT_FOUND error is
// returned; callers treat it as non-fatal.
func (l *Locator) Signal(ctx context.Context) (int, error) {
	if l.finder == nil {
		res, err := l.notifier.Notify(0)
		if err != nil {
			return 0, err
		}
		if res == NotFound {
			return 0, bridgeerrors.ProcessNotFound(l.name)
		}
		return 1, nil
	}

	looked := false
	if len(l.pids) == 0 {
		if err := l.refresh(ctx); err != nil {
			return 0, err
		}
		looked = true
	}

	delivered, stale, err := l.notifyAll(nil)
	if stale && !looked {
		l.logger.WithField("pids", l.pids).Debug("Cached renderer PID is gone, refreshing")
		already := delivered
		if err := l.refresh(ctx); err != nil {
			return len(already), err
		}
		more, _, retryErr := l.notifyAll(already)
		delivered = append(delivered, more...)
		if retryErr != nil {
			err = retryErr
		}
	}

	if len(delivered) == 0 {
		l.Invalidate()
		if err != nil {
			return 0, err
		}
		return 0, bridgeerrors.ProcessNotFound(l.name)
	}
	return len(delivered), nil
}

func (l *Locator) refresh(ctx context.Context) error {
	pids, err := l.finder.Find(ctx, l.name)
	if err != nil {
		l.Invalidate()
		return err
	}
	l.pids = pids
	l.cachedAt = time.Now()
	if len(pids) == 0 {
		return bridgeerrors.ProcessNotFound(l.name)
	}
	return nil
}

// notifyAll signals every cached PID not in skip. It reports the PIDs
// reached and whether any had vanished.
func (l *Locator) notifyAll(skip []int) (delivered []int, stale bool, err error) {
	for _, pid := range l.pids {
		if containsPID(skip, pid) {
			continue
		}
		res, nerr := l.notifier.Notify(pid)
		switch {
		case nerr != nil:
			err = nerr
		case res == NotFound:
			stale = true
		default:
			delivered = append(delivered, pid)
		}
	}
	return delivered, stale, err
}

func containsPID(pids []int, pid int) bool {
	for _, p := range pids {
		if p == pid {
			return true
		}
	}
	return false
}
