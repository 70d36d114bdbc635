package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/internal/daemon/store"
	"github.com/grovetools/llm-bridge/logging"
	"github.com/grovetools/llm-bridge/pkg/protocol"
)

// Signaler asks the renderer to re-read the snapshot.
type Signaler interface {
	Signal(ctx context.Context) (int, error)
}

// LocalClient applies messages straight to the snapshot files. It runs the
// same store code as the daemon, so a message produces the same snapshot
// whichever path delivers it.
type LocalClient struct {
	opts     store.Options
	signaler Signaler
	now      func() time.Time
	logger   *logrus.Entry
}

// NewLocalClient creates a LocalClient. opts.Mode is forced to single
// mode: without a daemon there is no in-memory session map to aggregate.
func NewLocalClient(opts store.Options, sig Signaler) *LocalClient {
	opts.Mode = store.ModeSingle
	return &LocalClient{
		opts:     opts,
		signaler: sig,
		now:      time.Now,
		logger:   logging.NewLogger("fallback"),
	}
}

// Send loads the primary snapshot, applies msg, writes the snapshot (and
// the session file when the record has a session id) and signals the
// renderer. Filesystem errors are returned; a missing renderer is not an
// error.
func (c *LocalClient) Send(ctx context.Context, msg protocol.Message) error {
	now := c.now()
	st := store.New(c.opts)
	if err := st.Load(now); err != nil {
		return err
	}
	if !st.Apply(msg, now) {
		c.logger.WithField("kind", msg.Kind).Debug("Message changed nothing")
		return nil
	}
	if err := st.Flush(now); err != nil {
		return err
	}

	if c.signaler == nil {
		return nil
	}
	if _, err := c.signaler.Signal(ctx); err != nil {
		if bridgeerrors.Is(err, bridgeerrors.ErrCodeProcessNotFound) {
			c.logger.Debug("No renderer to signal")
			return nil
		}
		c.logger.WithError(err).Warn("Failed to signal renderer")
	}
	return nil
}

// IsRunning always reports false.
func (c *LocalClient) IsRunning() bool { return false }

// Close is a no-op.
func (c *LocalClient) Close() error { return nil }
