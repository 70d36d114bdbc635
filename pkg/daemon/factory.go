package daemon

import (
	"context"

	"github.com/grovetools/llm-bridge/internal/daemon/store"
	"github.com/grovetools/llm-bridge/logging"
	"github.com/grovetools/llm-bridge/pkg/protocol"
)

// WithFallback tries the daemon first and, when nothing is listening,
// applies the message locally.
type WithFallback struct {
	Primary  Client
	Fallback Client
}

// New returns a client that uses the daemon at socketPath if it is
// listening, otherwise a LocalClient built from opts and sig.
func New(socketPath string, opts store.Options, sig Signaler) *WithFallback {
	return &WithFallback{
		Primary:  NewRemoteClient(socketPath),
		Fallback: NewLocalClient(opts, sig),
	}
}

// Send delivers msg through the daemon, falling back only on
// DAEMON_UNAVAILABLE. Any other socket error is returned as is.
func (c *WithFallback) Send(ctx context.Context, msg protocol.Message) error {
	err := c.Primary.Send(ctx, msg)
	if err == nil || !protocol.IsDaemonUnavailable(err) {
		return err
	}
	logging.NewLogger("client").WithError(err).Debug("Daemon unavailable, applying message locally")
	return c.Fallback.Send(ctx, msg)
}

// IsRunning reports whether the daemon is listening.
func (c *WithFallback) IsRunning() bool { return c.Primary.IsRunning() }

// Close closes both clients.
func (c *WithFallback) Close() error {
	err := c.Primary.Close()
	if ferr := c.Fallback.Close(); err == nil {
		err = ferr
	}
	return err
}
