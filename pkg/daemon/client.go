// Package daemon delivers hook messages to the bridge daemon. It implements
// a transparent fallback: if the daemon is listening, messages go over the
// socket; if not, the caller applies them to the snapshot on disk itself.
package daemon

import (
	"context"

	"github.com/grovetools/llm-bridge/pkg/protocol"
)

// Client delivers messages to whatever owns the snapshot.
// Both RemoteClient (socket) and LocalClient (in-process) implement it.
type Client interface {
	// Send delivers msg. Delivery is one-way; there is no response.
	Send(ctx context.Context, msg protocol.Message) error

	// IsRunning reports whether the daemon is listening.
	IsRunning() bool

	// Close releases any resources held by the client.
	Close() error
}
