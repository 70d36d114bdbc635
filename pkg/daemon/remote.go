package daemon

import (
	"context"
	"net"

	"github.com/grovetools/llm-bridge/pkg/protocol"
)

// RemoteClient sends datagrams to a running daemon.
type RemoteClient struct {
	socketPath string
}

// NewRemoteClient creates a client for the daemon at socketPath.
func NewRemoteClient(socketPath string) *RemoteClient {
	return &RemoteClient{socketPath: socketPath}
}

// Send writes msg to the daemon socket. A DAEMON_UNAVAILABLE error means
// nothing is listening.
func (c *RemoteClient) Send(_ context.Context, msg protocol.Message) error {
	return protocol.Send(c.socketPath, msg)
}

// IsRunning dials the socket; a datagram dial fails with ECONNREFUSED when
// the socket file outlived its daemon.
func (c *RemoteClient) IsRunning() bool {
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: c.socketPath, Net: "unixgram"})
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Close is a no-op; every Send uses its own connection.
func (c *RemoteClient) Close() error { return nil }
