package protocol

import (
	"errors"
	"net"
	"time"

	"golang.org/x/sys/unix"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
)

// SendTimeout bounds how long a hook may block handing a datagram to the
// kernel.
const SendTimeout = 50 * time.Millisecond

// Send delivers m to the daemon socket. When nothing is listening (missing
// socket file or refused connection) it returns a DAEMON_UNAVAILABLE error
// so callers can fall back to writing snapshots themselves.
func Send(socketPath string, m Message) error {
	encoded := m.Encode()
	if encoded == "" {
		return bridgeerrors.InvalidInput("cannot encode message of unknown kind")
	}

	addr := &net.UnixAddr{Name: socketPath, Net: "unixgram"}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		if isUnavailable(err) {
			return bridgeerrors.DaemonUnavailable(socketPath, err)
		}
		return bridgeerrors.Wrap(err, bridgeerrors.ErrCodeInternal, "failed to dial daemon socket").
			WithDetail("socket", socketPath)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(SendTimeout))
	if _, err := conn.Write([]byte(encoded)); err != nil {
		if isUnavailable(err) {
			return bridgeerrors.DaemonUnavailable(socketPath, err)
		}
		return bridgeerrors.Wrap(err, bridgeerrors.ErrCodeInternal, "failed to send message to daemon").
			WithDetail("socket", socketPath)
	}
	return nil
}

// IsDaemonUnavailable reports whether err means no daemon is listening.
func IsDaemonUnavailable(err error) bool {
	return bridgeerrors.Is(err, bridgeerrors.ErrCodeDaemonUnavailable)
}

func isUnavailable(err error) bool {
	return errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ECONNREFUSED)
}
