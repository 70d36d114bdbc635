// Package server owns the daemon's datagram socket.
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	bridgeerrors "github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/pkg/protocol"
)

// MaxDatagram is the largest message the listener accepts.
const MaxDatagram = 64 * 1024

// Listener receives protocol datagrams without ever blocking.
type Listener struct {
	path   string
	conn   *net.UnixConn
	raw    syscall.RawConn
	buf    []byte
	logger *logrus.Entry
}

// Listen binds a unixgram socket at path. A leftover socket file from a
// crashed daemon is removed first; the socket is made private to the user.
func Listen(path string, logger *logrus.Entry) (*Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, bridgeerrors.SocketBind(path, fmt.Errorf("failed to create socket directory: %w", err))
	}
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSocket == 0 {
			return nil, bridgeerrors.SocketBind(path, fmt.Errorf("refusing to replace non-socket file"))
		}
		if err := os.Remove(path); err != nil {
			return nil, bridgeerrors.SocketBind(path, fmt.Errorf("failed to remove stale socket: %w", err))
		}
	}

	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, bridgeerrors.SocketBind(path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		_ = conn.Close()
		return nil, bridgeerrors.SocketBind(path, fmt.Errorf("failed to set socket permissions: %w", err))
	}
	raw, err := conn.SyscallConn()
	if err != nil {
		_ = conn.Close()
		return nil, bridgeerrors.SocketBind(path, err)
	}

	logger.WithField("socket", path).Info("Daemon listening")
	return &Listener{
		path:   path,
		conn:   conn,
		raw:    raw,
		buf:    make([]byte, MaxDatagram),
		logger: logger,
	}, nil
}

// Path returns the socket path.
func (l *Listener) Path() string { return l.path }

// Receive makes one non-blocking receive attempt. It returns ok == false
// when no datagram was waiting or the datagram did not decode.
func (l *Listener) Receive() (protocol.Message, bool, error) {
	var (
		n    int
		rerr error
	)
	// Returning true from the callback stops the runtime poller from
	// parking us when the socket has nothing to read.
	err := l.raw.Read(func(fd uintptr) bool {
		n, _, rerr = unix.Recvfrom(int(fd), l.buf, unix.MSG_DONTWAIT)
		return true
	})
	if err != nil {
		return protocol.Message{}, false, err
	}
	if rerr != nil {
		if errors.Is(rerr, unix.EAGAIN) || errors.Is(rerr, unix.EWOULDBLOCK) || errors.Is(rerr, unix.EINTR) {
			return protocol.Message{}, false, nil
		}
		return protocol.Message{}, false, rerr
	}

	msg, ok := protocol.Decode(string(l.buf[:n]))
	if !ok {
		l.logger.WithField("bytes", n).Debug("Dropping malformed datagram")
	}
	return msg, ok, nil
}

// Close closes the socket and removes its file.
func (l *Listener) Close() error {
	err := l.conn.Close()
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}
