package protocol

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendNoListener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.sock")
	err := Send(path, NewEvent("", EventSubmit, ""))
	require.Error(t, err)
	assert.True(t, IsDaemonUnavailable(err))
}

func TestSendStaleSocketFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	_, err = os.Stat(path)
	require.NoError(t, err)

	err = Send(path, NewEvent("", EventSubmit, ""))
	require.Error(t, err)
	assert.True(t, IsDaemonUnavailable(err))
}

func TestSendDelivers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Send(path, NewEvent("s1", EventToolStart, "Grep")))

	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	n, _, err := conn.ReadFromUnix(buf)
	require.NoError(t, err)
	assert.Equal(t, "EVENT/s1:tool-start:Grep", string(buf[:n]))
}
