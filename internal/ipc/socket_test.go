package ipc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/waytile/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type staticProvider struct {
	status registry.Status
}

func (p staticProvider) Status() registry.Status { return p.status }

func startServer(t *testing.T) *SocketServer {
	t.Helper()
	server := NewSocketServer(filepath.Join(t.TempDir(), "test.sock"), staticProvider{status: testStatus()})
	require.NoError(t, server.Start())
	t.Cleanup(server.Stop)
	return server
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/waytile-wayland-1.sock", SocketPath("wayland-1"))
	assert.Equal(t, "/run/user/1000/waytile-wayland-2.sock", SocketPath("/run/user/1000/wayland-2"))
}

func TestSocketServerStartStop(t *testing.T) {
	server := startServer(t)

	_, err := os.Stat(server.Path())
	require.NoError(t, err, "socket file was not created")

	// Starting twice is a no-op
	require.NoError(t, server.Start())

	server.Stop()
	_, err = os.Stat(server.Path())
	assert.True(t, os.IsNotExist(err), "socket file was not removed")

	// Stopping twice is a no-op
	server.Stop()
}

func TestSocketInUse(t *testing.T) {
	server := startServer(t)

	other := NewSocketServer(server.Path(), staticProvider{})
	assert.ErrorContains(t, other.Start(), "in use")
}

func TestStaleSocketReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	server := NewSocketServer(path, staticProvider{status: testStatus()})
	require.NoError(t, server.Start())
	defer server.Stop()

	st, err := NewClient(path).Status()
	require.NoError(t, err)
	assert.Equal(t, "tile", st.Namespace)
}

func TestClientStatus(t *testing.T) {
	server := startServer(t)

	st, err := NewClientWithTimeout(server.Path(), time.Second).Status()
	require.NoError(t, err)
	assert.Equal(t, testStatus(), *st)
}

func TestClientWithoutServer(t *testing.T) {
	_, err := NewClientWithTimeout(filepath.Join(t.TempDir(), "missing.sock"), 100*time.Millisecond).Status()
	assert.ErrorContains(t, err, "is it running")
}

func TestUnknownMessageType(t *testing.T) {
	server := startServer(t)

	msg, err := structpb.NewStruct(map[string]interface{}{"type": "switch"})
	require.NoError(t, err)

	response, err := NewClient(server.Path()).sendMessage(msg)
	require.NoError(t, err)
	text, err := GetErrorResponse(response)
	require.NoError(t, err)
	assert.Contains(t, text, "Unknown message type")
}
