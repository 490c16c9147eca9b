//go:build !windows

package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/stateful/notes/internal/notes"
)

func TestServerUnixSocket(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "notes.sock")

	s, _ := startServer(t, &Config{Address: "unix://" + sock})

	testConnectivity(t, "unix://"+sock, insecure.NewCredentials())
	require.Equal(t, sock, s.Addr())
}

func TestServerUnixSocketExists(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "notes.sock")
	require.NoError(t, os.WriteFile(sock, nil, 0o600))

	_, err := New(&Config{Address: "unix://" + sock}, notes.NewMemoryStore(), nil, nil, zaptest.NewLogger(t))
	require.Error(t, err)
}
