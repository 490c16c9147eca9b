package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDisabled(t *testing.T) {
	l, err := New(Options{Path: "/nonexistent/dir/notes.log"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.ErrorLevel))
}

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.log")

	l, err := New(Options{Enabled: true, Path: path, Verbose: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l.Info("exported", zap.Int("pages", 2))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "exported")
	assert.Contains(t, string(data), "pages")
}

func TestSetGet(t *testing.T) {
	t.Cleanup(func() { Set(nil) })

	l := zap.NewExample()
	Set(l)
	assert.Same(t, l, Get())

	Set(nil)
	assert.NotNil(t, Get())
}
