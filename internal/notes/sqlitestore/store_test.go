package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/notes/notestest"
)

func TestStoreContract(t *testing.T) {
	store, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer store.Close()

	notestest.RunStoreContract(t, store)
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notes.sqlite")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	created, err := store.Create(ctx, &notes.Note{Owner: "u", Title: "kept", Content: notestest.Content("x")})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, loaded)
}
