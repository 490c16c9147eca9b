// Package notestest provides a test suite every notes.Store must pass.
package notestest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/ulid"
)

// Content returns stored content of one paragraph holding text.
func Content(text string) json.RawMessage {
	data, _ := json.Marshal([]map[string]any{{
		"kind":     "paragraph",
		"children": []map[string]any{{"kind": "text", "value": text}},
	}})
	return data
}

// tick lets stores with coarse clocks order consecutive writes.
func tick() {
	time.Sleep(2 * time.Millisecond)
}

// RunStoreContract verifies that store adheres to the notes.Store
// contract. The store must start empty for the owners used here.
func RunStoreContract(t *testing.T, store notes.Store) {
	ctx := context.Background()
	owner := "owner-" + ulid.GenerateID()

	t.Run("CreateAndGet", func(t *testing.T) {
		created, err := store.Create(ctx, &notes.Note{Owner: owner, Title: "  Lecture 1  ", Content: Content("hello")})
		require.NoError(t, err)

		assert.True(t, ulid.ValidID(created.ID))
		assert.Equal(t, "Lecture 1", created.Title)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		loaded, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, loaded.ID)
		assert.Equal(t, owner, loaded.Owner)
		assert.Equal(t, "Lecture 1", loaded.Title)
		assert.JSONEq(t, string(Content("hello")), string(loaded.Content))
		assert.True(t, created.CreatedAt.Equal(loaded.CreatedAt))
		assert.True(t, created.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("CreateInvalid", func(t *testing.T) {
		for name, n := range map[string]*notes.Note{
			"NoOwner":      {Title: "t", Content: Content("x")},
			"BlankTitle":   {Owner: owner, Title: "   ", Content: Content("x")},
			"NoContent":    {Owner: owner, Title: "t"},
			"EmptyContent": {Owner: owner, Title: "t", Content: json.RawMessage(`[]`)},
			"NotArray":     {Owner: owner, Title: "t", Content: json.RawMessage(`{"kind":"paragraph"}`)},
		} {
			_, err := store.Create(ctx, n)
			assert.ErrorIs(t, err, notes.ErrInvalidNote, name)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, ulid.GenerateID())
		assert.ErrorIs(t, err, notes.ErrNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		created, err := store.Create(ctx, &notes.Note{Owner: owner, Title: "before", Content: Content("a")})
		require.NoError(t, err)
		tick()

		updated, err := store.Update(ctx, &notes.Note{ID: created.ID, Title: "after", Content: Content("b")})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Title)
		assert.Equal(t, owner, updated.Owner)
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

		loaded, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", loaded.Title)
		assert.JSONEq(t, string(Content("b")), string(loaded.Content))

		_, err = store.Update(ctx, &notes.Note{ID: created.ID, Title: "", Content: Content("c")})
		assert.ErrorIs(t, err, notes.ErrInvalidNote)

		_, err = store.Update(ctx, &notes.Note{ID: ulid.GenerateID(), Title: "x", Content: Content("c")})
		assert.ErrorIs(t, err, notes.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		created, err := store.Create(ctx, &notes.Note{Owner: owner, Title: "gone", Content: Content("x")})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, created.ID))

		_, err = store.Get(ctx, created.ID)
		assert.ErrorIs(t, err, notes.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, created.ID), notes.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		listOwner := owner + "-list"
		other := owner + "-other"

		first, err := store.Create(ctx, &notes.Note{Owner: listOwner, Title: "first", Content: Content("1")})
		require.NoError(t, err)
		tick()
		second, err := store.Create(ctx, &notes.Note{Owner: listOwner, Title: "second", Content: Content("2")})
		require.NoError(t, err)
		tick()
		_, err = store.Create(ctx, &notes.Note{Owner: other, Title: "other", Content: Content("3")})
		require.NoError(t, err)

		listed, err := store.List(ctx, listOwner)
		require.NoError(t, err)
		assert.Equal(t, []string{second.ID, first.ID}, ids(listed))

		tick()
		_, err = store.Update(ctx, &notes.Note{ID: first.ID, Title: "first again", Content: Content("1")})
		require.NoError(t, err)

		listed, err = store.List(ctx, listOwner)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID, second.ID}, ids(listed))
		assert.Equal(t, "first again", listed[0].Title)

		empty, err := store.List(ctx, owner+"-nobody")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func ids(list []*notes.Note) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}
