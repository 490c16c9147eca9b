package notes_test

import (
	"testing"

	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/internal/notes/notestest"
)

func TestMemoryStoreContract(t *testing.T) {
	notestest.RunStoreContract(t, notes.NewMemoryStore())
}

func TestCachedStoreContract(t *testing.T) {
	notestest.RunStoreContract(t, notes.NewCachedStore(notes.NewMemoryStore(), 2, nil))
}
