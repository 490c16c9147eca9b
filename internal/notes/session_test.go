package notes

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/stateful/notes/pkg/document"
	"github.com/stateful/notes/pkg/document/editor"
)

func TestSessionSaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := NewSession(store, "u", zaptest.NewLogger(t))

	assert.Equal(t, document.UntitledNote, s.Title())
	assert.False(t, s.Dirty())

	s.Replace(document.Deserialize(document.Markdown("# Biology\n\ncells")))
	assert.True(t, s.Dirty())
	assert.Equal(t, "Biology", s.Title())

	first, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, s.ID())
	assert.Equal(t, "Biology", first.Title)
	assert.False(t, s.Dirty())

	require.NoError(t, s.Edit(func(e *editor.Editor) error {
		return e.SetText(editor.Path{1, 0}, "mitochondria")
	}))
	assert.True(t, s.Dirty())

	second, err := s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	listed, err := store.List(ctx, "u")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "mitochondria", listed[0].Document().Blocks[1].PlainText())
}

func TestSessionLoadSanitizesContent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	created, err := store.Create(ctx, &Note{
		Owner:   "u",
		Title:   "Stored",
		Content: json.RawMessage(`[{"type":"block-quote","children":[{"text":42}]},{"kind":"paragraph"}]`),
	})
	require.NoError(t, err)

	s := NewSession(store, "", nil)
	require.NoError(t, s.Load(ctx, created.ID))

	assert.Equal(t, "u", s.Owner())
	assert.Equal(t, "Stored", s.Title())
	assert.True(t, s.FirstLoad())
	assert.False(t, s.Dirty())
	assert.Equal(t, []*document.Node{
		document.Element(document.KindBlockquote, document.Text("42")),
		document.Paragraph(),
	}, s.Document().Blocks)

	assert.ErrorIs(t, s.Load(ctx, "missing"), ErrNotFound)
}

func TestSessionFirstLoadEcho(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	created, err := store.Create(ctx, &Note{
		Owner:   "u",
		Title:   "t",
		Content: json.RawMessage(`[{"kind":"paragraph","children":[{"kind":"text","value":"x"}]}]`),
	})
	require.NoError(t, err)

	s := NewSession(store, "u", nil)
	require.NoError(t, s.Load(ctx, created.ID))

	s.Replace(s.Document())
	assert.False(t, s.Dirty())
	assert.False(t, s.FirstLoad())

	s.Replace(s.Document())
	assert.True(t, s.Dirty())
}

func TestSessionEditFailureKeepsDocument(t *testing.T) {
	s := NewSession(NewMemoryStore(), "u", nil)
	before := s.Document()

	err := s.Edit(func(e *editor.Editor) error {
		require.NoError(t, e.Insert(editor.Path{1}, document.Paragraph(document.Text("x"))))
		return e.Delete(editor.Path{9})
	})
	assert.ErrorIs(t, err, editor.ErrInvalidPath)
	assert.Equal(t, before, s.Document())
	assert.False(t, s.Dirty())
}

func TestSessionSaveRequiresOwner(t *testing.T) {
	s := NewSession(NewMemoryStore(), "", nil)
	s.Replace(document.Deserialize(document.Markdown("text")))

	_, err := s.Save(context.Background())
	assert.ErrorIs(t, err, ErrInvalidNote)
	assert.True(t, s.Dirty())
}
