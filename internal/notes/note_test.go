package notes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/notes/pkg/document"
)

func TestNoteValidate(t *testing.T) {
	content := json.RawMessage(`[{"kind":"paragraph","children":[{"kind":"text","value":"x"}]}]`)

	testCases := []struct {
		name  string
		note  *Note
		valid bool
	}{
		{"Valid", &Note{Owner: "u", Title: "t", Content: content}, true},
		{"Nil", nil, false},
		{"NoOwner", &Note{Title: "t", Content: content}, false},
		{"BlankTitle", &Note{Owner: "u", Title: " \t", Content: content}, false},
		{"NullContent", &Note{Owner: "u", Title: "t", Content: json.RawMessage(`null`)}, false},
		{"EmptyArray", &Note{Owner: "u", Title: "t", Content: json.RawMessage(`[]`)}, false},
		{"String", &Note{Owner: "u", Title: "t", Content: json.RawMessage(`"# md"`)}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.note.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidNote)
			}
		})
	}
}

func TestNewNoteDefaultsTitle(t *testing.T) {
	doc := document.Deserialize(document.Markdown("intro\n\n## Key ideas\n\nbody"))

	n, err := New("u", "", doc)
	require.NoError(t, err)
	assert.Equal(t, "Key ideas", n.Title)
	require.NoError(t, n.Validate())
	assert.Equal(t, doc.Blocks, n.Document().Blocks)

	n, err = New("u", "Explicit", doc)
	require.NoError(t, err)
	assert.Equal(t, "Explicit", n.Title)

	n, err = New("u", "", document.Default())
	require.NoError(t, err)
	assert.Equal(t, document.UntitledNote, n.Title)

	_, err = New("u", "t", nil)
	assert.ErrorIs(t, err, ErrInvalidNote)
}

func TestNoteDocumentNeverFails(t *testing.T) {
	n := &Note{Content: json.RawMessage(`{not json`)}
	assert.NotEmpty(t, n.Document().Blocks)

	n = &Note{Content: json.RawMessage(`[{"type":"heading-one","children":[{"text":"Legacy"}]}]`)}
	assert.Equal(t, []*document.Node{document.Element(document.KindHeading1, document.Text("Legacy"))}, n.Document().Blocks)
}

func TestMergeKeepsOwnerAndCreation(t *testing.T) {
	existing := &Note{ID: "1", Owner: "u", Title: "a", Content: json.RawMessage(`[1]`), CreatedAt: Now()}
	now := Now()

	merged, err := Merge(existing, &Note{ID: "1", Title: " b ", Content: json.RawMessage(`[2]`)}, now)
	require.NoError(t, err)
	assert.Equal(t, "u", merged.Owner)
	assert.Equal(t, "b", merged.Title)
	assert.Equal(t, json.RawMessage(`[2]`), merged.Content)
	assert.Equal(t, existing.CreatedAt, merged.CreatedAt)
	assert.Equal(t, now, merged.UpdatedAt)
	assert.Equal(t, json.RawMessage(`[1]`), existing.Content)
}
