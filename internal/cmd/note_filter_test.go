package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/notes/internal/config"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/pkg/document"
)

func newNote(t *testing.T, id, source string, updated time.Time) *notes.Note {
	t.Helper()

	n, err := notes.New("ada", "", document.Deserialize(document.Markdown(source)))
	require.NoError(t, err)
	n.ID = id
	n.CreatedAt, n.UpdatedAt = updated, updated
	return n
}

func TestNoteEnv(t *testing.T) {
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	n := newNote(t, "01", "# Retro\n\n## Actions\n\n- [ ] Fix CI\n- [x] Ship it\n\nDone.\n", updated)

	env := noteEnv(n, n.Document())

	assert.Equal(t, "01", env.ID)
	assert.Equal(t, "ada", env.Owner)
	assert.Equal(t, "Retro", env.Title)
	assert.Equal(t, []string{"Retro", "Actions"}, env.Headings)
	assert.Equal(t, 2, env.Tasks)
	assert.Equal(t, 1, env.OpenTasks)
	assert.Equal(t, updated, env.UpdatedAt)
}

func TestFilterNotes(t *testing.T) {
	updated := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	list := []*notes.Note{
		newNote(t, "01", "# Retro\n\n- [ ] Fix CI\n", updated),
		newNote(t, "02", "# Planning\n\n- [x] Book room\n", updated.Add(-time.Hour)),
		newNote(t, "03", "Just text\n", updated.Add(-2*time.Hour)),
	}

	ids := func(list []*notes.Note) (result []string) {
		for _, n := range list {
			result = append(result, n.ID)
		}
		return
	}

	t.Run("NoFilters", func(t *testing.T) {
		result, err := filterNotes(list, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"01", "02", "03"}, ids(result))
	})

	t.Run("Tasks", func(t *testing.T) {
		result, err := filterNotes(list, []*config.Filter{{Condition: "tasks > 0"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"01", "02"}, ids(result))
	})

	t.Run("AllMustMatch", func(t *testing.T) {
		result, err := filterNotes(list, []*config.Filter{
			{Condition: "tasks > 0"},
			{Condition: "open_tasks == 0"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"02"}, ids(result))
	})

	t.Run("InvalidCondition", func(t *testing.T) {
		_, err := filterNotes(list, []*config.Filter{{Condition: "tasks +"}})
		require.Error(t, err)
	})
}

func TestSourceFormat(t *testing.T) {
	f, err := sourceFormat("notes.html", "")
	require.NoError(t, err)
	assert.Equal(t, "html", f.String())

	f, err = sourceFormat("notes.html", "json")
	require.NoError(t, err)
	assert.Equal(t, "json", f.String())

	f, err = sourceFormat("-", "")
	require.NoError(t, err)
	assert.Equal(t, "markdown", f.String())

	f, err = sourceFormat("notes.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "markdown", f.String())

	_, err = sourceFormat("notes.md", "pdf")
	require.Error(t, err)
}
