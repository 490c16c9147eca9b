package cmd

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/stateful/notes/internal/config"
	"github.com/stateful/notes/internal/notes"
	"github.com/stateful/notes/pkg/document"
)

func noteEnv(n *notes.Note, doc *document.Document) config.FilterNoteEnv {
	env := config.FilterNoteEnv{
		ID:        n.ID,
		Owner:     n.Owner,
		Title:     n.Title,
		Blocks:    len(doc.Blocks),
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}

	doc.Walk(func(node *document.Node) bool {
		switch node.Kind {
		case document.KindHeading1, document.KindHeading2, document.KindHeading3:
			if text := strings.TrimSpace(node.PlainText()); text != "" {
				env.Headings = append(env.Headings, text)
			}
		case document.KindTaskItem:
			env.Tasks++
			if !node.Checked {
				env.OpenTasks++
			}
		}
		return true
	})

	return env
}

// filterNotes returns the notes matching all filters, keeping their order.
func filterNotes(list []*notes.Note, filters []*config.Filter) ([]*notes.Note, error) {
	if len(filters) == 0 {
		return list, nil
	}

	var result []*notes.Note
	for _, n := range list {
		ok, err := config.Match(filters, noteEnv(n, n.Document()))
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to filter note %s", n.ID)
		}
		if ok {
			result = append(result, n)
		}
	}
	return result, nil
}
