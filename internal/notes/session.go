package notes

import (
	"context"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/notes/pkg/document"
	"github.com/stateful/notes/pkg/document/editor"
)

// Session is the editing context of one note: which note is open, its
// document, and whether it has unsaved changes. The document model itself
// is stateless; everything an editing session remembers lives here.
// A Session is not safe for concurrent use.
type Session struct {
	store  Store
	owner  string
	logger *zap.Logger

	id    string
	title string
	doc   *document.Document

	dirty bool
	// firstLoad is set while the document is the one just loaded and
	// cleared by the first change.
	firstLoad bool
}

func NewSession(store Store, owner string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		store:  store,
		owner:  owner,
		logger: logger,
		doc:    document.Default(),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Owner() string { return s.owner }

// Title returns the explicit title or, without one, the title derived
// from the document.
func (s *Session) Title() string {
	if strings.TrimSpace(s.title) != "" {
		return s.title
	}
	return s.doc.Title()
}

func (s *Session) SetTitle(title string) {
	if title != s.title {
		s.title = title
		s.dirty = true
	}
}

// Document returns a copy of the session document.
func (s *Session) Document() *document.Document {
	return s.doc.Clone()
}

func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) FirstLoad() bool { return s.firstLoad }

func (s *Session) editorOptions() editor.Options {
	return editor.Options{
		LoggerInstance: s.logger,
		OnRepair: func(r document.Repair) {
			s.logger.Debug("repaired stored content", zap.String("note", s.id), zap.Stringer("repair", r))
		},
	}
}

// Load opens the note id. Stored content is re-sanitized; content that
// cannot be read opens as the fallback document.
func (s *Session) Load(ctx context.Context, id string) error {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	s.id = n.ID
	s.owner = n.Owner
	s.title = n.Title
	s.doc = editor.Deserialize(n.Content, editor.FormatJSON, s.editorOptions())
	s.dirty = false
	s.firstLoad = true
	return nil
}

// Replace sets the document, for example to freshly generated notes.
// Replacing the just-loaded document with an equal one is not a change.
func (s *Session) Replace(doc *document.Document) {
	if doc == nil {
		doc = document.Default()
	}
	next := &document.Document{
		Blocks:      document.SanitizeBlocks(doc.Clone().Blocks, s.editorOptions().DocumentOptions()...),
		Frontmatter: doc.Frontmatter,
	}
	if s.firstLoad && reflect.DeepEqual(next.Blocks, s.doc.Blocks) {
		s.firstLoad = false
		return
	}
	s.doc = next
	s.dirty = true
	s.firstLoad = false
}

// Edit applies fn to an editor over the session document. The document is
// only changed when fn succeeds.
func (s *Session) Edit(fn func(*editor.Editor) error) error {
	e := editor.New(s.doc, s.editorOptions())
	if err := fn(e); err != nil {
		return err
	}
	next := e.Document()
	if !reflect.DeepEqual(next.Blocks, s.doc.Blocks) {
		s.doc = next
		s.dirty = true
	}
	s.firstLoad = false
	return nil
}

// Save stores the session document, creating the note on first save.
func (s *Session) Save(ctx context.Context) (*Note, error) {
	n, err := New(s.owner, s.Title(), s.doc)
	if err != nil {
		return nil, err
	}

	var saved *Note
	if s.id == "" {
		saved, err = s.store.Create(ctx, n)
	} else {
		n.ID = s.id
		saved, err = s.store.Update(ctx, n)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to save note")
	}

	s.logger.Info("saved note", zap.String("id", saved.ID), zap.String("title", saved.Title))
	s.id = saved.ID
	s.title = saved.Title
	s.dirty = false
	return saved, nil
}
