package notes

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/stateful/notes/internal/ulid"
	"github.com/stateful/notes/pkg/document"
)

var (
	ErrNotFound    = stderrors.New("note not found")
	ErrInvalidNote = stderrors.New("owner, title and content are required to save a note")
)

// Note is a stored note. Content holds the document tree as JSON; it is
// untrusted and must be deserialized before use.
type Note struct {
	ID        string          `json:"id"`
	Owner     string          `json:"owner" validate:"notblank"`
	Title     string          `json:"title" validate:"notblank,max=200"`
	Content   json.RawMessage `json:"content" validate:"blocks"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy of n.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	c.Content = bytes.Clone(n.Content)
	return &c
}

// Document deserializes the content of n. It never fails; unreadable
// content yields the fallback document.
func (n *Note) Document(opts ...document.Option) *document.Document {
	return document.Deserialize(document.Tree(n.Content), opts...)
}

// Store persists notes keyed by ID. Implementations are safe for
// concurrent use.
type Store interface {
	// Create validates n, assigns its ID and timestamps and stores it.
	Create(ctx context.Context, n *Note) (*Note, error)
	Get(ctx context.Context, id string) (*Note, error)
	// Update replaces the title and content of an existing note.
	Update(ctx context.Context, n *Note) (*Note, error)
	Delete(ctx context.Context, id string) error
	// List returns the notes of owner, most recently updated first.
	List(ctx context.Context, owner string) ([]*Note, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("blocks", func(fl validator.FieldLevel) bool {
		var blocks []json.RawMessage
		if err := json.Unmarshal(fl.Field().Bytes(), &blocks); err != nil {
			return false
		}
		return len(blocks) > 0
	})
	return v
}

// Validate checks that n can be saved: it needs an owner, a non-blank
// title and content holding a non-empty array of blocks.
func (n *Note) Validate() error {
	if n == nil {
		return errors.WithStack(ErrInvalidNote)
	}
	if err := validate.Struct(n); err != nil {
		return errors.Wrap(ErrInvalidNote, err.Error())
	}
	return nil
}

// Now returns the current time as stored: UTC with microsecond precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Prepare validates n for creation and returns a copy with a trimmed
// title, a new ID and both timestamps set to now.
func Prepare(n *Note, now time.Time) (*Note, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	c := n.Clone()
	c.ID = ulid.GenerateID()
	c.Title = strings.TrimSpace(c.Title)
	c.CreatedAt, c.UpdatedAt = now, now
	return c, nil
}

// Merge validates update and applies its title and content to existing,
// returning the updated copy.
func Merge(existing, update *Note, now time.Time) (*Note, error) {
	update = update.Clone()
	if update != nil && update.Owner == "" {
		update.Owner = existing.Owner
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}
	c := existing.Clone()
	c.Title = strings.TrimSpace(update.Title)
	c.Content = update.Content
	c.UpdatedAt = now
	return c, nil
}

// New builds a note of owner from doc. An empty title defaults to the
// title extracted from the document.
func New(owner, title string, doc *document.Document) (*Note, error) {
	if doc == nil {
		return nil, errors.WithStack(ErrInvalidNote)
	}
	if strings.TrimSpace(title) == "" {
		title = doc.Title()
	}
	content, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Note{Owner: owner, Title: title, Content: content}, nil
}
