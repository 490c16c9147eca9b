// Package sqlitestore stores notes in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"github.com/stateful/notes/internal/notes"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS notes_owner_updated ON notes (owner, updated_at DESC);
`

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Store struct {
	db *sql.DB
}

var _ notes.Store = (*Store)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != MemoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, multierr.Append(errors.Wrap(err, "failed to apply schema"), db.Close())
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, n *notes.Note) (*notes.Note, error) {
	created, err := notes.Prepare(n, notes.Now())
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, owner, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, created.ID, created.Owner, created.Title, string(created.Content),
		created.CreatedAt.UnixMicro(), created.UpdatedAt.UnixMicro())
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert note")
	}
	return created, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*notes.Note, error) {
	var (
		n                    notes.Note
		content              string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&n.ID, &n.Owner, &n.Title, &content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.Content = []byte(content)
	n.CreatedAt = fromMicro(createdAt)
	n.UpdatedAt = fromMicro(updatedAt)
	return &n, nil
}

func fromMicro(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

func (s *Store) get(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id string,
) (*notes.Note, error) {
	n, err := scanNote(q.QueryRowContext(ctx, `
		SELECT id, owner, title, content, created_at, updated_at
		FROM notes
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(notes.ErrNotFound, "id %q", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan note")
	}
	return n, nil
}

func (s *Store) Get(ctx context.Context, id string) (*notes.Note, error) {
	return s.get(ctx, s.db, id)
}

func (s *Store) Update(ctx context.Context, n *notes.Note) (_ *notes.Note, err error) {
	if n == nil {
		return nil, errors.WithStack(notes.ErrInvalidNote)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreDone(tx.Rollback()))
		}
	}()

	existing, err := s.get(ctx, tx, n.ID)
	if err != nil {
		return nil, err
	}
	updated, err := notes.Merge(existing, n, notes.Now())
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, updated_at = ?
		WHERE id = ?
	`, updated.Title, string(updated.Content), updated.UpdatedAt.UnixMicro(), updated.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update note")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit update")
	}
	return updated, nil
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete note")
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if count == 0 {
		return errors.Wrapf(notes.ErrNotFound, "id %q", id)
	}
	return nil
}

func (s *Store) List(ctx context.Context, owner string) ([]*notes.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, title, content, created_at, updated_at
		FROM notes
		WHERE owner = ?
		ORDER BY updated_at DESC, id DESC
	`, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query notes")
	}
	defer rows.Close()

	var result []*notes.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		result = append(result, n)
	}
	return result, errors.WithStack(rows.Err())
}
