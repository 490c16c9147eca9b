// Package redisstore stores notes in Redis: one JSON value per note and a
// sorted set per owner scored by last update.
package redisstore

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	backend "github.com/redis/go-redis/v9"

	"github.com/stateful/notes/internal/notes"
)

const DefaultPrefix = "notes:"

type Store struct {
	client *backend.Client
	prefix string
}

var _ notes.Store = (*Store)(nil)

type Option func(*Store)

// WithPrefix sets the prefix of all keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New connects to the Redis server at address.
func New(address, password string, db int, opts ...Option) *Store {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + "note:" + id
}

func (s *Store) ownerKey(owner string) string {
	return s.prefix + "owner:" + owner
}

func score(n *notes.Note) float64 {
	return float64(n.UpdatedAt.UnixMicro())
}

func (s *Store) write(ctx context.Context, n *notes.Note, create bool) error {
	data, err := json.Marshal(n)
	if err != nil {
		return errors.Wrap(err, "failed to marshal note")
	}

	pipe := s.client.TxPipeline()
	if create {
		pipe.SetNX(ctx, s.key(n.ID), data, 0)
	} else {
		pipe.SetXX(ctx, s.key(n.ID), data, 0)
	}
	pipe.ZAdd(ctx, s.ownerKey(n.Owner), backend.Z{Score: score(n), Member: n.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to save note to redis")
	}
	return nil
}

func (s *Store) Create(ctx context.Context, n *notes.Note) (*notes.Note, error) {
	created, err := notes.Prepare(n, notes.Now())
	if err != nil {
		return nil, err
	}
	if err := s.write(ctx, created, true); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Store) Get(ctx context.Context, id string) (*notes.Note, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, errors.Wrapf(notes.ErrNotFound, "id %q", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get note from redis")
	}

	var n notes.Note
	if err := json.Unmarshal(val, &n); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal note")
	}
	return &n, nil
}

func (s *Store) Update(ctx context.Context, n *notes.Note) (*notes.Note, error) {
	if n == nil {
		return nil, errors.WithStack(notes.ErrInvalidNote)
	}

	var updated *notes.Note
	err := s.client.Watch(ctx, func(tx *backend.Tx) error {
		existing, err := s.Get(ctx, n.ID)
		if err != nil {
			return err
		}
		updated, err = notes.Merge(existing, n, notes.Now())
		if err != nil {
			return err
		}
		data, err := json.Marshal(updated)
		if err != nil {
			return errors.Wrap(err, "failed to marshal note")
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, s.key(updated.ID), data, 0)
			pipe.ZAdd(ctx, s.ownerKey(updated.Owner), backend.Z{Score: score(updated), Member: updated.ID})
			return nil
		})
		return errors.Wrap(err, "failed to save note to redis")
	}, s.key(n.ID))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.ownerKey(n.Owner), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to delete note from redis")
	}
	return nil
}

func (s *Store) List(ctx context.Context, owner string) ([]*notes.Note, error) {
	ids, err := s.client.ZRevRange(ctx, s.ownerKey(owner), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notes")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load notes")
	}

	result := make([]*notes.Note, 0, len(values))
	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			// The index may briefly outlive a deleted note.
			continue
		}
		var n notes.Note
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal note %s", ids[i])
		}
		result = append(result, &n)
	}
	notes.SortByUpdate(result)
	return result, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
