package notes

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/stateful/notes/internal/lru"
)

// CachedStore serves Get from an LRU cache in front of another store.
// Writes go through to the store and refresh the cache.
type CachedStore struct {
	store  Store
	cache  *lru.Cache[*Note]
	logger *zap.Logger
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(store Store, capacity int, logger *zap.Logger) *CachedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := lru.NewCache[*Note](capacity).OnEvict(func(id string, _ *Note) {
		logger.Debug("evicted note from cache", zap.String("id", id))
	})
	return &CachedStore{store: store, cache: cache, logger: logger}
}

func (s *CachedStore) Create(ctx context.Context, n *Note) (*Note, error) {
	created, err := s.store.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	s.cache.Add(created.ID, created.Clone())
	return created, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (*Note, error) {
	if n, ok := s.cache.Get(id); ok {
		return n.Clone(), nil
	}
	n, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, n.Clone())
	return n, nil
}

func (s *CachedStore) Update(ctx context.Context, n *Note) (*Note, error) {
	updated, err := s.store.Update(ctx, n)
	if err != nil {
		if n != nil {
			s.cache.Delete(n.ID)
		}
		return nil, err
	}
	s.cache.Add(updated.ID, updated.Clone())
	return updated, nil
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	s.cache.Delete(id)
	return s.store.Delete(ctx, id)
}

func (s *CachedStore) List(ctx context.Context, owner string) ([]*Note, error) {
	return s.store.List(ctx, owner)
}

// Close drops the cache and closes the underlying store if it holds
// resources.
func (s *CachedStore) Close() error {
	s.cache.Purge()
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
