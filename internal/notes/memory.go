package notes

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps notes in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]*Note
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string]*Note)}
}

func (s *MemoryStore) Create(_ context.Context, n *Note) (*Note, error) {
	created, err := Prepare(n, Now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[created.ID] = created
	return created.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return n.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, n *Note) (*Note, error) {
	if n == nil {
		return nil, errors.WithStack(ErrInvalidNote)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[n.ID]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "id %q", n.ID)
	}
	updated, err := Merge(existing, n, Now())
	if err != nil {
		return nil, err
	}
	s.notes[updated.ID] = updated
	return updated.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return errors.Wrapf(ErrNotFound, "id %q", id)
	}
	delete(s.notes, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, owner string) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Note
	for _, n := range s.notes {
		if n.Owner == owner {
			result = append(result, n.Clone())
		}
	}
	SortByUpdate(result)
	return result, nil
}

// SortByUpdate orders notes most recently updated first. Ties are broken
// by descending ID.
func SortByUpdate(notes []*Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].ID > notes[j].ID
	})
}
