package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mycok/uResolve/entity"
	"github.com/mycok/uResolve/record"
)

// Static and compile-time check to ensure InMemoryEntityStore implements
// entity.Store interface.
var _ entity.Store = (*InMemoryEntityStore)(nil)

// InMemoryEntityStore implements an in-memory entity store.
type InMemoryEntityStore struct {
	mu sync.RWMutex

	entities     map[uuid.UUID]*record.Record
	byCollection map[string]map[uuid.UUID]struct{}
	links        map[uuid.UUID]uuid.UUID
}

// NewInMemoryEntityStore returns an in-memory entity store.
func NewInMemoryEntityStore() *InMemoryEntityStore {
	return &InMemoryEntityStore{
		entities:     make(map[uuid.UUID]*record.Record),
		byCollection: make(map[string]map[uuid.UUID]struct{}),
		links:        make(map[uuid.UUID]uuid.UUID),
	}
}

// WriteEntity creates or replaces an entity.
func (s *InMemoryEntityStore) WriteEntity(_ context.Context, r *record.Record) error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("write entity: %w", entity.ErrMissingEntityID)
	}

	rCopy := r.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.entities[r.ID]; exists && existing.Collection != r.Collection {
		delete(s.byCollection[existing.Collection], r.ID)
	}

	s.entities[r.ID] = rCopy

	ids, exists := s.byCollection[r.Collection]
	if !exists {
		ids = make(map[uuid.UUID]struct{})
		s.byCollection[r.Collection] = ids
	}
	ids[r.ID] = struct{}{}

	return nil
}

// GetProperties returns the entity with the specified ID.
func (s *InMemoryEntityStore) GetProperties(_ context.Context, id uuid.UUID) (*record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.entities[id]
	if !exists {
		return nil, fmt.Errorf("get entity %s: %w", id, entity.ErrNotFound)
	}

	return r.Clone(), nil
}

// Entities returns an iterator over a snapshot of the entities of a
// collection.
func (s *InMemoryEntityStore) Entities(_ context.Context, collection string) (record.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*record.Record, 0, len(s.byCollection[collection]))
	for id := range s.byCollection[collection] {
		list = append(list, s.entities[id].Clone())
	}

	return &entityIterator{list: list}, nil
}

// LinkEntity records that oldID was merged into newID.
func (s *InMemoryEntityStore) LinkEntity(_ context.Context, oldID, newID uuid.UUID) error {
	s.mu.Lock()
	s.links[oldID] = newID
	s.mu.Unlock()

	return nil
}

// LinkedID returns the canonical entity ID oldID was merged into.
func (s *InMemoryEntityStore) LinkedID(_ context.Context, oldID uuid.UUID) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	newID, exists := s.links[oldID]
	if !exists {
		return uuid.Nil, fmt.Errorf("linked id %s: %w", oldID, entity.ErrNotFound)
	}

	return newID, nil
}

type entityIterator struct {
	list []*record.Record
	cur  int
}

func (i *entityIterator) Next() bool {
	if i.cur >= len(i.list) {
		return false
	}

	i.cur++

	return true
}

func (i *entityIterator) Record() *record.Record { return i.list[i.cur-1] }

func (i *entityIterator) Error() error { return nil }

func (i *entityIterator) Close() error { return nil }
