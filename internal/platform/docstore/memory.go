package docstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps collections in process memory. It is the default for
// development and the test double for everything above the store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document // collection -> id -> doc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Document)}
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return withKey(Clone(doc), id), nil
}

// GetAll returns documents ordered by id so results are stable across calls.
func (s *MemoryStore) GetAll(_ context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, withKey(Clone(docs[id]), id))
	}
	return out, nil
}

func (s *MemoryStore) Put(_ context.Context, collection, id string, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	s.collections[collection][id] = Clone(doc)
	return nil
}

func (s *MemoryStore) UpdatePartial(_ context.Context, collection, id string, fields Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = cloneValue(v)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return false, nil
	}
	delete(s.collections[collection], id)
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }
