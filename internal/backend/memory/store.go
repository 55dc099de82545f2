// Package memory implements docstore.Store in process memory.
//
// It backs the test suite and `todoshare serve` demos; nothing is persisted.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"todoshare/internal/docstore"
)

// Store is an in-memory document store. The zero value is not usable; call New.
type Store struct {
	mu    sync.RWMutex
	colls map[string]map[string]map[string]any
	calls int

	// Error injection for testing
	GetErr    error
	QueryErr  error
	AddErr    error
	SetErr    error
	UpdateErr error
	DeleteErr error
}

// New creates an empty store.
func New() *Store {
	return &Store{colls: make(map[string]map[string]map[string]any)}
}

// Calls returns the number of store operations issued so far.
func (s *Store) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Count returns the number of documents in collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.colls[collection])
}

func (s *Store) coll(name string) map[string]map[string]any {
	c, ok := s.colls[name]
	if !ok {
		c = make(map[string]map[string]any)
		s.colls[name] = c
	}
	return c
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.GetErr != nil {
		return docstore.Document{}, s.GetErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.colls[collection][id]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Fields: copyFields(fields)}, nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []docstore.Document
	for id, fields := range s.colls[collection] {
		if matchesAll(fields, filters) {
			result = append(result, docstore.Document{ID: id, Fields: copyFields(fields)})
		}
	}
	return result, nil
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.AddErr != nil {
		return "", s.AddErr
	}
	id := uuid.NewString()
	s.coll(collection)[id] = copyFields(fields)
	return id, nil
}

// Set implements docstore.Store.
func (s *Store) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.SetErr != nil {
		return s.SetErr
	}
	s.coll(collection)[id] = copyFields(fields)
	return nil
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	doc, ok := s.colls[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = copyValue(v)
	}
	return nil
}

// UpdateIfVersion implements docstore.Store.
func (s *Store) UpdateIfVersion(ctx context.Context, collection, id string, expected int64, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	doc, ok := s.colls[collection][id]
	if !ok {
		return docstore.ErrNotFound
	}
	current, _ := doc[docstore.VersionField].(int64)
	if current != expected {
		return docstore.ErrVersionMismatch
	}
	for k, v := range fields {
		doc[k] = copyValue(v)
	}
	doc[docstore.VersionField] = expected + 1
	return nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.colls[collection][id]; !ok {
		return docstore.ErrNotFound
	}
	delete(s.colls[collection], id)
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error { return nil }

func matchesAll(fields map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		if !docstore.Matches(fields, f) {
			return false
		}
	}
	return true
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies v, normalizing integers to int64 and string slices
// to []any the way remote stores return them.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	default:
		return v
	}
}
