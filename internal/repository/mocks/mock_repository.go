// Package mocks provides an in-memory DocumentStore for testing.
package mocks

import (
	"context"
	"sync"
	"time"

	"zeus-backend/internal/repository"

	"github.com/google/uuid"
)

// MockDocumentStore keeps collections in memory, preserving insertion order.
// Errors can be injected per method to exercise failure paths in services.
type MockDocumentStore struct {
	mu sync.RWMutex

	// collection -> ordered ids, collection -> id -> document
	order       map[string][]string
	collections map[string]map[string]repository.Document

	// For testing error scenarios
	shouldFailOn map[string]error
	calls        map[string]int

	now func() time.Time
}

// NewMockDocumentStore creates a new, empty store.
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		order:        make(map[string][]string),
		collections:  make(map[string]map[string]repository.Document),
		shouldFailOn: make(map[string]error),
		calls:        make(map[string]int),
		now:          time.Now,
	}
}

// SetError configures the mock to return an error for a specific method.
func (m *MockDocumentStore) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (m *MockDocumentStore) ClearErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOn = make(map[string]error)
}

// Calls returns how many times method was invoked, failed calls included.
func (m *MockDocumentStore) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

// Count returns the number of documents in collection.
func (m *MockDocumentStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order[collection])
}

// Seed stores doc verbatim under its "id" (generated when absent), bypassing
// insert semantics. Useful for legacy-shaped records.
func (m *MockDocumentStore) Seed(collection string, doc repository.Document) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := repository.IDString(doc[repository.FieldID])
	if id == "" {
		id = uuid.New().String()
	}
	stored := clone(doc)
	stored[repository.FieldID] = id
	m.put(collection, id, stored)
	return id
}

// checkError records the call and returns an error if one is configured for method.
// Callers must hold the write lock.
func (m *MockDocumentStore) checkError(method string) error {
	m.calls[method]++
	if err, exists := m.shouldFailOn[method]; exists {
		return err
	}
	return nil
}

func (m *MockDocumentStore) put(collection, id string, doc repository.Document) {
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]repository.Document)
		m.collections[collection] = docs
	}
	if _, exists := docs[id]; !exists {
		m.order[collection] = append(m.order[collection], id)
	}
	docs[id] = doc
}

func (m *MockDocumentStore) Insert(ctx context.Context, collection string, doc repository.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("Insert"); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	stored := clone(doc)
	stored[repository.FieldID] = id
	if collection == repository.CollectionPosts {
		stored[repository.FieldCreatedAt] = m.now().UTC().Format(time.RFC3339Nano)
	}
	m.put(collection, id, stored)
	return id, nil
}

func (m *MockDocumentStore) Update(ctx context.Context, collection string, filter repository.Predicate, doc repository.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("Update"); err != nil {
		return err
	}
	if err := repository.Validate(filter); err != nil {
		return err
	}

	for _, id := range m.order[collection] {
		stored := m.collections[collection][id]
		if !repository.Matches(filter, stored) {
			continue
		}
		for k, v := range doc {
			if k == repository.FieldID || k == repository.FieldCreatedAt {
				continue
			}
			stored[k] = v
		}
	}
	return nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, collection string, filter repository.Predicate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("Delete"); err != nil {
		return err
	}
	if err := repository.Validate(filter); err != nil {
		return err
	}

	kept := m.order[collection][:0]
	for _, id := range m.order[collection] {
		if repository.Matches(filter, m.collections[collection][id]) {
			delete(m.collections[collection], id)
			continue
		}
		kept = append(kept, id)
	}
	m.order[collection] = kept
	return nil
}

func (m *MockDocumentStore) SelectAll(ctx context.Context, collection string) ([]repository.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("SelectAll"); err != nil {
		return nil, err
	}
	return m.selectLocked(collection, nil), nil
}

func (m *MockDocumentStore) SelectFiltered(ctx context.Context, collection string, filter repository.Predicate) ([]repository.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkError("SelectFiltered"); err != nil {
		return nil, err
	}
	if err := repository.Validate(filter); err != nil {
		return nil, err
	}
	return m.selectLocked(collection, filter), nil
}

func (m *MockDocumentStore) selectLocked(collection string, filter repository.Predicate) []repository.Document {
	out := make([]repository.Document, 0, len(m.order[collection]))
	for _, id := range m.order[collection] {
		doc := m.collections[collection][id]
		if filter != nil && !repository.Matches(filter, doc) {
			continue
		}
		out = append(out, clone(doc))
	}
	return out
}

func clone(doc repository.Document) repository.Document {
	out := make(repository.Document, len(doc))
	for k, v := range doc {
		if list, ok := v.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			v = cp
		}
		out[k] = v
	}
	return out
}
