// Package memory provides an in-memory ObjectStore for tests and local runs.
package memory

import (
	"context"
	"sync"

	"zeus-backend/internal/storage"
)

type object struct {
	data        []byte
	contentType string
}

// Store keeps objects in memory. Errors can be injected per method.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object

	shouldFailOn map[string]error
	failPaths    map[string]error
	removed      []string
}

func NewStore() *Store {
	return &Store{
		objects:      make(map[string]object),
		shouldFailOn: make(map[string]error),
		failPaths:    make(map[string]error),
	}
}

var _ storage.ObjectStore = (*Store)(nil)

// SetError configures the store to return an error for a specific method.
func (s *Store) SetError(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn[method] = err
}

// FailUploadOf makes uploads to path fail with err.
func (s *Store) FailUploadOf(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPaths[path] = err
}

// ClearErrors removes all configured errors.
func (s *Store) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shouldFailOn = make(map[string]error)
	s.failPaths = make(map[string]error)
}

// Has reports whether bucket/path is stored.
func (s *Store) Has(bucket, path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[bucket+"/"+path]
	return ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Removed returns every path passed to Remove, in call order.
func (s *Store) Removed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.removed))
	copy(out, s.removed)
	return out
}

// ContentType returns the content type bucket/path was uploaded with.
func (s *Store) ContentType(bucket, path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[bucket+"/"+path].contentType
}

func (s *Store) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.shouldFailOn["Upload"]; ok {
		return err
	}
	if err, ok := s.failPaths[path]; ok {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[bucket+"/"+path] = object{data: cp, contentType: contentType}
	return nil
}

func (s *Store) Remove(ctx context.Context, bucket string, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, paths...)
	if err, ok := s.shouldFailOn["Remove"]; ok {
		return err
	}

	for _, p := range paths {
		delete(s.objects, bucket+"/"+p)
	}
	return nil
}
