package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/edel-social/edel-server/s3"
)

type object struct {
	data        []byte
	contentType string
}

type store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewInMemory() s3.Store {
	return &store{
		objects: make(map[string]object),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects = make(map[string]object)
}

func (s *store) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy of the data to prevent external modifications
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	s.objects[key] = object{data: dataCopy, contentType: contentType}
	return nil
}

func (s *store) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, s3.ErrNotFound
	}

	// Return a copy of the data to prevent external modifications
	dataCopy := make([]byte, len(obj.data))
	copy(dataCopy, obj.data)
	return dataCopy, nil
}

func (s *store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Keys returns the stored keys. Used by tests to assert on leftovers.
func Keys(st s3.Store) []string {
	s := st.(*store)

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
