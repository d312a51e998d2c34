package memory

import (
	"context"
	"sync"

	"github.com/edel-social/edel-server/blob"
)

type store struct {
	mu   sync.RWMutex
	data map[string]*blob.Blob
}

func NewInMemory() blob.Store {
	return &store{
		data: make(map[string]*blob.Blob),
	}
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*blob.Blob)
}

func (s *store) CreateBlob(_ context.Context, b *blob.Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.data[b.ID]; found {
		return blob.ErrExists
	}
	for _, existing := range s.data {
		if existing.URL == b.URL {
			return blob.ErrExists
		}
	}
	s.data[b.ID] = b.Clone()
	return nil
}

func (s *store) GetBlob(_ context.Context, id string) (*blob.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bl, found := s.data[id]
	if !found {
		return nil, blob.ErrNotFound
	}
	return bl.Clone(), nil
}

func (s *store) GetBlobByURL(_ context.Context, url string) (*blob.Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, bl := range s.data {
		if bl.URL == url {
			return bl.Clone(), nil
		}
	}
	return nil, blob.ErrNotFound
}

func (s *store) DeleteBlob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.data[id]; !found {
		return blob.ErrNotFound
	}
	delete(s.data, id)
	return nil
}
