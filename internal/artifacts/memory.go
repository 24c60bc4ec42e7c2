package artifacts

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string][]byte{}}
}

func (s *MemoryStore) Driver() string { return "memory" }

func (s *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string) (Info, error) {
	key, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[key]; ok {
		return Info{}, ErrExists
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	s.items[key] = cp
	return Info{Key: key, Location: "memory://" + key, Size: int64(len(body)), ContentType: contentType, CreatedAt: time.Now().UTC()}, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	key, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}
