package docstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"manualexec/internal/models"
)

type memSnapshot struct {
	info SnapshotInfo
	body []byte
}

// MemoryStore is a process-local Store used by tests and the "memory"
// driver. It honours the same snapshot-then-pointer contract.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[models.DocType][]byte
	keyed  map[models.DocType]map[string][]byte
	snaps  map[models.DocType][]memSnapshot
	names  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		latest: map[models.DocType][]byte{},
		keyed:  map[models.DocType]map[string][]byte{},
		snaps:  map[models.DocType][]memSnapshot{},
		names:  map[string]struct{}{},
	}
}

func (s *MemoryStore) Driver() string { return "memory" }

func (s *MemoryStore) GetLatest(ctx context.Context, docType models.DocType) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.latest[docType]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (s *MemoryStore) GetLatestByKey(ctx context.Context, docType models.DocType, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.keyed[docType][key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(b), nil
}

func (s *MemoryStore) Put(ctx context.Context, docType models.DocType, body []byte, opts PutOptions) (SnapshotInfo, error) {
	if len(body) == 0 {
		return SnapshotInfo{}, errors.New("empty document body")
	}
	if opts.Key != "" {
		if err := validateKey(opts.Key); err != nil {
			return SnapshotInfo{}, err
		}
	}
	at := opts.At
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var name string
	for seq := 1; ; seq++ {
		name = snapshotName(docType, at, seq)
		if _, taken := s.names[name]; !taken {
			break
		}
	}
	info := SnapshotInfo{ID: name, DocType: docType, Key: opts.Key, Size: int64(len(body)), CreatedAt: at}
	s.names[name] = struct{}{}
	s.snaps[docType] = append(s.snaps[docType], memSnapshot{info: info, body: clone(body)})
	if opts.Key != "" {
		if s.keyed[docType] == nil {
			s.keyed[docType] = map[string][]byte{}
		}
		s.keyed[docType][opts.Key] = clone(body)
	}
	s.latest[docType] = clone(body)
	return info, nil
}

func (s *MemoryStore) ListSnapshots(ctx context.Context, docType models.DocType, limit int) ([]SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SnapshotInfo, 0, len(s.snaps[docType]))
	for _, sn := range s.snaps[docType] {
		out = append(out, sn.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) GetSnapshot(ctx context.Context, docType models.DocType, id string) ([]byte, error) {
	id, err := validateSnapshotID(docType, id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sn := range s.snaps[docType] {
		if sn.info.ID == id {
			return clone(sn.body), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Purge(ctx context.Context, docType models.DocType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sn := range s.snaps[docType] {
		delete(s.names, sn.info.ID)
	}
	delete(s.snaps, docType)
	delete(s.latest, docType)
	delete(s.keyed, docType)
	return nil
}

// SnapshotCount is a test helper.
func (s *MemoryStore) SnapshotCount(docType models.DocType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps[docType])
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
