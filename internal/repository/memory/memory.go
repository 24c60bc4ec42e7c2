// Package memory is an in-process Repository. It backs system settings when
// no database is configured and stands in for postgres in tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"manualexec/internal/models"
	"manualexec/internal/repository"
)

var ErrDuplicateSnapshot = errors.New("duplicate snapshot id")

type latestKey struct {
	docType string
	key     string
}

type Store struct {
	mu       sync.RWMutex
	nextID   uint64
	snaps    []models.DocumentSnapshot
	latest   map[latestKey]models.DocumentLatest
	settings map[string]models.SystemSetting

	// FailPut makes PutDocument fail, for rollback tests.
	FailPut error
}

var _ repository.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		latest:   map[latestKey]models.DocumentLatest{},
		settings: map[string]models.SystemSetting{},
	}
}

func (s *Store) PutDocument(ctx context.Context, snap *models.DocumentSnapshot, pointers []models.DocumentLatest) error {
	if snap == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		return s.FailPut
	}
	for _, existing := range s.snaps {
		if existing.DocType == snap.DocType && existing.SnapshotID == snap.SnapshotID {
			return ErrDuplicateSnapshot
		}
	}
	now := time.Now().UTC()
	s.nextID++
	snap.ID = s.nextID
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = now
	}
	s.snaps = append(s.snaps, *snap)
	for _, p := range pointers {
		p.UpdatedAt = now
		s.latest[latestKey{p.DocType, p.DocKey}] = p
	}
	return nil
}

func (s *Store) GetDocumentLatest(ctx context.Context, docType, key string) (*models.DocumentLatest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.latest[latestKey{docType, key}]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) GetDocumentSnapshot(ctx context.Context, docType, snapshotID string) (*models.DocumentSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sn := range s.snaps {
		if sn.DocType == docType && sn.SnapshotID == snapshotID {
			out := sn
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ListDocumentSnapshots(ctx context.Context, params repository.ListDocumentSnapshotsParams) ([]models.DocumentSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DocumentSnapshot, 0)
	for _, sn := range s.snaps {
		if sn.DocType != params.DocType {
			continue
		}
		if params.DocKey != nil && sn.DocKey != *params.DocKey {
			continue
		}
		out = append(out, sn)
	}
	asc := params.Asc != nil && *params.Asc
	sort.SliceStable(out, func(i, j int) bool {
		if asc {
			return out[i].SnapshotID < out[j].SnapshotID
		}
		return out[i].SnapshotID > out[j].SnapshotID
	})
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []models.DocumentSnapshot{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *Store) CountDocumentSnapshots(ctx context.Context, docType, snapshotPrefix string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, sn := range s.snaps {
		if sn.DocType == docType && strings.HasPrefix(sn.SnapshotID, snapshotPrefix) {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteDocuments(ctx context.Context, docType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.snaps[:0]
	var removed int64
	for _, sn := range s.snaps {
		if sn.DocType == docType {
			removed++
			continue
		}
		kept = append(kept, sn)
	}
	s.snaps = kept
	for k := range s.latest {
		if k.docType == docType {
			delete(s.latest, k)
		}
	}
	return removed, nil
}

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := s.settings[item.Key]; ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		item.ID = s.nextID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
	}
	item.UpdatedAt = now
	s.settings[item.Key] = *item
	return nil
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.settings[key]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SystemSetting, 0, len(s.settings))
	for _, item := range s.settings {
		if params.Prefix != nil && !strings.HasPrefix(item.Key, *params.Prefix) {
			continue
		}
		out = append(out, item)
	}
	asc := params.Asc == nil || *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].Key < out[j].Key
		}
		return out[i].Key > out[j].Key
	})
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []models.SystemSetting{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}
