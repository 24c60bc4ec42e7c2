package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"manualexec/internal/models"
	"manualexec/internal/repository"
)

// RepoStore keeps documents in postgres through the document repository.
// Snapshot insert and pointer upserts share one transaction.
type RepoStore struct {
	repo repository.DocumentRepository
}

func NewRepoStore(repo repository.DocumentRepository) *RepoStore {
	return &RepoStore{repo: repo}
}

func (s *RepoStore) Driver() string { return "postgres" }

func (s *RepoStore) GetLatest(ctx context.Context, docType models.DocType) ([]byte, error) {
	return s.latest(ctx, docType, "")
}

func (s *RepoStore) GetLatestByKey(ctx context.Context, docType models.DocType, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return s.latest(ctx, docType, key)
}

func (s *RepoStore) latest(ctx context.Context, docType models.DocType, key string) ([]byte, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("document repository unavailable")
	}
	item, err := s.repo.GetDocumentLatest(ctx, string(docType), key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return []byte(item.Body), nil
}

func (s *RepoStore) Put(ctx context.Context, docType models.DocType, body []byte, opts PutOptions) (SnapshotInfo, error) {
	if s == nil || s.repo == nil {
		return SnapshotInfo{}, errors.New("document repository unavailable")
	}
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

	base := snapshotName(docType, at, 1)
	taken, err := s.repo.CountDocumentSnapshots(ctx, string(docType), base)
	if err != nil {
		return SnapshotInfo{}, err
	}
	seq := int(taken) + 1

	// A concurrent writer in another process may take the same name; the
	// unique index rejects it and the next sequence is tried.
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		name := snapshotName(docType, at, seq+attempt)
		snap := &models.DocumentSnapshot{
			DocType:    string(docType),
			DocKey:     opts.Key,
			SnapshotID: name,
			Body:       datatypes.JSON(body),
		}
		pointers := []models.DocumentLatest{{
			DocType:    string(docType),
			DocKey:     "",
			SnapshotID: name,
			Body:       datatypes.JSON(body),
		}}
		if opts.Key != "" {
			pointers = append(pointers, models.DocumentLatest{
				DocType:    string(docType),
				DocKey:     opts.Key,
				SnapshotID: name,
				Body:       datatypes.JSON(body),
			})
		}
		if err := s.repo.PutDocument(ctx, snap, pointers); err != nil {
			lastErr = err
			continue
		}
		return SnapshotInfo{ID: name, DocType: docType, Key: opts.Key, Size: int64(len(body)), CreatedAt: at}, nil
	}
	return SnapshotInfo{}, fmt.Errorf("put %s: %w", docType, lastErr)
}

func (s *RepoStore) ListSnapshots(ctx context.Context, docType models.DocType, limit int) ([]SnapshotInfo, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("document repository unavailable")
	}
	items, err := s.repo.ListDocumentSnapshots(ctx, repository.ListDocumentSnapshotsParams{
		DocType: string(docType),
		Limit:   normalizeLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]SnapshotInfo, 0, len(items))
	for _, it := range items {
		out = append(out, SnapshotInfo{
			ID:        it.SnapshotID,
			DocType:   docType,
			Key:       it.DocKey,
			Size:      int64(len(it.Body)),
			CreatedAt: it.CreatedAt,
		})
	}
	return out, nil
}

func (s *RepoStore) GetSnapshot(ctx context.Context, docType models.DocType, id string) ([]byte, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("document repository unavailable")
	}
	id, err := validateSnapshotID(docType, id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetDocumentSnapshot(ctx, string(docType), id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return []byte(item.Body), nil
}

func (s *RepoStore) Purge(ctx context.Context, docType models.DocType) error {
	if s == nil || s.repo == nil {
		return errors.New("document repository unavailable")
	}
	_, err := s.repo.DeleteDocuments(ctx, string(docType))
	return err
}
