// Package docstore keeps one "latest" pointer plus an append-only snapshot
// history per document type.
//
// Contract for every driver:
//   - Put writes the snapshot first and only then replaces the latest
//     pointer(s). A failed Put leaves the previous latest pointer readable
//     and unchanged.
//   - Snapshots are never overwritten.
//   - Readers never observe a partially written document.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"manualexec/internal/models"
)

var ErrNotFound = errors.New("document not found")

type SnapshotInfo struct {
	ID        string         `json:"id"`
	DocType   models.DocType `json:"doc_type"`
	Key       string         `json:"key,omitempty"`
	Size      int64          `json:"size"`
	CreatedAt time.Time      `json:"created_at"`
}

type PutOptions struct {
	// Key maintains a second latest pointer for the (type, key) pair, e.g.
	// the most recent record of one plan.
	Key string
	// At names the snapshot. Zero means now.
	At time.Time
}

type Store interface {
	Driver() string
	GetLatest(ctx context.Context, docType models.DocType) ([]byte, error)
	GetLatestByKey(ctx context.Context, docType models.DocType, key string) ([]byte, error)
	Put(ctx context.Context, docType models.DocType, body []byte, opts PutOptions) (SnapshotInfo, error)
	ListSnapshots(ctx context.Context, docType models.DocType, limit int) ([]SnapshotInfo, error)
	GetSnapshot(ctx context.Context, docType models.DocType, id string) ([]byte, error)
	Purge(ctx context.Context, docType models.DocType) error
}

// LoadLatest decodes the latest document of doc's type into doc.
func LoadLatest(ctx context.Context, s Store, doc models.Document) error {
	raw, err := s.GetLatest(ctx, doc.DocType())
	if err != nil {
		return err
	}
	return models.Decode(raw, doc)
}

func LoadLatestByKey(ctx context.Context, s Store, key string, doc models.Document) error {
	raw, err := s.GetLatestByKey(ctx, doc.DocType(), key)
	if err != nil {
		return err
	}
	return models.Decode(raw, doc)
}

// Save encodes doc and stores it.
func Save(ctx context.Context, s Store, doc models.Document, opts PutOptions) (SnapshotInfo, error) {
	raw, err := models.Encode(doc)
	if err != nil {
		return SnapshotInfo{}, err
	}
	return s.Put(ctx, doc.DocType(), raw, opts)
}

const snapshotLayout = "20060102_150405"

// snapshotName builds "<type>_<YYYYMMDD_HHMMSS>", with a zero-padded
// sequence suffix when the same second is already taken.
func snapshotName(docType models.DocType, at time.Time, seq int) string {
	base := fmt.Sprintf("%s_%s", docType, at.Format(snapshotLayout))
	if seq <= 1 {
		return base
	}
	return fmt.Sprintf("%s_%03d", base, seq)
}

func validateSnapshotID(docType models.DocType, id string) (string, error) {
	id = strings.TrimSuffix(strings.TrimSpace(id), ".json")
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid snapshot id %q", id)
	}
	if !strings.HasPrefix(id, string(docType)+"_") {
		return "", fmt.Errorf("snapshot %q does not belong to %s", id, docType)
	}
	return id, nil
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty key")
	}
	if len(key) > 200 {
		return fmt.Errorf("key too long (%d)", len(key))
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 500 {
		return 500
	}
	return limit
}
