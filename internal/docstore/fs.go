package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"manualexec/internal/models"
)

// FileStore lays documents out as
//
//	<root>/<T>/latest/<T>_latest.json
//	<root>/<T>/latest/keys/<key>.json
//	<root>/<T>/snapshots/<T>_<YYYYMMDD_HHMMSS>.json
//
// Every file is written to a temp name in its target directory, synced and
// then renamed into place. Writers in one process are serialized by mu;
// cross-process writers rely on the rename being atomic.
type FileStore struct {
	root string
	mu   sync.Mutex

	rename func(oldpath, newpath string) error
}

func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		root = "./reports/live"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{root: root, rename: os.Rename}, nil
}

func (s *FileStore) Driver() string { return "fs" }

func (s *FileStore) Root() string { return s.root }

func (s *FileStore) typeDir(docType models.DocType) string {
	return filepath.Join(s.root, string(docType))
}

func (s *FileStore) latestPath(docType models.DocType) string {
	return filepath.Join(s.typeDir(docType), "latest", string(docType)+"_latest.json")
}

func (s *FileStore) snapshotDir(docType models.DocType) string {
	return filepath.Join(s.typeDir(docType), "snapshots")
}

func (s *FileStore) keyPath(docType models.DocType, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	name := url.PathEscape(key)
	if name == "." || name == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.typeDir(docType), "latest", "keys", name+".json"), nil
}

func (s *FileStore) GetLatest(ctx context.Context, docType models.DocType) ([]byte, error) {
	return readDoc(s.latestPath(docType))
}

func (s *FileStore) GetLatestByKey(ctx context.Context, docType models.DocType, key string) ([]byte, error) {
	p, err := s.keyPath(docType, key)
	if err != nil {
		return nil, err
	}
	return readDoc(p)
}

func (s *FileStore) Put(ctx context.Context, docType models.DocType, body []byte, opts PutOptions) (SnapshotInfo, error) {
	if len(body) == 0 {
		return SnapshotInfo{}, errors.New("empty document body")
	}
	var keyPath string
	if opts.Key != "" {
		p, err := s.keyPath(docType, opts.Key)
		if err != nil {
			return SnapshotInfo{}, err
		}
		keyPath = p
	}
	at := opts.At
	if at.IsZero() {
		at = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.snapshotDir(docType)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SnapshotInfo{}, err
	}
	var name, snapPath string
	for seq := 1; ; seq++ {
		if seq > 999 {
			return SnapshotInfo{}, fmt.Errorf("too many snapshots for %s at %s", docType, at.Format(snapshotLayout))
		}
		name = snapshotName(docType, at, seq)
		snapPath = filepath.Join(dir, name+".json")
		if _, err := os.Stat(snapPath); errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	if err := s.writeAtomic(snapPath, body); err != nil {
		return SnapshotInfo{}, fmt.Errorf("write snapshot: %w", err)
	}

	var prevKeyed []byte
	hadKeyed := false
	if keyPath != "" {
		if b, err := os.ReadFile(keyPath); err == nil {
			prevKeyed, hadKeyed = b, true
		}
		if err := s.writeAtomic(keyPath, body); err != nil {
			_ = os.Remove(snapPath)
			return SnapshotInfo{}, fmt.Errorf("swap key pointer: %w", err)
		}
	}
	if err := s.writeAtomic(s.latestPath(docType), body); err != nil {
		if keyPath != "" {
			if hadKeyed {
				_ = s.writeAtomic(keyPath, prevKeyed)
			} else {
				_ = os.Remove(keyPath)
			}
		}
		_ = os.Remove(snapPath)
		return SnapshotInfo{}, fmt.Errorf("swap latest pointer: %w", err)
	}

	return SnapshotInfo{
		ID:        name,
		DocType:   docType,
		Key:       opts.Key,
		Size:      int64(len(body)),
		CreatedAt: at,
	}, nil
}

func (s *FileStore) ListSnapshots(ctx context.Context, docType models.DocType, limit int) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(s.snapshotDir(docType))
	if errors.Is(err, fs.ErrNotExist) {
		return []SnapshotInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	prefix := string(docType) + "_"
	out := make([]SnapshotInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, SnapshotInfo{
			ID:        strings.TrimSuffix(name, ".json"),
			DocType:   docType,
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if n := normalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *FileStore) GetSnapshot(ctx context.Context, docType models.DocType, id string) ([]byte, error) {
	id, err := validateSnapshotID(docType, id)
	if err != nil {
		return nil, err
	}
	return readDoc(filepath.Join(s.snapshotDir(docType), id+".json"))
}

func (s *FileStore) Purge(ctx context.Context, docType models.DocType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.RemoveAll(s.typeDir(docType))
}

func (s *FileStore) writeAtomic(path string, body []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	rename := s.rename
	if rename == nil {
		rename = os.Rename
	}
	return rename(tmpName, path)
}

func readDoc(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
