// Package artifacts stores the operator-facing ticket files (CSV and
// Markdown). Objects are written once under a key derived from the ticket id.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"manualexec/internal/config"
)

var (
	ErrExists   = errors.New("artifact already exists")
	ErrNotFound = errors.New("artifact not found")
)

type Info struct {
	Key         string    `json:"key"`
	Location    string    `json:"location"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store interface {
	Driver() string
	Put(ctx context.Context, key string, body []byte, contentType string) (Info, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Open builds the store named by cfg.Driver (fs|s3|memory, default fs).
func Open(ctx context.Context, cfg config.ArtifactsConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "fs":
		return NewFileStore(cfg.Root)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown artifacts driver %s", cfg.Driver)
	}
}

func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", errors.New("empty artifact key")
	}
	if strings.Contains(key, "..") || strings.Contains(key, `\`) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return key, nil
}
