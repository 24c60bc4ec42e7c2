// Package audit keeps a trail of every mutating API call.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"manualexec/internal/config"
)

type Entry struct {
	ID        string         `json:"id"`
	Agent     string         `json:"agent"`
	Action    string         `json:"action"`
	Level     string         `json:"level"`
	Operator  string         `json:"operator,omitempty"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

type Sink interface {
	Write(ctx context.Context, e Entry) error
}

type nopSink struct{}

func (nopSink) Write(context.Context, Entry) error { return nil }

// Open builds the sink named by cfg.Sink: none|file|paas.
func Open(ctx context.Context, cfg config.AuditConfig) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Sink)) {
	case "", "none":
		return nopSink{}, nil
	case "file":
		path := strings.TrimSpace(cfg.FilePath)
		if path == "" {
			path = "data/audit.jsonl"
		}
		return NewFileSink(path), nil
	case "paas":
		c := &PaaSClient{BaseURL: cfg.PaaSBase, APIKey: cfg.PaaSKey}
		loginCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := c.Login(loginCtx); err != nil {
			return nil, fmt.Errorf("paas login: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown audit sink %s", cfg.Sink)
	}
}

func levelFromStatus(status int) string {
	if status >= 500 {
		return "error"
	}
	if status >= 400 {
		return "warn"
	}
	return "info"
}
