package gormrepository

import (
	"context"
	"testing"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in, fallback, want int
	}{
		{0, 100, 100},
		{-3, 50, 50},
		{20, 100, 20},
		{9000, 100, 500},
	}
	for _, c := range cases {
		if got := normalizeLimit(c.in, c.fallback); got != c.want {
			t.Fatalf("normalizeLimit(%d,%d)=%d want=%d", c.in, c.fallback, got, c.want)
		}
	}
	if got := normalizeOffset(-1); got != 0 {
		t.Fatalf("normalizeOffset(-1)=%d want=0", got)
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	item, err := s.GetDocumentLatest(context.Background(), "ops_summary", "")
	if err != nil || item != nil {
		t.Fatalf("item=%v err=%v", item, err)
	}
	if err := s.PutDocument(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error from nil store")
	}
}
