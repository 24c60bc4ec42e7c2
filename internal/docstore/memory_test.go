package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"manualexec/internal/config"
	"manualexec/internal/models"
)

func TestMemoryStoreHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC)

	for _, body := range []string{`"a"`, `"b"`} {
		if _, err := s.Put(ctx, models.DocOrderPlanExport, []byte(body), PutOptions{At: at}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if n := s.SnapshotCount(models.DocOrderPlanExport); n != 2 {
		t.Fatalf("count=%d want=2", n)
	}
	latest, _ := s.GetLatest(ctx, models.DocOrderPlanExport)
	if string(latest) != `"b"` {
		t.Fatalf("latest=%s", latest)
	}
	old, err := s.GetSnapshot(ctx, models.DocOrderPlanExport, "order_plan_export_20260201_083000.json")
	if err != nil || string(old) != `"a"` {
		t.Fatalf("old=%s err=%v", old, err)
	}
	if _, err := s.Put(ctx, models.DocOrderPlanExport, nil, PutOptions{}); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _ = s.Put(ctx, models.DocOrderPlan, []byte(`"x"`), PutOptions{})
	b, _ := s.GetLatest(ctx, models.DocOrderPlan)
	b[1] = 'y'
	again, _ := s.GetLatest(ctx, models.DocOrderPlan)
	if string(again) != `"x"` {
		t.Fatalf("store mutated through returned slice: %s", again)
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	plan := &models.OrderPlan{Schema: models.SchemaOrderPlan, PlanID: "plan-1", Decision: models.PlanGenerated}
	if _, err := Save(ctx, s, plan, PutOptions{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	var got models.OrderPlan
	if err := LoadLatest(ctx, s, &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.PlanID != "plan-1" || got.Schema != models.SchemaOrderPlan {
		t.Fatalf("got=%+v", got)
	}
	var rec models.ManualExecutionRecord
	if err := LoadLatestByKey(ctx, s, "plan-1", &rec); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record err=%v want ErrNotFound", err)
	}
}

func TestOpenDrivers(t *testing.T) {
	if s, err := Open(config.StoreConfig{Driver: "memory"}, nil); err != nil || s.Driver() != "memory" {
		t.Fatalf("memory: %v", err)
	}
	if s, err := Open(config.StoreConfig{Driver: "fs", Root: t.TempDir()}, nil); err != nil || s.Driver() != "fs" {
		t.Fatalf("fs: %v", err)
	}
	if _, err := Open(config.StoreConfig{Driver: "postgres"}, nil); err == nil {
		t.Fatalf("postgres without repo should fail")
	}
	if _, err := Open(config.StoreConfig{Driver: "s3"}, nil); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
