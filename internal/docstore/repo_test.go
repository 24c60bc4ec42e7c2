package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"manualexec/internal/models"
	"manualexec/internal/repository/memory"
)

func TestRepoStoreKeyedLatestAndHistory(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	s := NewRepoStore(repo)
	at := time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC)

	first, err := s.Put(ctx, models.DocRecord, []byte(`{"v":1}`), PutOptions{Key: "plan-1", At: at})
	if err != nil {
		t.Fatalf("put 1: %v", err)
	}
	second, err := s.Put(ctx, models.DocRecord, []byte(`{"v":2}`), PutOptions{Key: "plan-1", At: at})
	if err != nil {
		t.Fatalf("put 2: %v", err)
	}
	if first.ID != "manual_execution_record_20260302_150405" || second.ID != "manual_execution_record_20260302_150405_002" {
		t.Fatalf("ids=%s,%s", first.ID, second.ID)
	}

	keyed, err := s.GetLatestByKey(ctx, models.DocRecord, "plan-1")
	if err != nil || string(keyed) != `{"v":2}` {
		t.Fatalf("keyed=%s err=%v", keyed, err)
	}
	old, err := s.GetSnapshot(ctx, models.DocRecord, first.ID)
	if err != nil || string(old) != `{"v":1}` {
		t.Fatalf("old=%s err=%v", old, err)
	}
	list, err := s.ListSnapshots(ctx, models.DocRecord, 10)
	if err != nil || len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("list=%+v err=%v", list, err)
	}
}

func TestRepoStoreFailedPutKeepsLatest(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	s := NewRepoStore(repo)
	if _, err := s.Put(ctx, models.DocOrderPlanExport, []byte(`"e1"`), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	repo.FailPut = errors.New("connection reset")
	if _, err := s.Put(ctx, models.DocOrderPlanExport, []byte(`"e2"`), PutOptions{}); err == nil {
		t.Fatalf("expected error")
	}
	got, err := s.GetLatest(ctx, models.DocOrderPlanExport)
	if err != nil || string(got) != `"e1"` {
		t.Fatalf("latest=%s err=%v", got, err)
	}
}

func TestRepoStoreMissingAndPurge(t *testing.T) {
	ctx := context.Background()
	s := NewRepoStore(memory.New())
	if _, err := s.GetLatest(ctx, models.DocOpsSummary); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	_, _ = s.Put(ctx, models.DocOpsSummary, []byte(`{}`), PutOptions{})
	if err := s.Purge(ctx, models.DocOpsSummary); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := s.GetLatest(ctx, models.DocOpsSummary); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after purge err=%v", err)
	}
}
