package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"manualexec/internal/models"
)

func TestFileStorePutThenLatest(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.GetLatest(ctx, models.DocOrderPlan); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty latest err=%v want ErrNotFound", err)
	}

	at := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	info, err := s.Put(ctx, models.DocOrderPlan, []byte(`{"n":1}`), PutOptions{At: at})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ID != "order_plan_20260120_090000" {
		t.Fatalf("id=%s", info.ID)
	}
	got, err := s.GetLatest(ctx, models.DocOrderPlan)
	if err != nil || string(got) != `{"n":1}` {
		t.Fatalf("latest=%s err=%v", got, err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "order_plan", "latest", "order_plan_latest.json")); err != nil {
		t.Fatalf("latest file: %v", err)
	}
}

func TestFileStoreSameSecondGetsSuffix(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	at := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)

	ids := []string{}
	for i := 0; i < 3; i++ {
		info, err := s.Put(ctx, models.DocOpsSummary, []byte(`{"i":`+string(rune('0'+i))+`}`), PutOptions{At: at})
		if err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
		ids = append(ids, info.ID)
	}
	want := []string{"ops_summary_20260120_090000", "ops_summary_20260120_090000_002", "ops_summary_20260120_090000_003"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d]=%s want=%s", i, ids[i], want[i])
		}
	}
	first, err := s.GetSnapshot(ctx, models.DocOpsSummary, ids[0])
	if err != nil || string(first) != `{"i":0}` {
		t.Fatalf("first snapshot=%s err=%v", first, err)
	}
	list, err := s.ListSnapshots(ctx, models.DocOpsSummary, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != want[2] {
		t.Fatalf("list=%+v", list)
	}
}

func TestFileStoreKeyPointer(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	docType := models.DocRecord

	if _, err := s.Put(ctx, docType, []byte(`"a1"`), PutOptions{Key: "plan/a"}); err != nil {
		t.Fatalf("put a: %v", err)
	}
	if _, err := s.Put(ctx, docType, []byte(`"b1"`), PutOptions{Key: "plan-b"}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	a, err := s.GetLatestByKey(ctx, docType, "plan/a")
	if err != nil || string(a) != `"a1"` {
		t.Fatalf("a=%s err=%v", a, err)
	}
	latest, _ := s.GetLatest(ctx, docType)
	if string(latest) != `"b1"` {
		t.Fatalf("latest=%s", latest)
	}
	if _, err := s.GetLatestByKey(ctx, docType, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err=%v", err)
	}
	if _, err := s.GetLatestByKey(ctx, docType, ".."); err == nil {
		t.Fatalf("expected error for dot-dot key")
	}
}

func TestFileStoreFailedSwapKeepsPreviousLatest(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	docType := models.DocRecord

	if _, err := s.Put(ctx, docType, []byte(`"v1"`), PutOptions{Key: "p1"}); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	s.rename = func(oldpath, newpath string) error {
		if strings.HasSuffix(newpath, "_latest.json") {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}
	if _, err := s.Put(ctx, docType, []byte(`"v2"`), PutOptions{Key: "p1", At: time.Now().Add(time.Hour)}); err == nil {
		t.Fatalf("expected put error")
	}

	latest, err := s.GetLatest(ctx, docType)
	if err != nil || string(latest) != `"v1"` {
		t.Fatalf("latest=%s err=%v", latest, err)
	}
	keyed, err := s.GetLatestByKey(ctx, docType, "p1")
	if err != nil || string(keyed) != `"v1"` {
		t.Fatalf("keyed=%s err=%v", keyed, err)
	}
	list, _ := s.ListSnapshots(ctx, docType, 0)
	if len(list) != 1 {
		t.Fatalf("snapshots=%d want=1", len(list))
	}
	entries, _ := os.ReadDir(filepath.Join(s.Root(), string(docType), "latest"))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStoreSnapshotIDValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	cases := []string{"", "../etc/passwd", "execution_prep_20260101_000000", "order_plan/x"}
	for _, id := range cases {
		if _, err := s.GetSnapshot(ctx, models.DocOrderPlan, id); err == nil || errors.Is(err, ErrNotFound) {
			t.Fatalf("id=%q err=%v want validation error", id, err)
		}
	}
}

func TestFileStorePurge(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFileStore(t.TempDir())
	if _, err := s.Put(ctx, models.DocDryRun, []byte(`{}`), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Purge(ctx, models.DocDryRun); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := s.GetLatest(ctx, models.DocDryRun); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after purge err=%v", err)
	}
	list, err := s.ListSnapshots(ctx, models.DocDryRun, 10)
	if err != nil || len(list) != 0 {
		t.Fatalf("list=%v err=%v", list, err)
	}
}
