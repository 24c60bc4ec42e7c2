package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"manualexec/internal/config"
)

func TestFileSink_AppendsAndKeepsNewest(t *testing.T) {
	s := NewFileSink(filepath.Join(t.TempDir(), "nested", "audit.jsonl"))
	for _, a := range []string{"a", "b", "c"} {
		if err := s.Write(context.Background(), Entry{ID: a, Action: a}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "c" {
		t.Fatalf("got=%+v", got)
	}
}

func TestFileSink_MissingFileIsEmpty(t *testing.T) {
	got, err := NewFileSink(filepath.Join(t.TempDir(), "none.jsonl")).Recent(10)
	if err != nil || len(got) != 0 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

type captureSink struct {
	mu      sync.Mutex
	entries []Entry
}

func (c *captureSink) Write(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
	return nil
}

func TestMiddleware_RecordsWritesOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sink := &captureSink{}
	r := gin.New()
	r.Use(Middleware(sink, "", nil))
	r.GET("/api/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/x", func(c *gin.Context) {
		c.Set(DecisionKey, "READY")
		c.Status(http.StatusConflict)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/x?confirm=true", strings.NewReader(`{"confirm_token":"abc"}`)))

	if len(sink.entries) != 1 {
		t.Fatalf("entries=%d want=1", len(sink.entries))
	}
	e := sink.entries[0]
	if e.Agent != "manualexec" || e.Level != "warn" || e.Details["decision"] != "READY" || e.Details["confirm"] != true {
		t.Fatalf("entry=%+v", e)
	}
	raw, _ := json.Marshal(e)
	if strings.Contains(string(raw), "abc") {
		t.Fatalf("entry leaks request body: %s", raw)
	}
}

func TestPaaSSink_LoginAndWrite(t *testing.T) {
	var got createLogRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			_, _ = io.WriteString(w, `{"token":"tok-1","expires_at":"2099-01-01T00:00:00Z"}`)
		case "/api/v1/logs":
			auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	sink, err := Open(context.Background(), config.AuditConfig{Sink: "paas", PaaSBase: srv.URL + "/", PaaSKey: "k"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := sink.Write(context.Background(), Entry{ID: "e1", Agent: "manualexec", Action: "manualexec_http_write", Level: "info"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if auth != "Bearer tok-1" || got.Action != "manualexec_http_write" || got.Metadata["entry_id"] != "e1" {
		t.Fatalf("auth=%q got=%+v", auth, got)
	}
}

func TestOpen_UnknownSink(t *testing.T) {
	if _, err := Open(context.Background(), config.AuditConfig{Sink: "kafka"}); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}
