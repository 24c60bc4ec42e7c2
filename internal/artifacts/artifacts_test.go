package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"manualexec/internal/config"
)

func TestFileStorePutGet(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := s.Put(ctx, "t-1/t-1.csv", []byte("ticker,side\n"), "text/csv")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "t-1/t-1.csv" || info.Size != 12 {
		t.Fatalf("info=%+v", info)
	}
	if _, err := s.Put(ctx, "t-1/t-1.csv", []byte("x"), "text/csv"); !errors.Is(err, ErrExists) {
		t.Fatalf("second put err=%v want ErrExists", err)
	}
	b, err := s.Get(ctx, "t-1/t-1.csv")
	if err != nil || string(b) != "ticker,side\n" {
		t.Fatalf("get=%q err=%v", b, err)
	}
	if _, err := s.Get(ctx, "nope.csv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err=%v", err)
	}
	if _, err := s.Put(ctx, "../escape.csv", []byte("x"), ""); err == nil {
		t.Fatalf("expected key validation error")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.ArtifactsConfig{Driver: "ftp"}); err == nil {
		t.Fatalf("expected error")
	}
	s, err := Open(context.Background(), config.ArtifactsConfig{Driver: "memory"})
	if err != nil || s.Driver() != "memory" {
		t.Fatalf("memory: %v", err)
	}
}

// fakeS3 is a path-style S3 subset: HEAD, PUT, GET.
type fakeS3 struct {
	mu    sync.Mutex
	state map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	empty := func(code int) *http.Response {
		return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}
	}
	switch req.Method {
	case http.MethodHead:
		if b, ok := f.state[key]; ok {
			resp := empty(http.StatusOK)
			resp.Header.Set("Content-Length", strconv.Itoa(len(b)))
			resp.Header.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
			return resp, nil
		}
		return empty(http.StatusNotFound), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeAWSChunked(body); ok {
			body = dec
		}
		f.state[key] = body
		resp := empty(http.StatusOK)
		resp.Header.Set("ETag", `"etag"`)
		return resp, nil
	case http.MethodGet:
		if b, ok := f.state[key]; ok {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(b)), Header: http.Header{
				"Content-Length": {strconv.Itoa(len(b))},
				"Last-Modified":  {time.Now().UTC().Format(http.TimeFormat)},
			}}, nil
		}
		return empty(http.StatusNotFound), nil
	}
	return empty(http.StatusNotImplemented), nil
}

// decodeAWSChunked unwraps a single-chunk "<hex>\r\n<payload>\r\n0\r\n..." body.
func decodeAWSChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	size, err := strconv.ParseInt(strings.SplitN(parts[0], ";", 2)[0], 16, 64)
	if err != nil || int64(len(parts[1])) != size || !strings.HasPrefix(parts[2], "0") {
		return nil, false
	}
	return []byte(parts[1]), true
}

func TestS3StoreMocked(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{state: map[string][]byte{}}
	s, err := newS3Store(ctx, config.S3Config{
		Bucket:          "tickets",
		Region:          "ap-northeast-2",
		Endpoint:        "https://mock.s3.local",
		Prefix:          "manual_execution_ticket/",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, &http.Client{Transport: fake})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := s.Put(ctx, "t-9.md", []byte("# Manual Execution Ticket"), "text/markdown")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if want := "s3://tickets/manual_execution_ticket/t-9.md"; info.Location != want {
		t.Fatalf("location=%s want=%s", info.Location, want)
	}
	if _, ok := fake.state["manual_execution_ticket/t-9.md"]; !ok {
		t.Fatalf("object not stored under prefix: %v", keys(fake.state))
	}
	if _, err := s.Put(ctx, "t-9.md", []byte("again"), ""); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate err=%v want ErrExists", err)
	}
	b, err := s.Get(ctx, "t-9.md")
	if err != nil || string(b) != "# Manual Execution Ticket" {
		t.Fatalf("get=%q err=%v", b, err)
	}
	if _, err := s.Get(ctx, "missing.md"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err=%v", err)
	}
}

func TestS3StoreNeedsBucket(t *testing.T) {
	if _, err := NewS3Store(context.Background(), config.S3Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func keys(m map[string][]byte) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return fmt.Sprint(out)
}
