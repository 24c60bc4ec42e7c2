package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"manualexec/internal/auth"
	"manualexec/internal/cli/output"
)

type captured struct {
	mu    sync.Mutex
	calls []*http.Request
	body  map[string]any
}

func (c *captured) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newServer(t *testing.T, status int, resp string) (*httptest.Server, *captured) {
	t.Helper()
	rec := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.calls = append(rec.calls, r)
		if len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func testContext(base string) (Context, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return Context{APIBase: base, Token: "t0k", Output: output.FormatJSON, Out: &out, Err: &errOut}, &out, &errOut
}

func TestMutatingCommandsNeedConfirmFlag(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"code":0,"message":"ok"}`)
	ctx, _, _ := testContext(srv.URL)
	cmds := [][]string{
		{"export", "regenerate"},
		{"ticket", "regenerate"},
		{"dry-run", "run"},
		{"ops", "regenerate"},
		{"prepare", "--confirm-token", "abc"},
		{"settings", "set", "policy.dry_run", "allow"},
	}
	for _, args := range cmds {
		err := Dispatch(ctx, args)
		if err == nil || !strings.Contains(err.Error(), "--confirm") {
			t.Fatalf("%v err=%v", args, err)
		}
	}
	if rec.count() != 0 {
		t.Fatalf("server called %d times", rec.count())
	}
}

func TestExportRegenerateSendsConfirm(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"code":0,"message":"ok","data":{"id":"order_plan_export_1","decision":"READY"}}`)
	ctx, out, _ := testContext(srv.URL)
	if err := Dispatch(ctx, []string{"export", "regenerate", "--confirm"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	req := rec.calls[0]
	if req.Method != http.MethodPost || req.URL.Path != "/api/manual_loop/export/regenerate" || req.URL.Query().Get("confirm") != "true" {
		t.Fatalf("request=%s %s", req.Method, req.URL.String())
	}
	if req.Header.Get("Authorization") != "Bearer t0k" {
		t.Fatalf("auth header=%q", req.Header.Get("Authorization"))
	}
	if !strings.Contains(out.String(), `"decision": "READY"`) {
		t.Fatalf("output=%s", out.String())
	}
}

func TestRecordSubmitFillsKeyAndToken(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"code":0,"message":"ok","data":{"record_version":1},"meta":{"result":"SUBMITTED"}}`)
	ctx, _, errOut := testContext(srv.URL)
	path := filepath.Join(t.TempDir(), "record.json")
	payload := `{"source":{"plan_id":"plan_a"},"items":[{"ticker":"005930","side":"BUY","status":"EXECUTED","executed_qty":"10"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("MX_CONFIRM_TOKEN", "secret-token")
	if err := Dispatch(ctx, []string{"record", "submit", "--file", path, "--confirm"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rec.body["confirm_token"] != "secret-token" {
		t.Fatalf("confirm_token=%v", rec.body["confirm_token"])
	}
	dedupe, _ := rec.body["dedupe"].(map[string]any)
	if key, _ := dedupe["idempotency_key"].(string); key == "" {
		t.Fatalf("idempotency key not generated: %v", rec.body["dedupe"])
	}
	if !strings.Contains(errOut.String(), "result: SUBMITTED") {
		t.Fatalf("stderr=%s", errOut.String())
	}
}

func TestRefusalPrintsDecision(t *testing.T) {
	srv, _ := newServer(t, http.StatusConflict, `{"code":409,"message":"LINKAGE_MISMATCH","data":{"decision":"BLOCKED","reason":"LINKAGE_MISMATCH","reason_detail":"plan_b is not the ticket plan"}}`)
	ctx, out, _ := testContext(srv.URL)
	path := filepath.Join(t.TempDir(), "record.json")
	if err := os.WriteFile(path, []byte(`{"dedupe":{"idempotency_key":"k1"}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := Dispatch(ctx, []string{"record", "submit", "--file", path, "--confirm-token", "x", "--confirm"})
	if err == nil || !strings.Contains(err.Error(), "LINKAGE_MISMATCH") {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(out.String(), `"decision": "BLOCKED"`) {
		t.Fatalf("output=%s", out.String())
	}
}

func TestTokenIssue(t *testing.T) {
	ctx, out, _ := testContext("http://localhost:1")
	t.Setenv("MX_AUTH_SECRET", "shh")
	if err := Dispatch(ctx, []string{"token", "issue", "--subject", "kim"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	var resp tokenResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.JWT{Secret: []byte("shh")}.Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "kim" || claims.Role != "operator" {
		t.Fatalf("claims subject=%s role=%s", claims.Subject, claims.Role)
	}
}

func TestStreamURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":     "ws://localhost:8080/api/manual_loop/ops/summary/stream",
		"https://ops.example.com/":  "wss://ops.example.com/api/manual_loop/ops/summary/stream",
		"https://gw.example.com/mx": "wss://gw.example.com/mx/api/manual_loop/ops/summary/stream",
	}
	for in, want := range cases {
		got, err := streamURL(in)
		if err != nil || got != want {
			t.Fatalf("streamURL(%s)=%s err=%v want=%s", in, got, err, want)
		}
	}
	if _, err := streamURL("ftp://x"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"stage": "NEED_TICKET", "plan_id": "plan_a", "risks": []string{"NEED_TICKET"}, "ticket": nil}
	if err := output.Write(&buf, output.FormatText, v); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "plan_id: plan_a\nrisks: [\"NEED_TICKET\"]\nstage: NEED_TICKET\nticket: -\n"
	if buf.String() != want {
		t.Fatalf("text=%q want=%q", buf.String(), want)
	}
}
