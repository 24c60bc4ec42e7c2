package cronrunner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunner_RunsAndSurvivesFailures(t *testing.T) {
	r := New(nil, context.Background())
	var ok, failed, panicked int32
	if _, err := r.Add("ok", "@every 1s", func(context.Context) error { atomic.AddInt32(&ok, 1); return nil }); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.Add("fail", "@every 1s", func(context.Context) error { atomic.AddInt32(&failed, 1); return errors.New("boom") }); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.Add("panic", "@every 1s", func(context.Context) error { atomic.AddInt32(&panicked, 1); panic("boom") }); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Start()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && (atomic.LoadInt32(&ok) < 2 || atomic.LoadInt32(&panicked) < 2) {
		time.Sleep(50 * time.Millisecond)
	}
	r.Stop()
	if atomic.LoadInt32(&ok) < 2 || atomic.LoadInt32(&failed) < 1 || atomic.LoadInt32(&panicked) < 2 {
		t.Fatalf("ok=%d failed=%d panicked=%d", ok, failed, panicked)
	}
}

func TestRunner_RejectsBadSpec(t *testing.T) {
	r := New(nil, nil)
	if _, err := r.Add("empty", " ", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("empty spec should fail")
	}
	if _, err := r.Add("bad", "every minute", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("bad spec should fail")
	}
}
