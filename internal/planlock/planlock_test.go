package planlock

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"manualexec/internal/config"
)

func TestLocalSerializesSamePlan(t *testing.T) {
	l := NewLocal(5 * time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "plan-1")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("maxSeen=%d want=1", maxSeen)
	}
	if len(l.held) != 0 {
		t.Fatalf("held entries leaked: %d", len(l.held))
	}
}

func TestLocalDifferentPlansDoNotBlock(t *testing.T) {
	l := NewLocal(50 * time.Millisecond)
	ctx := context.Background()
	u1, err := l.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer u1()
	u2, err := l.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b: %v", err)
	}
	u2()
}

func TestLocalTimeout(t *testing.T) {
	l := NewLocal(20 * time.Millisecond)
	ctx := context.Background()
	unlock, err := l.Lock(ctx, "p")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := l.Lock(ctx, "p"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err=%v want ErrTimeout", err)
	}
	unlock()
	unlock()
	again, err := l.Lock(ctx, "p")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}

func TestLocalContextCancel(t *testing.T) {
	l := NewLocal(0)
	unlock, _ := l.Lock(context.Background(), "p")
	defer unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "p"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want deadline exceeded", err)
	}
}

func TestNewDrivers(t *testing.T) {
	if _, err := New(config.LockConfig{Driver: "local"}, nil); err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, err := New(config.LockConfig{Driver: "redis"}, nil); err == nil {
		t.Fatalf("redis without client should fail")
	}
	if _, err := New(config.LockConfig{Driver: "zk"}, nil); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}

// Runs only when a redis server is reachable.
func TestRedisLease(t *testing.T) {
	addr := os.Getenv("MX_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MX_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	r := NewRedis(client, config.LockConfig{Prefix: "manualexec:test:", TTL: time.Second, Wait: 30 * time.Millisecond})
	ctx := context.Background()
	unlock, err := r.Lock(ctx, "plan-r")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := r.Lock(ctx, "plan-r"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("second lock err=%v want ErrTimeout", err)
	}
	unlock()
	again, err := r.Lock(ctx, "plan-r")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}
