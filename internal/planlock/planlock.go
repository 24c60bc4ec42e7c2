// Package planlock serializes record submissions per plan id.
package planlock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"manualexec/internal/config"
)

var ErrTimeout = errors.New("plan lock wait timed out")

// Locker hands out an exclusive section for one plan id. The returned
// unlock func is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, planID string) (unlock func(), err error)
}

// New builds the locker named by cfg.Driver. "redis" still takes the local
// lock first so goroutines in one process queue without polling redis.
func New(cfg config.LockConfig, client *redis.Client) (Locker, error) {
	local := NewLocal(cfg.Wait)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "local":
		return local, nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("lock driver redis needs redis.addr")
		}
		return Chain{local, NewRedis(client, cfg)}, nil
	default:
		return nil, fmt.Errorf("unknown lock driver %s", cfg.Driver)
	}
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process keyed mutex with a bounded wait.
type Local struct {
	wait time.Duration

	mu   sync.Mutex
	held map[string]*localEntry
}

func NewLocal(wait time.Duration) *Local {
	return &Local{wait: wait, held: map[string]*localEntry{}}
}

func (l *Local) Lock(ctx context.Context, planID string) (func(), error) {
	l.mu.Lock()
	e := l.held[planID]
	if e == nil {
		e = &localEntry{sem: make(chan struct{}, 1)}
		l.held[planID] = e
	}
	e.refs++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		t := time.NewTimer(l.wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				l.release(planID, e)
			})
		}, nil
	case <-timeout:
		l.release(planID, e)
		return nil, ErrTimeout
	case <-ctx.Done():
		l.release(planID, e)
		return nil, ctx.Err()
	}
}

func (l *Local) release(planID string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.held, planID)
	}
}

// releaseScript deletes the lease only while it still carries our token, so
// an expired lease taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis holds a SET NX PX lease per plan id. The TTL bounds how long a
// crashed holder can block others.
type Redis struct {
	Client   *redis.Client
	Prefix   string
	TTL      time.Duration
	Wait     time.Duration
	RetryGap time.Duration
}

func NewRedis(client *redis.Client, cfg config.LockConfig) *Redis {
	r := &Redis{
		Client:   client,
		Prefix:   cfg.Prefix,
		TTL:      cfg.TTL,
		Wait:     cfg.Wait,
		RetryGap: cfg.RetryGap,
	}
	if r.TTL <= 0 {
		r.TTL = 30 * time.Second
	}
	if r.RetryGap <= 0 {
		r.RetryGap = 50 * time.Millisecond
	}
	return r
}

func (r *Redis) Lock(ctx context.Context, planID string) (func(), error) {
	key := r.Prefix + planID
	token := uuid.NewString()
	var deadline time.Time
	if r.Wait > 0 {
		deadline = time.Now().Add(r.Wait)
	}
	for {
		ok, err := r.Client.SetNX(ctx, key, token, r.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
					defer cancel()
					_ = releaseScript.Run(ctx, r.Client, []string{key}, token).Err()
				})
			}, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.RetryGap):
		}
	}
}

// Chain takes every locker in order and releases in reverse.
type Chain []Locker

func (c Chain) Lock(ctx context.Context, planID string) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, l := range c {
		u, err := l.Lock(ctx, planID)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, u)
	}
	return release, nil
}
