// Package lock provides single-flight run guards. An ingestion pass for a
// given source must not start while a previous pass for the same source is
// still in progress; the guard enforces that either process-locally or, when
// several instances share the work, through Redis.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/vouchly/voucher_ledger/internal/apperrors"
)

// ReleaseFunc releases a held guard. Safe to call once.
type ReleaseFunc func(ctx context.Context)

// RunGuard serialises runs keyed by name.
type RunGuard interface {
	// Acquire takes the guard for key, or returns apperrors.ErrBusy when a
	// run holding that key is already in flight. ttl bounds how long a
	// crashed holder can block others.
	Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// LocalGuard is the in-process guard used when no Redis is configured.
type LocalGuard struct {
	mu    sync.Mutex
	inUse map[string]localHold
	last  uint64
	nowFn func() time.Time
}

// localHold is one acquisition. The token ties a release back to the
// acquisition that created it: a holder that outlived its ttl must not free
// the guard a later holder has since reclaimed.
type localHold struct {
	until time.Time
	token uint64
}

// NewLocalGuard creates a process-local run guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{inUse: make(map[string]localHold), nowFn: time.Now}
}

func (g *LocalGuard) Acquire(_ context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if hold, held := g.inUse[key]; held && g.nowFn().Before(hold.until) {
		return nil, apperrors.ErrBusy
	}
	g.last++
	token := g.last
	g.inUse[key] = localHold{until: g.nowFn().Add(ttl), token: token}

	var once sync.Once
	return func(context.Context) {
		once.Do(func() {
			g.mu.Lock()
			if hold, held := g.inUse[key]; held && hold.token == token {
				delete(g.inUse, key)
			}
			g.mu.Unlock()
		})
	}, nil
}

// RedisGuard serialises runs across instances with redislock.
type RedisGuard struct {
	locker *redislock.Client
}

// NewRedisGuard creates a Redis-backed run guard.
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{locker: redislock.New(client)}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	l, err := g.locker.Obtain(ctx, "run:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperrors.ErrBusy
	}
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func(ctx context.Context) {
		once.Do(func() { _ = l.Release(ctx) })
	}, nil
}
