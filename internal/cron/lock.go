package cron

import (
	"context"
	"time"

	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
)

const (
	lockName       = "cron-runner"
	defaultLockTTL = 30 * time.Minute
)

// Lock keeps concurrent worker replicas from running the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

type redisLock struct {
	store lockStore
	name  string
	ttl   time.Duration
}

// NewRedisLock builds a best-effort distributed lock on the shared Redis.
func NewRedisLock(store lockStore, ttl time.Duration) (Lock, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "redis client required for cron lock")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &redisLock{store: store, name: lockName, ttl: ttl}, nil
}

func (l *redisLock) Acquire(ctx context.Context) (bool, error) {
	return l.store.AcquireLock(ctx, l.name, l.ttl)
}

func (l *redisLock) Release(ctx context.Context) error {
	return l.store.ReleaseLock(ctx, l.name)
}
