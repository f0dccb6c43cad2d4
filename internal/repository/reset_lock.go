package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetLock is a short-lived Redis claim on a reset token hash. It keeps two
// instances from hashing and writing the same token concurrently; the SQL
// conditional update remains the final arbiter.
type ResetLock struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResetLock returns nil when rdb is nil so callers can treat the lock as
// optional.
func NewResetLock(rdb *redis.Client, prefix string, ttl time.Duration) *ResetLock {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ResetLock{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (l *ResetLock) key(tokenHash string) string {
	return l.prefix + ":reset:" + tokenHash
}

// Acquire claims tokenHash. It reports false when another caller holds it.
func (l *ResetLock) Acquire(ctx context.Context, tokenHash string) (bool, error) {
	return l.rdb.SetNX(ctx, l.key(tokenHash), "1", l.ttl).Result()
}

// Release drops the claim.
func (l *ResetLock) Release(ctx context.Context, tokenHash string) error {
	return l.rdb.Del(ctx, l.key(tokenHash)).Err()
}
