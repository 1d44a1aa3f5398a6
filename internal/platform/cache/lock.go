package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ContestLocker serializes contest generation per user. The application-level
// active-contest check is a read-then-write and would race under concurrent
// generate calls from the same user; the lock closes that window.
type ContestLocker interface {
	// TryLock returns true when the lock was acquired.
	TryLock(ctx context.Context, userID string) (bool, error)
	Unlock(ctx context.Context, userID string) error
}

type redisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) ContestLocker {
	return &redisLocker{rdb: rdb, ttl: ttl}
}

func lockKey(userID string) string {
	return "contest_generate_lock:" + userID
}

func (l *redisLocker) TryLock(ctx context.Context, userID string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, lockKey(userID), "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redisLocker.TryLock: %w", err)
	}
	return ok, nil
}

func (l *redisLocker) Unlock(ctx context.Context, userID string) error {
	if err := l.rdb.Del(ctx, lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("redisLocker.Unlock: %w", err)
	}
	return nil
}

type localLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker is an in-process ContestLocker for tests and single-node
// deployments without Redis.
func NewLocalLocker() ContestLocker {
	return &localLocker{held: make(map[string]struct{})}
}

func (l *localLocker) TryLock(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[userID]; ok {
		return false, nil
	}
	l.held[userID] = struct{}{}
	return true, nil
}

func (l *localLocker) Unlock(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, userID)
	return nil
}
