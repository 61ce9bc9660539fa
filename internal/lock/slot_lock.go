package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tuannda91/courtbook/config"
)

// SlotLockManager is the short-TTL mutual-exclusion entry protecting a slot
// while its payment is in flight. It is a latency fast-path; the booking
// overlap check in Postgres stays authoritative.
type SlotLockManager interface {
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, holder string) (bool, error)
	Extend(ctx context.Context, key, holder string, ttl time.Duration) (bool, error)
	Holder(ctx context.Context, key string) (string, error)
}

// compare-and-delete: release only if the current value is still ours.
// A plain GET+DEL could delete a lock re-acquired by another booking after
// our TTL lapsed.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// compare-and-extend with the same holder guard.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

type RedisSlotLock struct {
	client *redis.Client
}

func NewRedisSlotLock(cfg config.RedisConfig) *RedisSlotLock {
	return &RedisSlotLock{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

// Acquire fails closed: a store error reads as "not acquired".
func (l *RedisSlotLock) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, holder, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (l *RedisSlotLock) Release(ctx context.Context, key, holder string) (bool, error) {
	n, err := releaseScript.Run(ctx, l.client, []string{key}, holder).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *RedisSlotLock) Extend(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{key}, holder, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *RedisSlotLock) Holder(ctx context.Context, key string) (string, error) {
	holder, err := l.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return holder, nil
}

// SlotKey derives the lock key for one slot on one sub-court and date.
func SlotKey(subCourtID int64, date, start, end string) string {
	return fmt.Sprintf("slotlock:%d:%s:%s-%s", subCourtID, date, start, end)
}

var _ SlotLockManager = (*RedisSlotLock)(nil)
