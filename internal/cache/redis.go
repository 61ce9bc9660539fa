package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tuannda91/courtbook/config"
	"github.com/tuannda91/courtbook/internal/domain"
)

// RedisCache holds short-lived day-grid projections so repeated availability
// requests for the same court/date skip the Postgres round trips. Slot locks
// live in their own keyspace and are never touched here.
type RedisCache struct {
	client  *redis.Client
	gridTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, gridTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		gridTTL: gridTTL,
	}
}

func (c *RedisCache) GetGrid(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error) {
	data, err := c.client.Get(ctx, gridKey(subCourtID, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var slots []domain.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

func (c *RedisCache) SetGrid(ctx context.Context, subCourtID int64, date string, slots []domain.Slot) error {
	payload, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, gridKey(subCourtID, date), payload, c.gridTTL).Err()
}

// InvalidateGrid drops the cached grid after a booking mutates availability.
func (c *RedisCache) InvalidateGrid(ctx context.Context, subCourtID int64, date string) error {
	return c.client.Del(ctx, gridKey(subCourtID, date)).Err()
}

func gridKey(subCourtID int64, date string) string {
	return fmt.Sprintf("cache:grid:%d:%s", subCourtID, date)
}
