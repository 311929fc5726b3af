package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateCache mirrors the latest snapshot per device into redis so a
// restart does not blank every entity until the next push.
type StateCache struct{ rdb *redis.Client }

func NewStateCache(rdb *redis.Client) *StateCache { return &StateCache{rdb: rdb} }

func snapshotKey(id string) string { return "zepp:snapshot:" + id }

func (c *StateCache) Set(ctx context.Context, id string, payload []byte) error {
	return c.rdb.Set(ctx, snapshotKey(id), payload, 24*time.Hour).Err()
}

func (c *StateCache) Get(ctx context.Context, id string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return b, err
}

func (c *StateCache) Delete(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, snapshotKey(id)).Err()
}
