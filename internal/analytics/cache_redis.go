package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotCache memoizes computed snapshots. Implementations are best-effort:
// a miss or an error always falls back to recomputation, never to staleness.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error
}

const cacheKeyPrefix = "analytics:snapshot:"

// RedisSnapshotCache stores JSON-encoded snapshots with a TTL. There is no
// invalidation path on purpose: snapshots are recomputable folds, so expiry
// plus recompute is always correct.
type RedisSnapshotCache struct {
	rdb *redis.Client
}

func NewRedisSnapshotCache(rdb *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{rdb: rdb}
}

func (c *RedisSnapshotCache) Get(ctx context.Context, key string) (Snapshot, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, key string, snap Snapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Minute
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKeyPrefix+key, raw, ttl).Err()
}
