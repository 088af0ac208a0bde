package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior.
// Keep it config-driven; defaults should be safe and conservative.
type RedisConfig struct {
	Addr string

	// Basic timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Pool tuning
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 20
	}
	if out.MinIdleConns < 0 {
		out.MinIdleConns = 0
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = 4 * time.Second
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = 5 * time.Minute
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 30 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

var lockReleaseScript = redis.NewScript(`
-- KEYS[1] = lock key
-- ARGV[1] = owner token
-- Delete only if we still own the lock.
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// LockerConfig tunes RedisLocker acquisition behavior.
type LockerConfig struct {
	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration

	// RetryInterval is the poll interval while the lock is held elsewhere.
	RetryInterval time.Duration

	// AcquireTimeout bounds the total wait for the lock.
	AcquireTimeout time.Duration
}

func (c LockerConfig) withDefaults() LockerConfig {
	out := c
	if out.TTL <= 0 {
		out.TTL = 10 * time.Second
	}
	if out.RetryInterval <= 0 {
		out.RetryInterval = 25 * time.Millisecond
	}
	if out.AcquireTimeout <= 0 {
		out.AcquireTimeout = 5 * time.Second
	}
	return out
}

// RedisLocker is a cross-process mutex keyed by caller-supplied strings,
// used to serialize per-org debits across API replicas.
//
// Safety properties:
// - SET NX with a per-holder token, so release cannot drop someone else's lock.
// - TTL prevents leaked locks on process crash.
type RedisLocker struct {
	rdb *redis.Client
	cfg LockerConfig
}

func NewRedisLocker(rdb *redis.Client, cfg LockerConfig) *RedisLocker {
	return &RedisLocker{rdb: rdb, cfg: cfg.withDefaults()}
}

// Acquire blocks until the lock is held, the acquire timeout elapses, or ctx
// is done. The returned release func is safe to call exactly once.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l.rdb == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}

	token := uuid.NewString()
	deadline := time.Now().Add(l.cfg.AcquireTimeout)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock acquire: %w", err)
		}
		if ok {
			release := func() {
				relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = lockReleaseScript.Run(relCtx, l.rdb, []string{key}, token).Result()
			}
			return release, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock acquire: timed out waiting for %s", key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.cfg.RetryInterval):
		}
	}
}
