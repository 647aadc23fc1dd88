package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivaaanrm/PaceUp/internal/logger"
	"github.com/ivaaanrm/PaceUp/internal/utils"
)

// Cache is a best-effort read-through cache over Redis. Every method degrades
// to a no-op when the backend is unreachable: a cache outage never surfaces
// as an API error.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeletePattern(ctx context.Context, pattern string) int
	Ping(ctx context.Context) error
	Stats(ctx context.Context) map[string]any
	Enabled() bool
}

type cache struct {
	log     *logger.Logger
	rdb     *goredis.Client
	enabled bool
}

func NewCache(log *logger.Logger) Cache {
	scoped := log.With("client", "RedisCache")
	host := utils.GetEnv("REDIS_HOST", "localhost", scoped)
	port := utils.GetEnv("REDIS_PORT", "6379", scoped)
	password := utils.GetEnv("REDIS_PASSWORD", "", scoped)
	db := utils.GetEnvAsInt("REDIS_DB", 0, scoped)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         fmt.Sprintf("%s:%s", host, port),
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		scoped.Warn("Redis unavailable, caching disabled", "error", err)
		return &cache{log: scoped, enabled: false}
	}

	scoped.Info("Redis cache connected", "addr", fmt.Sprintf("%s:%s", host, port), "db", db)
	return &cache{log: scoped, rdb: rdb, enabled: true}
}

func (c *cache) Enabled() bool { return c.enabled }

func (c *cache) Get(ctx context.Context, key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Cache get failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (c *cache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if !c.enabled {
		return
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn("Cache set failed", "key", key, "error", err)
	}
}

func (c *cache) Delete(ctx context.Context, key string) {
	if !c.enabled {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn("Cache delete failed", "key", key, "error", err)
	}
}

// DeletePattern removes all keys matching the glob pattern via SCAN and
// returns how many were deleted.
func (c *cache) DeletePattern(ctx context.Context, pattern string) int {
	if !c.enabled {
		return 0
	}
	var deleted int
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.Warn("Cache delete failed", "key", iter.Val(), "error", err)
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("Cache scan failed", "pattern", pattern, "error", err)
	}
	return deleted
}

func (c *cache) Ping(ctx context.Context) error {
	if !c.enabled {
		return fmt.Errorf("cache disabled")
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *cache) Stats(ctx context.Context) map[string]any {
	stats := map[string]any{"enabled": c.enabled}
	if !c.enabled {
		return stats
	}
	if size, err := c.rdb.DBSize(ctx).Result(); err == nil {
		stats["keys"] = size
	}
	if info, err := c.rdb.Info(ctx, "memory").Result(); err == nil {
		stats["memory_info"] = info
	}
	return stats
}
