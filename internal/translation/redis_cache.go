package translation

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tr:"

// RedisCache is a Redis-backed Cache for deployments running more than one
// process: a translation cached by one instance serves them all. Redis
// errors degrade to cache misses so the engine just falls through to the
// provider.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	ctx context.Context
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, ctx: context.Background()}
}

func (c *RedisCache) Get(key string) (string, bool) {
	val, err := c.rdb.Get(c.ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		log.Printf("WARN: Redis cache get failed: %v", err)
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(key, value string) {
	if err := c.rdb.Set(c.ctx, redisKeyPrefix+key, value, c.ttl).Err(); err != nil {
		log.Printf("WARN: Redis cache set failed: %v", err)
	}
}

// Clear drops every cached translation. Administrative use only.
func (c *RedisCache) Clear() (int64, error) {
	var deleted int64
	iter := c.rdb.Scan(c.ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(c.ctx) {
		if err := c.rdb.Del(c.ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}
