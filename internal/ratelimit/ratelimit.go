// Package ratelimit implements per-user fixed-window rate limiting on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts actions per user inside a fixed time window. The counter
// lives in Redis so limits hold across restarts and replicas.
type Limiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

// NewLimiter returns a Limiter that allows limit actions per window. The
// prefix keeps independent limiters apart in the same Redis keyspace.
func NewLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{Redis: rdb, Prefix: prefix, Limit: limit, Window: window}
}

// Allow records one action for userID and reports whether it is within the
// limit. When Redis is unreachable the action is allowed, rate limiting
// degrades rather than blocking users.
func (l *Limiter) Allow(ctx context.Context, userID int64) bool {
	key := fmt.Sprintf("%s:%d", l.Prefix, userID)

	count, err := l.Redis.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("WARN: Rate limiter unavailable for user %d: %v", userID, err)
		return true
	}
	if count == 1 {
		if err := l.Redis.Expire(ctx, key, l.Window).Err(); err != nil {
			log.Printf("WARN: Failed to set rate limit window for user %d: %v", userID, err)
		}
	}
	return count <= int64(l.Limit)
}

// Reset clears the current window for userID.
func (l *Limiter) Reset(ctx context.Context, userID int64) error {
	return l.Redis.Del(ctx, fmt.Sprintf("%s:%d", l.Prefix, userID)).Err()
}
