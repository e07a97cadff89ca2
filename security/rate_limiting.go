package security

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"queue-system/internal/status"
)

// RateLimiter throttles public endpoints with per-key counters in Redis.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Allow increments the per-minute counter for key and rejects once it
// exceeds maxPerMinute. Redis being unreachable fails open: the queue must
// keep accepting registrations.
func (r *RateLimiter) Allow(ctx context.Context, key string, maxPerMinute int) error {
	if r.redis == nil || maxPerMinute <= 0 {
		return nil
	}

	counterKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := r.redis.Incr(ctx, counterKey).Result()
	if err != nil {
		return nil
	}
	if count == 1 {
		r.redis.Expire(ctx, counterKey, time.Minute)
	}
	if count > int64(maxPerMinute) {
		return status.ErrRateLimited
	}

	return nil
}
