package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimitError carries how long the caller should wait before retrying.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// RateLimiter is a fixed-window limiter backed by Redis counters.
// With a nil Redis client every Allow call succeeds, so the limiter
// degrades to a no-op in environments without Redis.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int
}

func New(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if window < time.Second {
		window = time.Minute
	}
	return &RateLimiter{
		client: client,
		window: window,
		limit:  limit,
	}
}

// Allow counts one hit for key and returns a RateLimitError when the
// window budget is exhausted.
func (r *RateLimiter) Allow(ctx context.Context, key string) error {
	if r == nil || r.client == nil {
		return nil
	}

	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/int64(r.window.Seconds()))

	count, err := r.client.Incr(ctx, bucket).Result()
	if err != nil {
		// Redis being down must not block writes
		return nil
	}

	if count == 1 {
		r.client.Expire(ctx, bucket, r.window)
	}

	if int(count) > r.limit {
		ttl, err := r.client.TTL(ctx, bucket).Result()
		if err != nil || ttl < 0 {
			ttl = r.window
		}
		return &RateLimitError{
			Message:    "too many requests, slow down",
			RetryAfter: ttl,
		}
	}

	return nil
}
