package redis

import (
	"context"
	"fmt"
	"time"
)

const (
	rateLimitPrefix = "gemini:ratelimit:"
)

// RateLimiter is a fixed one-minute window counter for remote completion calls.
// Backing it with Redis lets several CLI processes on one machine share a quota.
type RateLimiter struct {
	client            *Client
	requestsPerMinute int
	burst             int
	now               func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client:            client,
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		now:               time.Now,
	}
}

// Allow checks if a request should be allowed based on rate limits
// Returns (allowed, remaining, resetTime, error)
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := r.now().Truncate(time.Minute)
	windowEnd := windowStart.Add(time.Minute)
	fullKey := fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, windowStart.Unix())

	count, err := r.client.rdb.Incr(ctx, fullKey).Result()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}
	if count == 1 {
		if err := r.client.rdb.Expire(ctx, fullKey, time.Minute).Err(); err != nil {
			return false, 0, time.Time{}, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	limit := int64(r.requestsPerMinute + r.burst)
	remaining := int(limit - count)
	if remaining < 0 {
		remaining = 0
	}

	return count <= limit, remaining, windowEnd, nil
}

// Reset resets the rate limit counter for a key in the current window
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	fullKey := fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, r.now().Truncate(time.Minute).Unix())
	return r.client.rdb.Del(ctx, fullKey).Err()
}
