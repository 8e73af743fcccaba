package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key pattern:
// - ratelimit:{address}:votes - fixed window of VoteWindow

type RateLimitConfig struct {
	VoteLimit  int           // Max vote submissions per window
	VoteWindow time.Duration // Vote rate limit window
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		VoteLimit:  20,
		VoteWindow: time.Minute,
	}
}

type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	if config.VoteLimit <= 0 || config.VoteWindow <= 0 {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		client: client,
		config: config,
	}
}

func voteLimitKey(address string) string {
	return fmt.Sprintf("ratelimit:%s:votes", address)
}

// AllowVote counts one vote submission from address.
func (r *RateLimiter) AllowVote(ctx context.Context, address string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, voteLimitKey(address), r.config.VoteLimit, r.config.VoteWindow)
}

// ResetVotes clears the vote counter of address (admin operation).
func (r *RateLimiter) ResetVotes(ctx context.Context, address string) error {
	return r.client.Del(ctx, voteLimitKey(address)).Err()
}

// The window starts with the first hit; the counter keeps growing past the
// limit so a flood does not reset it.
var fixedWindowScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = redis.call('INCR', key)
	if current == 1 then
		redis.call('PEXPIRE', key, window)
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		redis.call('PEXPIRE', key, window)
		ttl = window
	end

	if current > limit then
		return {0, 0, ttl}
	end
	return {1, limit - current, ttl}
`)

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	result, err := fixedWindowScript.Run(ctx, r.client, []string{key}, limit, window.Milliseconds()).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}
	allowed, ok1 := resultSlice[0].(int64)
	remaining, ok2 := resultSlice[1].(int64)
	ttl, ok3 := resultSlice[2].(int64)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Millisecond,
		Limit:     limit,
	}, nil
}
