// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/internal/platform/clock"
	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

// redisWindowScript evicts expired members, then admits when the set has room.
// Reply: {allowed, count, oldest_ms}.
var redisWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", "(" .. (now - window))
local count = redis.call("ZCARD", key)
if count >= limit then
  local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
  local oldestScore = 0
  if oldest[2] then
    oldestScore = tonumber(oldest[2])
  end
  return {0, count, oldestScore}
end

redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return {1, count + 1, 0}
`)

// RedisWindow is a sliding window stored in a Redis sorted set per key.
type RedisWindow struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
	clock  clock.Clock
}

// NewRedisWindow creates a limiter whose keys are "<prefix><policy>:<key>".
func NewRedisWindow(client redis.Scripter, prefix, policy string, limit int, window time.Duration, clk clock.Clock) *RedisWindow {
	if clk == nil {
		clk = clock.System{}
	}
	return &RedisWindow{
		client: client,
		prefix: strings.TrimSpace(prefix) + policy + ":",
		limit:  limit,
		window: window,
		clock:  clk,
	}
}

// Limit implements [Limiter].
func (w *RedisWindow) Limit() int {
	return w.limit
}

// Allow implements [Limiter].
func (w *RedisWindow) Allow(ctx context.Context, key string) (Decision, error) {
	now := w.clock.Now()
	nowMillis := now.UnixMilli()

	reply, err := redisWindowScript.Run(ctx, w.client, []string{w.prefix + key},
		nowMillis,
		w.window.Milliseconds(),
		w.limit,
		strconv.FormatInt(nowMillis, 10)+"-"+uuid.New(),
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis window: %w", err)
	}

	allowed, count, oldest, err := parseWindowReply(reply)
	if err != nil {
		return Decision{}, err
	}

	decision := Decision{Allowed: allowed, Limit: w.limit}
	if allowed {
		decision.Remaining = max(w.limit-int(count), 0)
		return decision, nil
	}

	if oldest > 0 {
		wait := time.UnixMilli(oldest).Add(w.window).Sub(now)
		if wait > 0 {
			decision.RetryAfter = wait
		}
	}
	return decision, nil
}

// parseWindowReply decodes the {allowed, count, oldest_ms} script reply.
func parseWindowReply(reply any) (allowed bool, count int64, oldest int64, err error) {
	values, ok := reply.([]any)
	if !ok || len(values) != 3 {
		return false, 0, 0, errors.New("ratelimit: unexpected redis reply")
	}

	numbers := make([]int64, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case int64:
			numbers[i] = typed
		case int:
			numbers[i] = int64(typed)
		case string:
			parsed, parseErr := strconv.ParseInt(typed, 10, 64)
			if parseErr != nil {
				return false, 0, 0, fmt.Errorf("ratelimit: unexpected redis reply: %w", parseErr)
			}
			numbers[i] = parsed
		default:
			return false, 0, 0, fmt.Errorf("ratelimit: unexpected redis reply type %T", value)
		}
	}

	return numbers[0] == 1, numbers[1], numbers[2], nil
}
