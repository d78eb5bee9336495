package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
)

// RateLimiter counts attempts per scope and subject inside a fixed window.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// fixedWindowScript counts a hit and returns the count with the window's remaining milliseconds.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local remaining = redis.call("PTTL", KEYS[1])
if remaining < 0 then
  remaining = tonumber(ARGV[1])
end
return {count, remaining}
`)

// minWindow is the shortest window the limiter accepts.
const minWindow = time.Second

// RedisRateLimiter counts submissions in fixed windows shared by every instance.
type RedisRateLimiter struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRateLimiter(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "registry"
	}
	return &RedisRateLimiter{client: client, prefix: prefix + ":rate_limit"}
}

func (r *RedisRateLimiter) key(scope, subject string) string {
	return r.prefix + ":" + scope + ":" + subject
}

// ConsumeRateLimit records one attempt. A blank scope or subject, or a non-positive
// limit, is never limited.
func (r *RedisRateLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	scope, subject = strings.TrimSpace(scope), strings.TrimSpace(subject)
	if r == nil || r.client == nil || limit <= 0 || window <= 0 || scope == "" || subject == "" {
		return 0, 0, nil
	}
	if window < minWindow {
		window = minWindow
	}

	windowMs := window.Milliseconds()
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{r.key(scope, subject)}, windowMs).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("run rate limit script: %w", err)
	}
	return parseLimiterResult(raw, windowMs)
}

// parseLimiterResult turns the script reply into a count and a retry-after in whole seconds.
func parseLimiterResult(raw interface{}, windowMs int64) (int, int, error) {
	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %T", raw)
	}
	count, ok := reply[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected rate limit count: %T", reply[0])
	}
	remainingMs, ok := reply[1].(int64)
	if !ok {
		return int(count), 0, fmt.Errorf("unexpected rate limit ttl: %T", reply[1])
	}
	if remainingMs < 0 {
		remainingMs = windowMs
	}

	retryAfter := int(math.Ceil(float64(remainingMs) / float64(time.Second/time.Millisecond)))
	return int(count), max(retryAfter, 1), nil
}

// consumeRateLimit enforces limit per minute for subject. Limiter failures fail open.
func consumeRateLimit(ctx context.Context, limiter RateLimiter, scope, subject string, limit int, logger logging.Logger) error {
	if limiter == nil || limit <= 0 {
		return nil
	}
	count, retryAfter, err := limiter.ConsumeRateLimit(ctx, scope, subject, limit, time.Minute)
	if err != nil {
		logger.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable; allowing request")
		return nil
	}
	if count > limit {
		return domain.RateLimitedErr(fmt.Sprintf("too many submissions, please try again in %d seconds", retryAfter))
	}
	return nil
}
