package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

const redisKeyPrefix = "jobsite:ratelimit:"

// RedisLimiter shares fixed-window counters across API replicas. When Redis
// is unreachable it degrades to the fallback limiter.
type RedisLimiter struct {
	client   redis.Scripter
	script   *redis.Script
	fallback Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

func NewRedisLimiter(client redis.Scripter, fallback Limiter, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:   client,
		script:   redis.NewScript(rateLimitScript),
		fallback: fallback,
		timeout:  250 * time.Millisecond,
		logger:   logger,
	}
}

func (l *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{redisKeyPrefix + key}, ttl, limit).Int64()
	if err != nil {
		l.logger.Warn("redis rate limit failed", slog.String("key", key), slog.String("error", err.Error()))
		if l.fallback != nil {
			return l.fallback.Allow(key, limit, window)
		}
		return true
	}
	return allowed == 1
}
