package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/ksuid"
)

// slidingWindowScript keeps one sorted set per key scored by admission time
// in milliseconds. Evict, count and add run atomically inside Redis.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', '(' .. (now - window))
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisLimiter shares one sliding window per key across instances.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	limit  int
	now    func() time.Time
}

func NewRedisLimiter(client redis.Scripter, cfg Config) *RedisLimiter {
	cfg = cfg.withDefaults()
	return &RedisLimiter{
		client: client,
		prefix: "ratelimit:",
		limit:  cfg.RequestsPerMinute,
		now:    cfg.Now,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := rl.now().UnixMilli()
	admitted, err := slidingWindowScript.Run(ctx, rl.client,
		[]string{rl.prefix + key},
		now, Window.Milliseconds(), rl.limit, ksuid.New().String(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: redis window: %w", err)
	}
	return admitted == 1, nil
}
