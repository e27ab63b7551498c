// ratelimit — распределённый token bucket в Redis. Состояние корзины
// обновляется атомарно Lua-скриптом, поэтому лимит общий для всех реплик.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/go-shop-auth/internal/config"
)

// ErrUnexpectedReply — скрипт вернул ответ неожиданного формата.
var ErrUnexpectedReply = errors.New("unexpected limiter reply")

// Decision — результат проверки лимита.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// Limiter — token bucket поверх Redis.
type Limiter struct {
	rdb    redis.Scripter
	prefix string
	cfg    config.RateLimitConfig
	now    func() time.Time
}

// New создаёт Limiter. Ключи корзин: <prefix>rl:<key>.
func New(rdb redis.Scripter, prefix string, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Allow списывает один токен из корзины key.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	const op = "ratelimit.Limiter.Allow"

	ttl := int64(l.cfg.TTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}

	vals, err := bucketScript.Run(ctx, l.rdb, []string{l.prefix + "rl:" + key},
		l.now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		ttl,
	).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(vals) != 3 {
		return Decision{}, fmt.Errorf("%s: %w", op, ErrUnexpectedReply)
	}

	return Decision{
		Allowed:    asInt64(vals[0]) == 1,
		Limit:      l.cfg.Capacity,
		Remaining:  asInt64(vals[1]),
		RetryAfter: time.Duration(asInt64(vals[2])) * time.Millisecond,
	}, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
