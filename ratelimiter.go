package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/raiyanplanet/Wibloo/models"
)

// Token bucket evaluated atomically in redis. Returns 1 when the
// request may pass.
const tokenBucketScript = `
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local ts = tonumber(redis.call('HGET', KEYS[1], 'ts'))
local refill = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
if tokens == nil then
  tokens = capacity
  ts = now
end
tokens = math.min(capacity, tokens + (now - ts) * refill)
local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', KEYS[1], 3600)
return allowed
`

type RateLimiter struct {
	rules       map[string]models.Rule
	redisClient *redis.Client
}

func NewRateLimiter(config models.RateLimitingConfig, addr, pass string, poolSize int) (*RateLimiter, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: pass,
		PoolSize: poolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		zap.S().Errorf("rate limiter cannot reach redis: %v", err)
		return nil, err
	}
	return &RateLimiter{rules: config.Rules, redisClient: c}, nil
}

// AllowRequest applies the per-IP rule and, when the request carries an
// identity, the per-user rule.
func (rl *RateLimiter) AllowRequest(r *http.Request) (bool, error) {
	if rule, ok := rl.rules["ip"]; ok {
		allowed, err := rl.allow(r.Context(), "rl:ip:"+ipExtractor(r), rule)
		if err != nil || !allowed {
			return allowed, err
		}
	}
	if userId, ok := userIdFromCtx(r.Context()); ok {
		if rule, ok := rl.rules["user"]; ok {
			return rl.allow(r.Context(), "rl:user:"+userId, rule)
		}
	}
	return true, nil
}

func (rl *RateLimiter) allow(ctx context.Context, key string, rule models.Rule) (bool, error) {
	args := []interface{}{rule.RefillRate, rule.Limit, time.Now().Unix()}
	res, err := rl.redisClient.Eval(ctx, tokenBucketScript, []string{key}, args...).Result()
	if err != nil {
		// Fail open: a broken limiter should not take the API down.
		zap.S().Errorf("rate limiter redis error: %v", err)
		return true, err
	}
	if v, ok := res.(int64); ok {
		return v == 1, nil
	}
	return true, nil
}

func ipExtractor(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) close() {
	if err := rl.redisClient.Close(); err != nil {
		zap.S().Errorf("closing rate limiter: %v", err)
	}
}
