// Package ratelimit provides per-client token bucket rate limiting with
// named policies. A local in-memory limiter serves single-instance
// deployments; a Redis-backed limiter keeps buckets consistent across
// replicas.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/raineandseaweb/raineandsea-sub003/pkg/metrics"
	pkgredis "github.com/raineandseaweb/raineandsea-sub003/pkg/redis"
)

// Policy names a rate limit bucket class. Requests under the same policy
// and client key share one bucket.
type Policy string

const (
	PolicyAPI      Policy = "api"
	PolicyAuth     Policy = "auth"
	PolicyCheckout Policy = "checkout"
)

// Limit describes a token bucket: sustained requests per minute plus a
// burst capacity. A zero or negative rate disables limiting.
type Limit struct {
	PerMinute int
	Burst     int
}

// Limiter decides whether a request identified by key may proceed under
// the given policy. Implementations fail open on infrastructure errors:
// an error return means the caller should allow the request.
type Limiter interface {
	Allow(ctx context.Context, policy Policy, key string) (bool, error)
}

type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastUpdate time.Time
}

// LocalLimiter is an in-memory token bucket limiter. Buckets are created
// lazily per (policy, key) pair and swept after a minute of inactivity.
type LocalLimiter struct {
	limits  map[Policy]Limit
	buckets sync.Map
	stop    chan struct{}
	now     func() time.Time
}

// NewLocalLimiter builds a local limiter with the given per-policy
// limits and starts its sweep goroutine. Call Stop when done.
func NewLocalLimiter(limits map[Policy]Limit) *LocalLimiter {
	l := &LocalLimiter{
		limits: limits,
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	go l.sweep()
	return l
}

func (l *LocalLimiter) Allow(_ context.Context, policy Policy, key string) (bool, error) {
	limit, ok := l.limits[policy]
	if !ok || limit.PerMinute <= 0 {
		return true, nil
	}

	now := l.now()
	entry, _ := l.buckets.LoadOrStore(string(policy)+":"+key, &bucket{
		tokens:     float64(limit.Burst),
		lastUpdate: now,
	})
	b := entry.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	refill := now.Sub(b.lastUpdate).Minutes() * float64(limit.PerMinute)
	b.tokens = min(float64(limit.Burst), b.tokens+refill)
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}

	metrics.RateLimitRejections.WithLabelValues(string(policy)).Inc()
	return false, nil
}

func (l *LocalLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := l.now().Add(-time.Minute)
			l.buckets.Range(func(key, value any) bool {
				b := value.(*bucket)
				b.mu.Lock()
				if b.lastUpdate.Before(cutoff) {
					l.buckets.Delete(key)
				}
				b.mu.Unlock()
				return true
			})
		case <-l.stop:
			return
		}
	}
}

// Stop terminates the sweep goroutine.
func (l *LocalLimiter) Stop() {
	close(l.stop)
}

// tokenBucketScript updates a bucket and answers the allow decision in a
// single atomic Redis call, so concurrent replicas never double-spend.
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

local elapsed = now - last_update
tokens = math.min(burst, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HMSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 120)
return allowed
`

// RedisLimiter is a distributed token bucket limiter backed by a Lua
// script, for deployments running more than one API instance.
type RedisLimiter struct {
	client *pkgredis.Client
	limits map[Policy]Limit
	prefix string
}

func NewRedisLimiter(client *pkgredis.Client, limits map[Policy]Limit) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limits: limits,
		prefix: "ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, policy Policy, key string) (bool, error) {
	limit, ok := l.limits[policy]
	if !ok || limit.PerMinute <= 0 {
		return true, nil
	}

	now := float64(time.Now().UnixNano()) / 1e9
	ratePerSecond := float64(limit.PerMinute) / 60.0

	result := l.client.Eval(ctx, tokenBucketScript,
		[]string{fmt.Sprintf("%s%s:%s", l.prefix, policy, key)},
		ratePerSecond,
		float64(limit.Burst),
		now,
	)
	if result.Err() != nil {
		return true, result.Err()
	}

	allowed, err := toInt64(result.Val())
	if err != nil {
		return true, err
	}

	if allowed != 1 {
		metrics.RateLimitRejections.WithLabelValues(string(policy)).Inc()
		return false, nil
	}
	return true, nil
}

func toInt64(v any) (int64, error) {
	switch value := v.(type) {
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case string:
		return strconv.ParseInt(value, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected script result type %T", v)
	}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
