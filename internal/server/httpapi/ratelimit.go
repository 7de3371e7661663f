package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts hits per key in fixed windows.
type RateLimiter interface {
	// Allow records a hit for key and reports whether it is within limit.
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
	Window() time.Duration
}

const fixedWindowScript = `
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local limit = tonumber(ARGV[2])
if current > limit then
	return {0, 0}
end
return {1, limit - current}
`

// RedisRateLimiter shares counters between instances. The first hit of a
// window sets the key expiry, so a window starts with its first request.
type RedisRateLimiter struct {
	client redis.UniversalClient
	script *redis.Script
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client redis.UniversalClient, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		limit:  limit,
		window: window,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	res, err := l.script.Run(ctx, l.client, []string{"gophauth:rate:" + key},
		l.window.Milliseconds(), l.limit).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	return res[0] == 1, int(res[1]), nil
}

func (l *RedisRateLimiter) Limit() int            { return l.limit }
func (l *RedisRateLimiter) Window() time.Duration { return l.window }

type bucket struct {
	start time.Time
	count int
}

// MemoryRateLimiter keeps counters in process memory.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewMemoryRateLimiter(limit int, w time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.start.Add(l.window)) {
		l.evict(now)
		b = &bucket{start: now}
		l.buckets[key] = b
	}

	b.count++
	if b.count > l.limit {
		return false, 0, nil
	}
	return true, l.limit - b.count, nil
}

// evict drops finished windows; called with mu held.
func (l *MemoryRateLimiter) evict(now time.Time) {
	for k, b := range l.buckets {
		if !now.Before(b.start.Add(l.window)) {
			delete(l.buckets, k)
		}
	}
}

func (l *MemoryRateLimiter) Limit() int            { return l.limit }
func (l *MemoryRateLimiter) Window() time.Duration { return l.window }

// rateLimit limits requests per client IP and route. Limiter errors let
// the request through.
func (h *Handler) rateLimit(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter == nil {
			c.Next()
			return
		}

		key := name + ":" + c.ClientIP()
		allowed, remaining, err := h.limiter.Allow(c.Request.Context(), key)
		if err != nil {
			h.logger.Warn(c.Request.Context(), "rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(h.limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			h.logger.Info(c.Request.Context(), "rate limited", "route", name, "ip", c.ClientIP())
			c.Header("Retry-After", strconv.Itoa(int(h.limiter.Window().Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
				"code":  "RATE_LIMITED",
			})
			return
		}

		c.Next()
	}
}
