package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/api/response"
	"github.com/baechuer/real-time-ressys/services/activity-bff/internal/session"
)

// Sliding window over a sorted set: drop entries older than the window,
// admit the request when the remaining count is below the limit.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

if redis.call('ZCARD', key) < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, ttl)
	return 1
end

return 0
`)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	KeyFn  func(r *http.Request) string
}

// RedisRateLimiter is shared by all BFF replicas.
type RedisRateLimiter struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		prefix: "rl:activity-bff:",
	}
}

// Middleware enforces cfg. Redis errors fail open.
func (l *RedisRateLimiter) Middleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := l.Allow(r.Context(), cfg.KeyFn(r), cfg.Limit, cfg.Window)
			if err != nil || allowed {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			response.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil, GetRequestID(r.Context()))
		})
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	windowStart := now - window.Milliseconds()

	res, err := slidingWindowScript.Run(ctx, l.rdb, []string{l.prefix + key},
		now, windowStart, limit, window.Milliseconds(), uuid.NewString()).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// RateLimit picks the Redis limiter when a client is available and falls back
// to an in-process httprate limiter otherwise.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	if rdb != nil {
		return NewRedisRateLimiter(rdb).Middleware(RateLimitConfig{
			Limit:  limit,
			Window: window,
			KeyFn:  KeyByUser,
		})
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return KeyByUser(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil, GetRequestID(r.Context()))
		}),
	)
}

func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// KeyByUser keys signed-in callers by user id and everyone else by IP.
func KeyByUser(r *http.Request) string {
	if uid, ok := session.FromContext(r.Context()).UserID(); ok {
		return "user:" + strconv.FormatInt(uid, 10)
	}
	return KeyByIP(r)
}
