package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"moove/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures RateLimitMiddleware.
type RateLimiterConfig struct {
	Limit     int    // requests per second
	Burst     int    // defaults to Limit
	KeyPrefix string // redis key prefix
	// IdleTTL drops fallback limiters of clients not seen for this long.
	IdleTTL time.Duration
}

var rateLimitRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moove_ratelimit_rejected_total",
	Help: "Requests rejected by the rate limiter, by backend.",
}, []string{"backend"})

// bucketScript keeps one hash per client: {tokens, ts}. Redis truncates Lua
// numbers to integers, so the script returns whole tokens and milliseconds.
// KEYS[1]=bucket ARGV: rate, capacity, now (seconds, fractional)
// Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
    redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(now))
    redis.call("PEXPIRE", key, math.ceil(capacity / rate * 2000))
else
    retry_ms = math.ceil((1 - tokens) / rate * 1000)
end

return { allowed, math.floor(tokens), retry_ms }
`)

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// fallbackLimiters are the in-process buckets used while Redis is down. Idle
// clients are swept on access, at most once per idleTTL.
type fallbackLimiters struct {
	mu        sync.Mutex
	clients   map[string]*fallbackEntry
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
}

func newFallbackLimiters(limit rate.Limit, burst int, idleTTL time.Duration) *fallbackLimiters {
	return &fallbackLimiters{
		clients:   make(map[string]*fallbackEntry),
		limit:     limit,
		burst:     burst,
		idleTTL:   idleTTL,
		lastSweep: time.Now(),
	}
}

func (f *fallbackLimiters) get(client string, now time.Time) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if now.Sub(f.lastSweep) > f.idleTTL {
		for k, e := range f.clients {
			if now.Sub(e.lastSeen) > f.idleTTL {
				delete(f.clients, k)
			}
		}
		f.lastSweep = now
	}

	e, ok := f.clients[client]
	if !ok {
		e = &fallbackEntry{limiter: rate.NewLimiter(f.limit, f.burst)}
		f.clients[client] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (f *fallbackLimiters) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// RateLimitMiddleware enforces a per-client token bucket in Redis. When Redis
// is unreachable it fails open to an in-process limiter.
func RateLimitMiddleware(rdb redis.Scripter, cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Limit
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "moove:ratelimit:"
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	limitHeader := strconv.Itoa(cfg.Limit)
	fallback := newFallbackLimiters(rate.Limit(cfg.Limit), cfg.Burst, cfg.IdleTTL)

	reject := func(c *gin.Context, backend string, retryAfter time.Duration) {
		rateLimitRejected.WithLabelValues(backend).Inc()
		secs := int(retryAfter.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		c.Header("X-RateLimit-Remaining", "0")
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		now := time.Now()
		c.Header("X-RateLimit-Limit", limitHeader)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 100*time.Millisecond)
		defer cancel()

		result, err := bucketScript.Run(ctx, rdb, []string{cfg.KeyPrefix + clientIP},
			float64(cfg.Limit), float64(cfg.Burst), float64(now.UnixMicro())/1e6).Int64Slice()
		if err != nil || len(result) != 3 {
			logger.Warn("redis rate limit failed, using local limiter",
				zap.Error(err),
				zap.String("ip", clientIP))

			limiter := fallback.get(clientIP, now)
			if !limiter.AllowN(now, 1) {
				reject(c, "local", time.Second)
				return
			}
			c.Header("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(now))))
			c.Next()
			return
		}

		if result[0] != 1 {
			reject(c, "redis", time.Duration(result[2])*time.Millisecond)
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result[1], 10))
		c.Next()
	}
}
