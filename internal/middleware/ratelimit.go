package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ozanunal0/Prometheus-Gateway/internal/cache"
)

// RateLimitConfig describes one path's window.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimiter enforces a fixed-window request limit per principal,
// backed by Redis so the window is shared across gateway replicas. Only
// one path is registered in practice (POST /v1/chat/completions), but
// AddLimit/configFor keep the same per-path registration shape the
// in-memory version of this middleware used, so adding a second limited
// route later needs no structural change.
type RateLimiter struct {
	redis      *cache.RedisClient
	defaultCfg RateLimitConfig
	perPath    map[string]RateLimitConfig
}

// NewRateLimiter builds a RateLimiter with the default window applied to
// every path until overridden with AddLimit.
func NewRateLimiter(redis *cache.RedisClient, requestsPerWindow int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:      redis,
		defaultCfg: RateLimitConfig{Requests: requestsPerWindow, Window: window},
		perPath:    make(map[string]RateLimitConfig),
	}
}

// AddLimit registers a limit for an exact path. Matching is exact —
// there is no prefix or wildcard fallback; an unregistered sub-path
// always falls back to the default config.
func (r *RateLimiter) AddLimit(path string, cfg RateLimitConfig) {
	r.perPath[path] = cfg
}

func (r *RateLimiter) configFor(path string) RateLimitConfig {
	if cfg, ok := r.perPath[path]; ok {
		return cfg
	}
	return r.defaultCfg
}

// principal resolves the rate-limit key: the value AuthMiddleware
// attached to the context (API key header if present, else client
// address), falling back to the raw remote address if auth never ran.
func principal(c *gin.Context) string {
	if v, ok := c.Get(ContextPrincipal); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return clientAddress(c)
}

// Middleware returns the gin handler enforcing the configured window.
// It must run after AuthMiddleware so ContextPrincipal is populated, but
// must also produce a sane result when auth did not run (see
// ContextPrincipal's doc comment) — clientAddress is always a safe
// fallback either way.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := r.configFor(c.FullPath())
		key := fmt.Sprintf("ratelimit:%s:%s", c.FullPath(), principal(c))

		count, err := r.redis.IncrWithExpiry(c.Request.Context(), key, cfg.Window)
		if err != nil {
			// a rate-limiter backend failure must not block the primary
			// request path; fail open.
			c.Next()
			return
		}

		remaining := cfg.Requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > cfg.Requests {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
