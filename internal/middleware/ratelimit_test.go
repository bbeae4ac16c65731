package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozanunal0/Prometheus-Gateway/internal/cache"
)

func newTestRedisClient(t *testing.T) *cache.RedisClient {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return cache.NewRedisClientFromExisting(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func newRateLimitedRouter(rl *RateLimiter, path string) *gin.Engine {
	r := gin.New()
	r.GET(path, rl.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(newTestRedisClient(t), 3, time.Minute)
	r := newRateLimitedRouter(rl, "/limited")

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(newTestRedisClient(t), 2, time.Minute)
	r := newRateLimitedRouter(rl, "/limited")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/limited", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_SetsRateLimitHeaders(t *testing.T) {
	rl := NewRateLimiter(newTestRedisClient(t), 5, time.Minute)
	r := newRateLimitedRouter(rl, "/limited")

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_AddLimitOverridesDefaultForExactPathOnly(t *testing.T) {
	rl := NewRateLimiter(newTestRedisClient(t), 100, time.Minute)
	rl.AddLimit("/limited", RateLimitConfig{Requests: 1, Window: time.Minute})
	r := newRateLimitedRouter(rl, "/limited")

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/limited", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)

	other := newRateLimitedRouter(rl, "/other")
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/other", nil)
		w := httptest.NewRecorder()
		other.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "a path without its own limit keeps the default")
	}
}

func TestRateLimiter_DifferentPrincipalsTrackedSeparately(t *testing.T) {
	rl := NewRateLimiter(newTestRedisClient(t), 1, time.Minute)
	r := gin.New()
	r.GET("/limited", func(c *gin.Context) {
		c.Set(ContextPrincipal, c.GetHeader("X-Principal"))
		c.Next()
	}, rl.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req1 := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req1.Header.Set("X-Principal", "alice")
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, req1)
	require.Equal(t, http.StatusOK, w1.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/limited", nil)
	req2.Header.Set("X-Principal", "bob")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code, "a different principal must not share alice's counter")
}
