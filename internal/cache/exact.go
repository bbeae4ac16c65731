package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ozanunal0/Prometheus-Gateway/internal/models"
)

// ExactCache stores full ChatResponse bodies keyed by request
// fingerprint. Every method degrades silently on backend failure: a
// cache is an optimization, never a dependency of the primary request
// path (spec'd error-handling rule: cache errors are swallowed as a
// miss).
type ExactCache struct {
	redis *RedisClient
	ttl   time.Duration
	log   *logrus.Logger
}

// NewExactCache builds an ExactCache with the given default TTL.
func NewExactCache(redis *RedisClient, ttl time.Duration, log *logrus.Logger) *ExactCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ExactCache{redis: redis, ttl: ttl, log: log}
}

// Get returns the cached response for fingerprint, or found=false on a
// miss or any backend error.
func (c *ExactCache) Get(ctx context.Context, fingerprint string) (resp *models.ChatResponse, found bool) {
	raw, ok, err := c.redis.Get(ctx, fingerprint)
	if err != nil {
		c.log.WithError(err).WithField("fingerprint", fingerprint).Warn("exact cache get failed, treating as miss")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var parsed models.ChatResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		c.log.WithError(err).WithField("fingerprint", fingerprint).Warn("exact cache entry unparseable, treating as miss")
		return nil, false
	}
	return &parsed, true
}

// Put stores resp under fingerprint with the cache's default TTL. The
// JSON is re-serialized with sorted keys so that repeated Puts of a
// structurally identical response always produce byte-identical entries.
func (c *ExactCache) Put(ctx context.Context, fingerprint string, resp *models.ChatResponse) {
	raw, err := json.Marshal(resp)
	if err == nil {
		// struct fields marshal in declaration order; a round trip through
		// a generic map makes encoding/json write every object's keys sorted.
		var generic interface{}
		if err = json.Unmarshal(raw, &generic); err == nil {
			raw, err = json.Marshal(generic)
		}
	}
	if err != nil {
		c.log.WithError(err).WithField("fingerprint", fingerprint).Warn("exact cache marshal failed, skipping write")
		return
	}
	if err := c.redis.SetEx(ctx, fingerprint, string(raw), c.ttl); err != nil {
		c.log.WithError(err).WithField("fingerprint", fingerprint).Warn("exact cache put failed")
	}
}
