package keys

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"ledgerguard/internal/keys/metrics"
)

const cacheKeyPrefix = "ledgerguard:key:"

// CachingResolver keeps resolved keys in Redis for ttl. Only found keys are
// cached. Redis failures degrade to the inner resolver.
type CachingResolver struct {
	inner   Resolver
	rdb     redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// CacheOption configures a CachingResolver.
type CacheOption func(*CachingResolver)

// WithCacheLogger sets the logger used for degraded cache operations.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(c *CachingResolver) {
		c.logger = l
	}
}

// WithCacheMetrics records hits and misses.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachingResolver) {
		c.metrics = m
	}
}

// NewCachingResolver wraps inner with a Redis cache.
func NewCachingResolver(inner Resolver, rdb redis.Cmdable, ttl time.Duration, opts ...CacheOption) *CachingResolver {
	c := &CachingResolver{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveKey serves from cache when possible.
func (c *CachingResolver) ResolveKey(ctx context.Context, keyID string) (*Key, error) {
	cacheKey := cacheKeyPrefix + keyID

	raw, err := c.rdb.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		var key Key
		if jsonErr := json.Unmarshal(raw, &key); jsonErr == nil {
			c.metrics.IncrementCacheLookup("hit")
			return &key, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt cached key", "key_id", keyID)
		c.metrics.IncrementCacheLookup("error")
	case errors.Is(err, redis.Nil):
		c.metrics.IncrementCacheLookup("miss")
	default:
		c.logger.WarnContext(ctx, "key cache read failed", "key_id", keyID, "error", err)
		c.metrics.IncrementCacheLookup("error")
	}

	key, err := c.inner.ResolveKey(ctx, keyID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(key)
	if err == nil {
		err = c.rdb.Set(ctx, cacheKey, payload, c.ttl).Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "key cache write failed", "key_id", keyID, "error", err)
	}
	return key, nil
}

// Invalidate drops a cached key, e.g. after rotation.
func (c *CachingResolver) Invalidate(ctx context.Context, keyID string) error {
	return c.rdb.Del(ctx, cacheKeyPrefix+keyID).Err()
}
