package catalog

import (
	"context"
	"time"

	"neighborhood-matcher/internal/common/database"
	"neighborhood-matcher/internal/common/logger"
	"neighborhood-matcher/internal/common/metrics"
	"neighborhood-matcher/internal/models"
)

const cacheKeyPrefix = "catalog:neighborhoods:"

// CachedProvider keeps the full catalog in Redis for ttl. Redis failures
// degrade to a direct read; they are never returned to the caller.
type CachedProvider struct {
	inner  Provider
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedProvider(inner Provider, redis *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		redis: redis,
		ttl:   ttl,
		logger: log.WithFields(map[string]interface{}{
			"component": "catalog-cache",
			"source":    inner.Name(),
		}),
	}
}

func (c *CachedProvider) Name() string { return c.inner.Name() }

func (c *CachedProvider) key() string { return cacheKeyPrefix + c.inner.Name() }

func (c *CachedProvider) GetNeighborhoods(ctx context.Context) ([]models.Neighborhood, error) {
	var cached []models.Neighborhood
	found, err := c.redis.GetJSON(ctx, c.key(), &cached)
	switch {
	case err != nil:
		metrics.CatalogCacheHits.WithLabelValues("error").Inc()
		c.logger.Warn("catalog cache read failed", map[string]interface{}{"error": err})
	case found:
		metrics.CatalogCacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.CatalogCacheHits.WithLabelValues("miss").Inc()
	}

	fresh, err := c.inner.GetNeighborhoods(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.redis.SetJSON(ctx, c.key(), fresh, c.ttl); err != nil {
		c.logger.Warn("catalog cache write failed", map[string]interface{}{"error": err})
	}
	return fresh, nil
}

func (c *CachedProvider) GetNeighborhood(ctx context.Context, id string) (*models.Neighborhood, error) {
	return findByID(ctx, c, id)
}

// Invalidate drops the cached catalog, e.g. after the seeder rewrote the source.
func (c *CachedProvider) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, c.key())
}
