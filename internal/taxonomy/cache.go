package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jobdex/adsearch/internal/db"
)

const cacheKeyPrefix = "adsearch:tax:"

// store is the consumer interface for the label cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedLabeler caches taxonomy labels in a key-value store. Labels change
// rarely, so even a short TTL removes nearly all lookup traffic during
// aggregation shaping.
type CachedLabeler struct {
	inner      Labeler
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCachedLabeler creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func NewCachedLabeler(
	inner Labeler,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedLabeler {
	return &CachedLabeler{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Label returns a cached label or calls the inner labeler. Unknown codes
// are cached too, so repeated misses on stale codes stay cheap.
func (c *CachedLabeler) Label(ctx context.Context, dimension, code string) (string, error) {
	key := cacheKey(dimension, code)

	if label, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return label, nil
	}

	c.incCache("miss")

	label, err := c.inner.Label(ctx, dimension, code)
	if err != nil {
		return "", fmt.Errorf("resolve label: %w", err)
	}

	c.putToCache(ctx, key, label)
	return label, nil
}

func (c *CachedLabeler) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(dimension, code string) string {
	return cacheKeyPrefix + dimension + ":" + code
}

func (c *CachedLabeler) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached label", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return string(data), true
}

func (c *CachedLabeler) putToCache(ctx context.Context, key, label string) {
	if err := c.store.Set(ctx, key, []byte(label), c.ttl); err != nil {
		c.logger.Warn("Failed to cache label", zap.String("key", key), zap.Error(err))
	}
}
