package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"rentalsearch/internal/cache"
)

const reasonerCachePrefix = "rentalsearch:reasoner:"

// kvStore is the consumer interface for the reasoning cache
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedReasoner caches reasoning replies keyed by model and prompt.
// Identical prompts (same query, same candidate group) skip the remote call.
type CachedReasoner struct {
	inner      Reasoner
	store      kvStore
	namespace  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NewCachedReasoner creates a caching decorator.
// namespace separates models so a model switch never serves stale replies.
func NewCachedReasoner(
	inner Reasoner,
	store kvStore,
	namespace string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedReasoner {
	return &CachedReasoner{
		inner:      inner,
		store:      store,
		namespace:  namespace,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Classify returns a cached reply or calls the inner reasoner. Errors are never cached.
func (c *CachedReasoner) Classify(ctx context.Context, prompt string) (string, error) {
	key := c.cacheKey(prompt)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil && len(data) > 0:
		c.incCache("hit")
		return string(data), nil
	case err != nil && !errors.Is(err, cache.ErrKeyNotFound):
		c.logger.Warn("Failed to read reasoning cache", zap.String("key", key), zap.Error(err))
	}

	c.incCache("miss")

	text, err := c.inner.Classify(ctx, prompt)
	if err != nil {
		return "", err
	}

	if setErr := c.store.SetWithTTL(ctx, key, []byte(text), c.ttl); setErr != nil {
		c.logger.Warn("Failed to write reasoning cache", zap.String("key", key), zap.Error(setErr))
	}
	return text, nil
}

func (c *CachedReasoner) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedReasoner) cacheKey(prompt string) string {
	h := sha256.Sum256([]byte(c.namespace + "\x00" + prompt))
	return reasonerCachePrefix + hex.EncodeToString(h[:])
}
