package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/akfldk1028/ARR-sub002/internal/cache"
	"github.com/akfldk1028/ARR-sub002/internal/metrics"
)

// CachedClient memoizes completions in Redis, keyed by a hash of
// (model, prompt). Naming and self-assessment prompts repeat across
// rebalance passes and routing decisions; identical prompts answer from
// cache without touching the provider.
type CachedClient struct {
	inner     Client
	cache     *cache.Manager
	ttl       time.Duration
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewCachedClient wraps inner. A nil cacheManager returns inner
// unchanged.
func NewCachedClient(inner Client, cacheManager *cache.Manager, ttl time.Duration, collector *metrics.Collector, logger *zap.Logger) Client {
	if cacheManager == nil {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CachedClient{
		inner:     inner,
		cache:     cacheManager,
		ttl:       ttl,
		collector: collector,
		logger:    logger.With(zap.String("component", "llm_cache")),
	}
}

func (c *CachedClient) Model() string { return c.inner.Model() }

func (c *CachedClient) key(prompt string) string {
	sum := sha256.Sum256([]byte(c.inner.Model() + "\x00" + prompt))
	return "llm:" + hex.EncodeToString(sum[:16])
}

func (c *CachedClient) Complete(ctx context.Context, prompt string) (string, error) {
	key := c.key(prompt)
	if cached, err := c.cache.GetLLMResponse(ctx, key); err == nil && cached != "" {
		if c.collector != nil {
			c.collector.RecordCacheHit("llm")
		}
		return cached, nil
	}
	if c.collector != nil {
		c.collector.RecordCacheMiss("llm")
	}

	response, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := c.cache.SetLLMResponse(ctx, key, response, c.ttl); err != nil {
		c.logger.Warn("llm cache write failed", zap.Error(err))
	}
	return response, nil
}
