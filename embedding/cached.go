package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/akfldk1028/ARR-sub002/internal/cache"
	"github.com/akfldk1028/ARR-sub002/internal/metrics"
	"github.com/akfldk1028/ARR-sub002/korerr"
)

// Cached wraps a Provider with a Redis content-hash cache and a
// token-bucket rate limiter. Repeated admissions and rebalances embed the
// same paragraph text over and over; the cache makes those free, and the
// limiter keeps burst traffic from tripping the provider's own limits.
type Cached struct {
	inner     Provider
	cache     *cache.Manager
	limiter   *rate.Limiter
	ttl       time.Duration
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewCached wraps inner. cacheManager may be nil, in which case only the
// rate limiter applies. collector may be nil.
func NewCached(inner Provider, cacheManager *cache.Manager, rps float64, ttl time.Duration, collector *metrics.Collector, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rps <= 0 {
		rps = 20
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{
		inner:     inner,
		cache:     cacheManager,
		limiter:   rate.NewLimiter(rate.Limit(rps), int(rps)),
		ttl:       ttl,
		collector: collector,
		logger:    logger.With(zap.String("component", "embedding_cache")),
	}
}

func (c *Cached) Dimensions() int { return c.inner.Dimensions() }
func (c *Cached) Model() string   { return c.inner.Model() }

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.Model() + "\x00" + text))
	return "embed:" + hex.EncodeToString(sum[:16])
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float64, error) {
	if c.cache != nil {
		if vec, err := c.cache.GetEmbedding(ctx, c.key(text)); err == nil && vec != nil {
			if dimErr := CheckDimension(vec, c.inner.Dimensions()); dimErr == nil {
				if c.collector != nil {
					c.collector.RecordCacheHit("embedding")
				}
				return vec, nil
			}
			// A stale entry from a previous model config; fall through and
			// overwrite it below.
		}
		if c.collector != nil {
			c.collector.RecordCacheMiss("embedding")
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, korerr.Wrap(korerr.KindRateLimited, err)
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := CheckDimension(vec, c.inner.Dimensions()); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetEmbedding(ctx, c.key(text), vec, c.ttl); err != nil {
			c.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}
	return vec, nil
}

var _ Provider = (*Cached)(nil)
