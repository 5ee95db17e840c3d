package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

const (
	listingPublic      = "public"
	listingMarketplace = "marketplace"
	listingGeneration  = "listings:generation"
)

type listingStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Generation(ctx context.Context, name string) (int64, error)
	Bump(ctx context.Context, name string) (int64, error)
}

// ListingCache keeps the anonymous listings (public and marketplace) in Redis. Entries are keyed
// by a generation counter; a write bumps the counter and older entries age out through their TTL.
// Cache failures are logged and fall through to the record store.
type ListingCache struct {
	store   listingStore
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewListingCache returns nil when caching is disabled; a nil cache loads straight through.
func NewListingCache(store listingStore, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *ListingCache {
	if !enabled || store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingCache{store: store, metrics: metrics, ttl: ttl, logger: logger}
}

// Load returns the cached listing for category or fills it from load.
func (c *ListingCache) Load(ctx context.Context, category string, load func(context.Context) ([]models.ActivitySummary, error)) ([]models.ActivitySummary, error) {
	if c == nil {
		return load(ctx)
	}
	gen, err := c.store.Generation(ctx, listingGeneration)
	if err != nil {
		c.logger.Warn("listing cache unavailable", zap.String("category", category), zap.Error(err))
		return load(ctx)
	}
	key := fmt.Sprintf("listings:%s:v%d", category, gen)

	var cached []models.ActivitySummary
	start := time.Now()
	err = c.store.Get(ctx, key, &cached)
	c.metrics.RecordListingLookup(category, err == nil, time.Since(start))
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, appErrors.ErrCacheMiss):
		c.logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	start = time.Now()
	if err := c.store.Set(ctx, key, items, c.ttl); err != nil {
		c.logger.Warn("listing cache write failed", zap.String("key", key), zap.Error(err))
	}
	c.metrics.ObserveListingWrite(time.Since(start))
	return items, nil
}

// Invalidate retires every cached listing.
func (c *ListingCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if _, err := c.store.Bump(ctx, listingGeneration); err != nil {
		c.logger.Warn("listing cache invalidation failed", zap.Error(err))
	}
}
