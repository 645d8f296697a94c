package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/repository"
	"github.com/utafrali/TiaaDeals/pkg/breaker"
)

const keyPrefix = "tiaadeals:catalog:"

// Lookup results recorded by catalog_cache_lookups_total.
const (
	resultHit    = "hit"
	resultMiss   = "miss"
	resultError  = "error"
	resultBypass = "bypass"
)

// CatalogCache is a read-through Redis cache in front of the catalog
// repositories. Redis calls run through a circuit breaker; any Redis failure
// degrades to reading the source directly.
type CatalogCache struct {
	client  *redis.Client
	breaker *breaker.Breaker[[]byte]
	ttl     time.Duration
	logger  *slog.Logger
	lookups *prometheus.CounterVec
}

// NewCatalogCache creates a catalog cache and registers its metrics with reg.
func NewCatalogCache(client *redis.Client, ttl time.Duration, reg prometheus.Registerer, logger *slog.Logger) (*CatalogCache, error) {
	breakerMetrics, err := breaker.NewMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register breaker metrics: %w", err)
	}

	lookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_lookups_total",
			Help: "Catalog cache lookups by result (hit, miss, error, bypass)",
		},
		[]string{"result"},
	)
	if err := reg.Register(lookups); err != nil {
		return nil, fmt.Errorf("register cache metrics: %w", err)
	}

	cfg := breaker.DefaultConfig("redis-catalog")
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, redis.Nil)
	}

	return &CatalogCache{
		client:  client,
		breaker: breaker.New[[]byte](cfg, breakerMetrics, logger),
		ttl:     ttl,
		logger:  logger,
		lookups: lookups,
	}, nil
}

// Ping checks Redis connectivity. It bypasses the breaker so readiness
// reflects the real state of Redis.
func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Products wraps a product repository with the cache.
func (c *CatalogCache) Products(next repository.ProductRepository) *ProductCache {
	return &ProductCache{cache: c, next: next}
}

// Categories wraps a category repository with the cache.
func (c *CatalogCache) Categories(next repository.CategoryRepository) *CategoryCache {
	return &CategoryCache{cache: c, next: next}
}

// get loads key into dst. It reports false on a miss or on any Redis failure.
func (c *CatalogCache) get(ctx context.Context, key string, dst any) bool {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		c.lookups.WithLabelValues(resultMiss).Inc()
		return false
	case breaker.IsRejected(err):
		c.lookups.WithLabelValues(resultBypass).Inc()
		return false
	default:
		c.lookups.WithLabelValues(resultError).Inc()
		c.logger.WarnContext(ctx, "catalog cache read failed, using source",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.lookups.WithLabelValues(resultError).Inc()
		c.logger.WarnContext(ctx, "catalog cache entry corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}
	c.lookups.WithLabelValues(resultHit).Inc()
	return true
}

// set stores v under key. Failures are logged and otherwise ignored.
func (c *CatalogCache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.WarnContext(ctx, "catalog cache marshal failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	_, err = c.breaker.Execute(func() ([]byte, error) {
		return nil, c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if err != nil && !breaker.IsRejected(err) {
		c.logger.WarnContext(ctx, "catalog cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// readThrough returns the cached value for key or loads, caches and returns it.
// Load errors (including not-found) are returned as-is and never cached.
func readThrough[T any](ctx context.Context, c *CatalogCache, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	c.set(ctx, key, v)
	return v, nil
}

// ProductCache implements repository.ProductRepository with read-through
// caching of listings, product details and related products. Search and
// ExistsActive always hit the source.
type ProductCache struct {
	cache *CatalogCache
	next  repository.ProductRepository
}

type productPage struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

// List returns a cached product page.
func (p *ProductCache) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	key := keyPrefix + "products:" + optString(filter.CategoryID) + ":" + optBool(filter.Featured) +
		":" + strconv.Itoa(filter.Limit) + ":" + strconv.Itoa(filter.Offset)

	page, err := readThrough(ctx, p.cache, key, func(ctx context.Context) (productPage, error) {
		products, total, err := p.next.List(ctx, filter)
		return productPage{Products: products, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Products, page.Total, nil
}

// Search delegates to the source.
func (p *ProductCache) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	return p.next.Search(ctx, query, limit)
}

// GetByID returns a cached product.
func (p *ProductCache) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return readThrough(ctx, p.cache, keyPrefix+"product:"+id, func(ctx context.Context) (*domain.Product, error) {
		return p.next.GetByID(ctx, id)
	})
}

// Related returns cached related products.
func (p *ProductCache) Related(ctx context.Context, categoryID, excludeID string, limit int) ([]domain.Product, error) {
	key := keyPrefix + "related:" + categoryID + ":" + excludeID + ":" + strconv.Itoa(limit)
	return readThrough(ctx, p.cache, key, func(ctx context.Context) ([]domain.Product, error) {
		return p.next.Related(ctx, categoryID, excludeID, limit)
	})
}

// ExistsActive delegates to the source so cart mutations never see stale data.
func (p *ProductCache) ExistsActive(ctx context.Context, id string) (bool, error) {
	return p.next.ExistsActive(ctx, id)
}

// CategoryCache implements repository.CategoryRepository with read-through caching.
type CategoryCache struct {
	cache *CatalogCache
	next  repository.CategoryRepository
}

// List returns the cached category list.
func (c *CategoryCache) List(ctx context.Context) ([]domain.Category, error) {
	return readThrough(ctx, c.cache, keyPrefix+"categories", c.next.List)
}

// GetByID returns a cached category.
func (c *CategoryCache) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	return readThrough(ctx, c.cache, keyPrefix+"category:"+id, func(ctx context.Context) (*domain.Category, error) {
		return c.next.GetByID(ctx, id)
	})
}

func optString(s *string) string {
	if s == nil {
		return "*"
	}
	return *s
}

func optBool(b *bool) string {
	if b == nil {
		return "*"
	}
	return strconv.FormatBool(*b)
}
