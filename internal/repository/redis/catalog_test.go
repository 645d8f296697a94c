package redis

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TiaaDeals/internal/domain"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

// countingCatalog is a source repository that records how often it is hit.
type countingCatalog struct {
	productCalls  atomic.Int32
	categoryCalls atomic.Int32
}

func (c *countingCatalog) List(_ context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	c.productCalls.Add(1)
	return []domain.Product{sampleProduct()}, 1, nil
}

func (c *countingCatalog) Search(_ context.Context, _ string, _ int) ([]domain.Product, error) {
	c.productCalls.Add(1)
	return []domain.Product{sampleProduct()}, nil
}

func (c *countingCatalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	c.productCalls.Add(1)
	if id != "p1" {
		return nil, apperrors.NotFound("product", id)
	}
	p := sampleProduct()
	return &p, nil
}

func (c *countingCatalog) Related(_ context.Context, _, _ string, _ int) ([]domain.Product, error) {
	c.productCalls.Add(1)
	return []domain.Product{}, nil
}

func (c *countingCatalog) ExistsActive(_ context.Context, _ string) (bool, error) {
	c.productCalls.Add(1)
	return true, nil
}

type countingCategories struct {
	calls atomic.Int32
}

func (c *countingCategories) List(_ context.Context) ([]domain.Category, error) {
	c.calls.Add(1)
	return []domain.Category{{ID: "c1", Name: "Kurtas"}}, nil
}

func (c *countingCategories) GetByID(_ context.Context, id string) (*domain.Category, error) {
	c.calls.Add(1)
	return &domain.Category{ID: id, Name: "Kurtas"}, nil
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:            "p1",
		Name:          "Silk Saree",
		Price:         decimal.RequireFromString("41999.00"),
		OriginalPrice: decimal.RequireFromString("51999.00"),
		IsActive:      true,
		CreatedAt:     time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func setupCache(t *testing.T) (*CatalogCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache, err := NewCatalogCache(client, time.Minute, prometheus.NewRegistry(), logger)
	require.NoError(t, err)
	return cache, mr
}

// ---------------------------------------------------------------------------
// Read-through
// ---------------------------------------------------------------------------

func TestProductCache_GetByID_ReadThrough(t *testing.T) {
	cache, mr := setupCache(t)
	source := &countingCatalog{}
	products := cache.Products(source)
	ctx := context.Background()

	first, err := products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.productCalls.Load())
	assert.True(t, mr.Exists(keyPrefix+"product:p1"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"product:p1"))

	second, err := products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.productCalls.Load(), "second read is served by redis")
	assert.Equal(t, first.Name, second.Name)
	assert.True(t, first.Price.Equal(second.Price))
	assert.Equal(t, float64(1), testutil.ToFloat64(cache.lookups.WithLabelValues(resultHit)))
	assert.Equal(t, float64(1), testutil.ToFloat64(cache.lookups.WithLabelValues(resultMiss)))
}

func TestProductCache_NotFoundIsNotCached(t *testing.T) {
	cache, mr := setupCache(t)
	source := &countingCatalog{}
	products := cache.Products(source)

	_, err := products.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.False(t, mr.Exists(keyPrefix+"product:nope"))

	_, err = products.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, int32(2), source.productCalls.Load())
}

func TestProductCache_ListKeyedByFilter(t *testing.T) {
	cache, _ := setupCache(t)
	source := &countingCatalog{}
	products := cache.Products(source)
	ctx := context.Background()

	featured := true
	for i := 0; i < 3; i++ {
		list, total, err := products.List(ctx, domain.ProductFilter{Featured: &featured, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Len(t, list, 1)
	}
	_, _, err := products.List(ctx, domain.ProductFilter{Limit: 20, Offset: 20})
	require.NoError(t, err)

	assert.Equal(t, int32(2), source.productCalls.Load())
}

func TestProductCache_SearchAndExistsBypassCache(t *testing.T) {
	cache, _ := setupCache(t)
	source := &countingCatalog{}
	products := cache.Products(source)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := products.Search(ctx, "silk", 10)
		require.NoError(t, err)
		_, err = products.ExistsActive(ctx, "p1")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(4), source.productCalls.Load())
}

func TestCategoryCache_List(t *testing.T) {
	cache, _ := setupCache(t)
	source := &countingCategories{}
	categories := cache.Categories(source)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := categories.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Kurtas", list[0].Name)
	}
	assert.Equal(t, int32(1), source.calls.Load())
}

// ---------------------------------------------------------------------------
// Degradation
// ---------------------------------------------------------------------------

func TestCatalogCache_RedisDownFallsBackToSource(t *testing.T) {
	cache, mr := setupCache(t)
	source := &countingCatalog{}
	products := cache.Products(source)
	mr.Close()

	p, err := products.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Silk Saree", p.Name)
	assert.Equal(t, int32(1), source.productCalls.Load())
	assert.Error(t, cache.Ping(context.Background()))
}

func TestCatalogCache_OpenBreakerSkipsRedis(t *testing.T) {
	cache, mr := setupCache(t)
	source := &countingCatalog{}
	products := cache.Products(source)
	ctx := context.Background()
	mr.Close()

	// Each read is a failed GET plus a failed SET; the breaker trips once
	// the minimum request count is reached.
	for i := 0; i < 5; i++ {
		_, err := products.GetByID(ctx, "p1")
		require.NoError(t, err)
	}

	_, err := products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int32(6), source.productCalls.Load())
	assert.Greater(t, testutil.ToFloat64(cache.lookups.WithLabelValues(resultBypass)), float64(0))
}

func TestCatalogCache_CorruptEntryIsIgnored(t *testing.T) {
	cache, mr := setupCache(t)
	source := &countingCatalog{}
	products := cache.Products(source)

	require.NoError(t, mr.Set(keyPrefix+"product:p1", "{not json"))

	p, err := products.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, int32(1), source.productCalls.Load())
}

func TestNewCatalogCache_DuplicateRegistration(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewCatalogCache(client, time.Minute, reg, logger)
	require.NoError(t, err)
	_, err = NewCatalogCache(client, time.Minute, reg, logger)
	assert.Error(t, err)
}
