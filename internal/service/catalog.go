package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/repository"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
	"github.com/utafrali/TiaaDeals/pkg/pagination"
)

// ProductQuery holds the optional listing filters.
type ProductQuery struct {
	CategoryID *string
	Featured   *bool
	Page       pagination.Params
}

// CatalogService implements read-only product and category queries.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// ListProducts returns a page of active products and the total match count.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, int, error) {
	products, total, err := s.products.List(ctx, domain.ProductFilter{
		CategoryID: q.CategoryID,
		Featured:   q.Featured,
		Limit:      q.Page.Limit(),
		Offset:     q.Page.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return nonNil(products), total, nil
}

// Search returns up to domain.MaxSearchResults products whose name contains query.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInput("search query is required").WithCode("MISSING_QUERY")
	}

	products, err := s.products.Search(ctx, query, domain.MaxSearchResults)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return nonNil(products), nil
}

// GetProduct returns a product with its discount, category image and up to
// domain.MaxRelatedProducts related products.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	if p.CategoryID == nil {
		return domain.NewProductDetail(p, "", nil), nil
	}

	var categoryImage string
	c, err := s.categories.GetByID(ctx, *p.CategoryID)
	switch {
	case err == nil:
		categoryImage = c.Image
	case errors.Is(err, apperrors.ErrNotFound):
		s.logger.WarnContext(ctx, "product references missing category",
			slog.String("product_id", p.ID),
			slog.String("category_id", *p.CategoryID),
		)
	default:
		return nil, fmt.Errorf("get product category: %w", err)
	}

	related, err := s.products.Related(ctx, *p.CategoryID, p.ID, domain.MaxRelatedProducts)
	if err != nil {
		return nil, fmt.Errorf("get related products: %w", err)
	}

	return domain.NewProductDetail(p, categoryImage, related), nil
}

// ListCategories returns all categories ordered by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// GetCategory returns a category by ID.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CategoryProducts returns a page of the category's active products. An
// unknown category is a not-found error rather than an empty page.
func (s *CatalogService) CategoryProducts(ctx context.Context, categoryID string, page pagination.Params) ([]domain.Product, int, error) {
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return nil, 0, err
	}
	return s.ListProducts(ctx, ProductQuery{CategoryID: &categoryID, Page: page})
}

func nonNil(products []domain.Product) []domain.Product {
	if products == nil {
		return []domain.Product{}
	}
	return products
}
