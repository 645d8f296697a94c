package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/utafrali/TiaaDeals/internal/domain"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
	"github.com/utafrali/TiaaDeals/pkg/pagination"
)

// ProductRepository implements repository.ProductRepository in memory.
type ProductRepository struct {
	s *Store
}

// List returns active products matching the filter with the total count.
func (r *ProductRepository) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.activeProducts(func(p domain.Product) bool {
		if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
			return false
		}
		if filter.Featured != nil && p.IsFeatured != *filter.Featured {
			return false
		}
		return true
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = pagination.DefaultPerPage
	}
	start := min(max(filter.Offset, 0), len(all))
	end := min(start+limit, len(all))
	return slices.Clone(all[start:end]), len(all), nil
}

// Search returns active products whose name contains query, ignoring case.
func (r *ProductRepository) Search(_ context.Context, query string, limit int) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	q := strings.ToLower(query)
	found := r.s.activeProducts(func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q)
	})
	return found[:min(limit, len(found))], nil
}

// GetByID retrieves an active product by ID.
func (r *ProductRepository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok || !p.IsActive {
		return nil, apperrors.NotFound("product", id)
	}
	return &p, nil
}

// Related returns other active products of the same category.
func (r *ProductRepository) Related(_ context.Context, categoryID, excludeID string, limit int) ([]domain.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	found := r.s.activeProducts(func(p domain.Product) bool {
		return p.ID != excludeID && p.CategoryID != nil && *p.CategoryID == categoryID
	})
	return found[:min(limit, len(found))], nil
}

// ExistsActive reports whether an active product with the ID exists.
func (r *ProductRepository) ExistsActive(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	return ok && p.IsActive, nil
}

// CategoryRepository implements repository.CategoryRepository in memory.
type CategoryRepository struct {
	s *Store
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, apperrors.NotFound("category", id)
	}
	return &c, nil
}
