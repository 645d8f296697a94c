package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/pkg/database"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
	"github.com/utafrali/TiaaDeals/pkg/pagination"
)

const productColumns = `
	p.id, p.name, p.description, p.price, p.original_price, p.image, p.company,
	p.category_id, COALESCE(c.category_name, ''), p.stock, p.is_featured, p.is_active,
	p.stars, p.review_count, p.created_at, p.updated_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns active products matching the given filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) (_ []domain.Product, _ int, err error) {
	var (
		conditions = []string{"p.is_active"}
		args       []any
		argIndex   = 1
	)

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_featured = $%d", argIndex))
		args = append(args, *filter.Featured)
		argIndex++
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY p.created_at DESC, p.id
		LIMIT $%d OFFSET $%d`,
		productColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = pagination.DefaultPerPage
	}
	offset := max(filter.Offset, 0)
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   = make([]domain.Product, 0)
		totalCount int
	)
	for rows.Next() {
		var p domain.Product
		if err = rows.Scan(append(productDest(&p), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, totalCount, nil
}

// Search returns active products whose name contains query, ignoring case.
// LIKE wildcards in query are matched literally.
func (r *ProductRepository) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	stmt := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active AND LOWER(p.name) LIKE LOWER($1)
		ORDER BY p.created_at DESC, p.id
		LIMIT $2`, productColumns)

	return r.queryProducts(ctx, "SearchProducts", stmt, "%"+escapeLike(query)+"%", limit)
}

// Related returns other active products of the same category, newest first.
func (r *ProductRepository) Related(ctx context.Context, categoryID, excludeID string, limit int) ([]domain.Product, error) {
	stmt := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_active AND p.category_id = $1 AND p.id <> $2
		ORDER BY p.created_at DESC, p.id
		LIMIT $3`, productColumns)

	return r.queryProducts(ctx, "RelatedProducts", stmt, categoryID, excludeID, limit)
}

// GetByID retrieves an active product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1 AND p.is_active`, productColumns)

	ctx, end := database.TraceQuery(ctx, "GetProductByID", query)
	defer func() { end(err) }()

	var p domain.Product
	if err = r.db.QueryRow(ctx, query, id).Scan(productDest(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// ExistsActive reports whether an active product with the given ID exists.
func (r *ProductRepository) ExistsActive(ctx context.Context, id string) (_ bool, err error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND is_active)`

	ctx, end := database.TraceQuery(ctx, "ProductExists", query)
	defer func() { end(err) }()

	var exists bool
	if err = r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check product exists: %w", err)
	}
	return exists, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, op, query string, args ...any) (_ []domain.Product, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err = rows.Scan(productDest(&p)...); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// productDest returns scan destinations in productColumns order.
func productDest(p *domain.Product) []any {
	return []any{
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.OriginalPrice,
		&p.Image,
		&p.Company,
		&p.CategoryID,
		&p.CategoryName,
		&p.Stock,
		&p.IsFeatured,
		&p.IsActive,
		&p.Stars,
		&p.ReviewCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
