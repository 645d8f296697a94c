package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/pkg/database"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

const categorySelect = `SELECT id, category_name, category_image, description, created_at, updated_at FROM categories`

type categoryRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"category_name"`
	Image       string    `db:"category_image"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// CategoryRepository reads the categories table.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository returns a repository running its queries on db.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category, sorted case-insensitively by name.
func (r *CategoryRepository) List(ctx context.Context) (_ []domain.Category, err error) {
	const query = categorySelect + ` ORDER BY LOWER(category_name)`

	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		c, err := pgx.RowToStructByName[categoryRow](row)
		return domain.Category(c), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// GetByID returns the category with id or a CATEGORY_NOT_FOUND error.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (_ *domain.Category, err error) {
	const query = categorySelect + ` WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCategoryByID", query)
	defer func() { end(err) }()

	var c categoryRow
	rows, err := r.db.Query(ctx, query, id)
	if err == nil {
		c, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[categoryRow])
	}
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, apperrors.NotFound("category", id)
	case err != nil:
		return nil, fmt.Errorf("get category: %w", err)
	}
	category := domain.Category(c)
	return &category, nil
}
