package catalogseed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/TiaaDeals/internal/repository/memory"
	"github.com/utafrali/TiaaDeals/pkg/database"
)

// LoadMemory puts the catalog into an in-memory store. Categories go first
// so products pick up their category names.
func LoadMemory(store *memory.Store, cat Catalog) {
	for _, c := range cat.Categories {
		store.PutCategory(c)
	}
	for _, p := range cat.Products {
		store.PutProduct(p)
	}
}

const upsertCategory = `
	INSERT INTO categories (id, category_name, category_image, description)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE SET
		category_name  = EXCLUDED.category_name,
		category_image = EXCLUDED.category_image,
		description    = EXCLUDED.description,
		updated_at     = NOW()`

const upsertProduct = `
	INSERT INTO products (
		id, name, description, price, original_price, image, company,
		category_id, stock, is_featured, is_active, stars, review_count,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
	ON CONFLICT (id) DO UPDATE SET
		name           = EXCLUDED.name,
		description    = EXCLUDED.description,
		price          = EXCLUDED.price,
		original_price = EXCLUDED.original_price,
		image          = EXCLUDED.image,
		company        = EXCLUDED.company,
		category_id    = EXCLUDED.category_id,
		stock          = EXCLUDED.stock,
		is_featured    = EXCLUDED.is_featured,
		is_active      = EXCLUDED.is_active,
		stars          = EXCLUDED.stars,
		review_count   = EXCLUDED.review_count,
		updated_at     = NOW()`

// Result counts the rows written by Seed.
type Result struct {
	Categories int
	Products   int
}

// Seed upserts the catalog into Postgres. Rows are keyed by id, so running
// it twice leaves the tables unchanged apart from updated_at.
func Seed(ctx context.Context, db database.DBTX, cat Catalog, logger *slog.Logger) (Result, error) {
	var res Result
	for _, c := range cat.Categories {
		if _, err := db.Exec(ctx, upsertCategory, c.ID, c.Name, c.Image, c.Description); err != nil {
			return res, fmt.Errorf("upsert category %q: %w", c.Name, err)
		}
		res.Categories++
	}
	logger.InfoContext(ctx, "categories seeded", slog.Int("count", res.Categories))

	for _, p := range cat.Products {
		if _, err := db.Exec(ctx, upsertProduct,
			p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Image, p.Company,
			p.CategoryID, p.Stock, p.IsFeatured, p.IsActive, p.Stars, p.ReviewCount,
			p.CreatedAt,
		); err != nil {
			return res, fmt.Errorf("upsert product %q: %w", p.Name, err)
		}
		res.Products++
		if res.Products%500 == 0 {
			logger.InfoContext(ctx, "seeding products", slog.Int("done", res.Products), slog.Int("total", len(cat.Products)))
		}
	}
	logger.InfoContext(ctx, "products seeded", slog.Int("count", res.Products))
	return res, nil
}
