package postgres

import (
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/pkg/database"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	return database.MockPool(t)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func boolPtr(b bool) *bool    { return &b }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// ─── Product column definitions ─────────────────────────────────────────────

var productCols = []string{
	"id", "name", "description", "price", "original_price", "image", "company",
	"category_id", "category_name", "stock", "is_featured", "is_active",
	"stars", "review_count", "created_at", "updated_at",
}

func sampleProduct() domain.Product {
	return domain.Product{
		ID:            "11111111-1111-1111-1111-111111111111",
		Name:          "Silk Saree",
		Description:   "Handwoven",
		Price:         decimal.RequireFromString("41999.00"),
		OriginalPrice: decimal.RequireFromString("51999.00"),
		Image:         "saree.jpg",
		Company:       "Tiaa",
		CategoryID:    strPtr("22222222-2222-2222-2222-222222222222"),
		CategoryName:  "Sarees",
		Stock:         12,
		IsFeatured:    true,
		IsActive:      true,
		Stars:         decimal.RequireFromString("4.5"),
		ReviewCount:   87,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func productRow(p domain.Product) []any {
	return []any{
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Image, p.Company,
		p.CategoryID, p.CategoryName, p.Stock, p.IsFeatured, p.IsActive,
		p.Stars, p.ReviewCount, p.CreatedAt, p.UpdatedAt,
	}
}
