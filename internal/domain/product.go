package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxRelatedProducts bounds the related products attached to a product detail.
const MaxRelatedProducts = 4

// MaxSearchResults bounds a product name search.
const MaxSearchResults = 10

var hundred = decimal.NewFromInt(100)

// Product represents a product in the catalog.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Image         string          `json:"image"`
	Company       string          `json:"company"`
	CategoryID    *string         `json:"category_id,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	Stock         int             `json:"stock"`
	IsFeatured    bool            `json:"is_featured"`
	IsActive      bool            `json:"is_active"`
	Stars         decimal.Decimal `json:"stars"`
	ReviewCount   int             `json:"review_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DiscountPercentage returns the whole-number percentage the current price is
// below the original price, rounded half away from zero. A product without an
// original price has no discount.
func (p *Product) DiscountPercentage() int {
	if !p.OriginalPrice.IsPositive() {
		return 0
	}
	pct := p.OriginalPrice.Sub(p.Price).Div(p.OriginalPrice).Mul(hundred).Round(0)
	return int(pct.IntPart())
}

// ProductDetail is the single-product view with its discount and up to
// MaxRelatedProducts products from the same category.
type ProductDetail struct {
	Product
	CategoryImage      string    `json:"category_image,omitempty"`
	DiscountPercentage int       `json:"discount_percentage"`
	RelatedProducts    []Product `json:"related_products"`
}

// NewProductDetail builds the detail view for p.
func NewProductDetail(p *Product, categoryImage string, related []Product) *ProductDetail {
	if related == nil {
		related = []Product{}
	}
	return &ProductDetail{
		Product:            *p,
		CategoryImage:      categoryImage,
		DiscountPercentage: p.DiscountPercentage(),
		RelatedProducts:    related,
	}
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID *string
	Featured   *bool
	Limit      int
	Offset     int
}
