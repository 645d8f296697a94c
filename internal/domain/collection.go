package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies which per-user collection a line item belongs to.
type Kind string

// Collection kinds.
const (
	KindCart     Kind = "cart"
	KindWishlist Kind = "wishlist"
)

// MaxQuantityPerItem caps the quantity of a single cart line.
const MaxQuantityPerItem = 100

// Valid reports whether k is a known collection kind.
func (k Kind) Valid() bool {
	return k == KindCart || k == KindWishlist
}

// HasQuantity reports whether line items of this kind carry a quantity.
// Wishlist items are binary: present or absent.
func (k Kind) HasQuantity() bool {
	return k == KindCart
}

func (k Kind) String() string {
	return string(k)
}

// Collection is a cart or wishlist owned by exactly one user.
// At most one collection exists per (UserID, Kind).
type Collection struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem is one product+variant entry in a collection. Its identity is
// (CollectionID, ProductID, SelectedColor); a nil SelectedColor is a value of
// its own and only matches other nil selectors.
type LineItem struct {
	ID            string    `json:"id"`
	CollectionID  string    `json:"collection_id"`
	ProductID     string    `json:"product_id"`
	SelectedColor *string   `json:"selected_color"`
	Quantity      *int      `json:"quantity,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LineItemView is a line item joined with the display fields of its product.
type LineItemView struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	SelectedColor *string         `json:"selected_color"`
	Quantity      *int            `json:"quantity,omitempty"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Image         string          `json:"image"`
	Company       string          `json:"company"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Units returns the number of units the line represents. Wishlist lines count as one.
func (v LineItemView) Units() int {
	if v.Quantity == nil {
		return 1
	}
	return *v.Quantity
}

// Summary aggregates a projected collection.
type Summary struct {
	ItemCount int             `json:"item_count"`
	LineCount int             `json:"line_count"`
	Total     decimal.Decimal `json:"total"`
	Savings   decimal.Decimal `json:"savings"`
}

// Summarize computes totals over a projection. Savings only count lines whose
// original price is above the current price.
func Summarize(items []LineItemView) Summary {
	s := Summary{Total: decimal.Zero, Savings: decimal.Zero}
	for _, item := range items {
		units := item.Units()
		qty := decimal.NewFromInt(int64(units))
		s.ItemCount += units
		s.LineCount++
		s.Total = s.Total.Add(item.Price.Mul(qty))
		if item.OriginalPrice.GreaterThan(item.Price) {
			s.Savings = s.Savings.Add(item.OriginalPrice.Sub(item.Price).Mul(qty))
		}
	}
	return s
}

// NormalizeVariant trims a color selector. An empty selector becomes nil, the
// "no variant" sentinel.
func NormalizeVariant(color string) *string {
	color = strings.TrimSpace(color)
	if color == "" {
		return nil
	}
	return &color
}

// SameVariant reports whether two selectors identify the same variant.
func SameVariant(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ChangeAction names a mutation applied to a collection.
type ChangeAction string

// Collection change actions.
const (
	ActionItemAdded       ChangeAction = "item_added"
	ActionQuantityUpdated ChangeAction = "quantity_updated"
	ActionItemRemoved     ChangeAction = "item_removed"
	ActionCleared         ChangeAction = "cleared"
)

// CollectionChange describes one applied mutation together with the
// resulting collection totals.
type CollectionChange struct {
	UserID        string
	CollectionID  string
	Kind          Kind
	Action        ChangeAction
	ProductID     string
	SelectedColor *string
	Quantity      *int
	Summary       Summary
}
