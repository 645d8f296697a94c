package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountPercentage(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		original string
		want     int
	}{
		{"quarter off", "75.00", "100.00", 25},
		{"rounds down", "66.70", "100.00", 33},
		{"whole rupee prices", "41999", "51999", 19},
		{"no discount", "10.00", "10.00", 0},
		{"zero original", "10.00", "0", 0},
		{"price above original", "110.00", "100.00", -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{
				Price:         decimal.RequireFromString(tt.price),
				OriginalPrice: decimal.RequireFromString(tt.original),
			}
			assert.Equal(t, tt.want, p.DiscountPercentage())
		})
	}
}

func TestNewProductDetail(t *testing.T) {
	p := &Product{
		ID:            "p1",
		Name:          "Kurta",
		Price:         decimal.NewFromInt(80),
		OriginalPrice: decimal.NewFromInt(100),
	}

	d := NewProductDetail(p, "cat.png", nil)

	assert.Equal(t, "p1", d.ID)
	assert.Equal(t, 20, d.DiscountPercentage)
	assert.Equal(t, "cat.png", d.CategoryImage)
	require.NotNil(t, d.RelatedProducts, "related products encode as [] not null")
	assert.Empty(t, d.RelatedProducts)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}
