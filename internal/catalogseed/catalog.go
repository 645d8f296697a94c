// Package catalogseed holds the demo TiaaDeals catalog and loads it into a
// storage backend. The same data backs the in-memory server and the
// Postgres seed command, so identifiers are derived deterministically and
// re-runs are idempotent.
package catalogseed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/pkg/slug"
)

var namespace = uuid.MustParse("6f1b3c1e-8d0a-4c55-9a52-1f0e2d7c4b10")

// CategoryID returns the stable identifier of the named demo category.
func CategoryID(name string) string {
	return uuid.NewSHA1(namespace, []byte("category:"+name)).String()
}

// ProductID returns the stable identifier of the named demo product.
func ProductID(name string) string {
	return uuid.NewSHA1(namespace, []byte("product:"+name)).String()
}

// Catalog is a set of categories and the products that reference them.
type Catalog struct {
	Categories []domain.Category
	Products   []domain.Product
}

type categoryDef struct {
	Name        string
	Description string
}

type productDef struct {
	Name          string
	Description   string
	Category      string
	Company       string
	Price         string
	OriginalPrice string
	Stock         int
	Featured      bool
	Stars         string
	Reviews       int
}

var categoryDefs = []categoryDef{
	{"Kurtas", "Everyday and festive kurtas in cotton, rayon and silk."},
	{"Sarees", "Handloom, silk and georgette sarees."},
	{"Lehengas", "Bridal and occasion lehenga sets."},
	{"Jewellery", "Oxidised, kundan and temple jewellery."},
	{"Footwear", "Juttis, kolhapuris and embellished flats."},
	{"Handbags", "Potlis, clutches and everyday totes."},
}

var productDefs = []productDef{
	{"Anarkali Cotton Kurta", "Flared block-print kurta with a round neck and three-quarter sleeves.", "Kurtas", "Biba", "1499.00", "2499.00", 40, true, "4.4", 312},
	{"Straight Rayon Kurta", "Straight-cut printed rayon kurta for daily wear.", "Kurtas", "W", "899.00", "1299.00", 65, false, "4.1", 198},
	{"Chikankari Tunic", "Lucknowi chikankari tunic in soft georgette.", "Kurtas", "Aurelia", "1799.00", "2599.00", 22, false, "4.6", 141},
	{"Banarasi Silk Saree", "Pure Banarasi silk with zari border and unstitched blouse piece.", "Sarees", "Kalini", "6499.00", "8999.00", 12, true, "4.7", 87},
	{"Kanjeevaram Silk Saree", "Traditional Kanjeevaram weave with temple border.", "Sarees", "Nalli", "12999.00", "15999.00", 6, true, "4.8", 54},
	{"Georgette Party Saree", "Sequinned georgette saree with a ready blouse.", "Sarees", "Satrani", "2299.00", "3999.00", 30, false, "4.2", 176},
	{"Embroidered Bridal Lehenga", "Velvet lehenga with zardozi embroidery and net dupatta.", "Lehengas", "Kalki", "24999.00", "32999.00", 4, true, "4.9", 23},
	{"Mirror Work Lehenga Set", "Navratri cotton lehenga with mirror work and dupatta.", "Lehengas", "Fabindia", "4999.00", "6499.00", 15, false, "4.3", 66},
	{"Kundan Choker Set", "Gold-plated kundan choker with matching earrings.", "Jewellery", "Zaveri Pearls", "1299.00", "2999.00", 50, true, "4.5", 402},
	{"Oxidised Jhumkas", "Silver-toned oxidised jhumkas with ghungroo drops.", "Jewellery", "Voylla", "349.00", "699.00", 120, false, "4.3", 921},
	{"Temple Coin Necklace", "Antique temple necklace with Lakshmi coin motifs.", "Jewellery", "Tribe Amrapali", "2199.00", "2999.00", 18, false, "4.6", 75},
	{"Embroidered Mojari Juttis", "Hand-stitched leather juttis with thread embroidery.", "Footwear", "Fizzy Goblet", "1199.00", "1799.00", 35, false, "4.4", 233},
	{"Kolhapuri Flats", "Tan leather kolhapuri chappals with braided straps.", "Footwear", "Metro", "999.00", "1499.00", 42, false, "4.0", 118},
	{"Zari Potli Bag", "Silk potli with zari embroidery and drawstring closure.", "Handbags", "Anekaant", "599.00", "999.00", 60, true, "4.5", 287},
	{"Beaded Clutch", "Hard-case clutch with hand beading and detachable chain.", "Handbags", "Lavie", "1499.00", "1999.00", 25, false, "4.2", 94},
}

// Demo returns the curated demo catalog. Timestamps are set to now so the
// newest-first listings are stable: products are staggered one minute apart
// in declaration order.
func Demo(now time.Time) Catalog {
	now = now.UTC()
	cat := Catalog{
		Categories: make([]domain.Category, 0, len(categoryDefs)),
		Products:   make([]domain.Product, 0, len(productDefs)),
	}
	for _, d := range categoryDefs {
		cat.Categories = append(cat.Categories, domain.Category{
			ID:          CategoryID(d.Name),
			Name:        d.Name,
			Image:       categoryImageURL(d.Name),
			Description: d.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	for i, d := range productDefs {
		created := now.Add(-time.Duration(i) * time.Minute)
		categoryID := CategoryID(d.Category)
		cat.Products = append(cat.Products, domain.Product{
			ID:            ProductID(d.Name),
			Name:          d.Name,
			Description:   d.Description,
			Price:         decimal.RequireFromString(d.Price),
			OriginalPrice: decimal.RequireFromString(d.OriginalPrice),
			Image:         imageURL(d.Name),
			Company:       d.Company,
			CategoryID:    &categoryID,
			CategoryName:  d.Category,
			Stock:         d.Stock,
			IsFeatured:    d.Featured,
			IsActive:      true,
			Stars:         decimal.RequireFromString(d.Stars),
			ReviewCount:   d.Reviews,
			CreatedAt:     created,
			UpdatedAt:     created,
		})
	}
	return cat
}

var (
	adjectives = []string{"Festive", "Handloom", "Printed", "Embroidered", "Pastel", "Classic", "Royal", "Summer"}
	fabrics    = []string{"Cotton", "Silk", "Georgette", "Chanderi", "Linen", "Velvet", "Rayon"}
	brands     = []string{"Biba", "W", "Aurelia", "Libas", "Global Desi", "Fabindia", "Soch", "Kalini"}
)

// Generate appends n synthetic products spread across the demo categories.
// The same seed always yields the same products and identifiers.
func Generate(base Catalog, n int, seed int64) Catalog {
	if n <= 0 || len(base.Categories) == 0 {
		return base
	}
	rng := rand.New(rand.NewSource(seed))
	out := Catalog{
		Categories: base.Categories,
		Products:   make([]domain.Product, 0, len(base.Products)+n),
	}
	out.Products = append(out.Products, base.Products...)

	var newest time.Time
	for _, p := range base.Products {
		if p.CreatedAt.After(newest) {
			newest = p.CreatedAt
		}
	}
	if newest.IsZero() {
		newest = time.Now().UTC()
	}

	for i := 0; i < n; i++ {
		c := base.Categories[rng.Intn(len(base.Categories))]
		name := fmt.Sprintf("%s %s %s #%d",
			adjectives[rng.Intn(len(adjectives))],
			fabrics[rng.Intn(len(fabrics))],
			singular(c.Name),
			i+1,
		)
		// Prices land on whole rupees between 299 and 9999.
		original := decimal.NewFromInt(int64(299 + rng.Intn(9700)))
		discount := decimal.NewFromInt(int64(rng.Intn(61))).Div(decimal.NewFromInt(100))
		price := original.Sub(original.Mul(discount)).Round(0)
		categoryID := c.ID
		created := newest.Add(-time.Duration(len(base.Products)+i) * time.Minute)
		out.Products = append(out.Products, domain.Product{
			ID:            ProductID(fmt.Sprintf("generated:%d:%d", seed, i)),
			Name:          name,
			Description:   fmt.Sprintf("%s from the %s collection.", name, c.Name),
			Price:         price,
			OriginalPrice: original,
			Image:         imageURL(name),
			Company:       brands[rng.Intn(len(brands))],
			CategoryID:    &categoryID,
			CategoryName:  c.Name,
			Stock:         rng.Intn(200),
			IsFeatured:    rng.Intn(10) == 0,
			IsActive:      true,
			Stars:         decimal.NewFromInt(int64(30 + rng.Intn(21))).Div(decimal.NewFromInt(10)),
			ReviewCount:   rng.Intn(1000),
			CreatedAt:     created,
			UpdatedAt:     created,
		})
	}
	return out
}

const cdnBase = "https://cdn.tiaadeals.com"

func imageURL(name string) string {
	return cdnBase + "/products/" + slug.Generate(name) + ".jpg"
}

func categoryImageURL(name string) string {
	return cdnBase + "/categories/" + slug.Generate(name) + ".jpg"
}

func singular(category string) string {
	if n := len(category); n > 1 && category[n-1] == 's' {
		return category[:n-1]
	}
	return category
}
