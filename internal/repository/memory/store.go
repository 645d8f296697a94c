// Package memory provides in-process implementations of the repository
// interfaces. It backs STORAGE_BACKEND=memory and the HTTP tests, and keeps
// the same identity and quantity rules as the PostgreSQL schema.
package memory

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/TiaaDeals/internal/domain"
)

type collectionKey struct {
	userID string
	kind   domain.Kind
}

// Store holds all in-memory state behind a single lock.
type Store struct {
	mu sync.RWMutex

	users       map[string]domain.User
	emails      map[string]string
	collections map[collectionKey]domain.Collection
	items       map[string][]domain.LineItem
	products    map[string]domain.Product
	categories  map[string]domain.Category

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]domain.User),
		emails:      make(map[string]string),
		collections: make(map[collectionKey]domain.Collection),
		items:       make(map[string][]domain.LineItem),
		products:    make(map[string]domain.Product),
		categories:  make(map[string]domain.Category),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Collections returns the collection repository view of the store.
func (s *Store) Collections() *CollectionRepository { return &CollectionRepository{s: s} }

// Products returns the product repository view of the store.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Categories returns the category repository view of the store.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// PutCategory inserts or replaces a category.
func (s *Store) PutCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

// PutProduct inserts or replaces a product. The category name is resolved
// from stored categories.
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CategoryID != nil {
		if c, ok := s.categories[*p.CategoryID]; ok {
			p.CategoryName = c.Name
		}
	}
	s.products[p.ID] = p
}

// SetProductActive toggles a product's catalog visibility. It reports
// whether the product exists.
func (s *Store) SetProductActive(id string, active bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return false
	}
	p.IsActive = active
	s.products[id] = p
	return true
}

// DeleteProduct removes a product from the catalog. Line items referencing
// it are kept.
func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// ItemCount returns the number of stored line items of a collection,
// including those hidden from the projection.
func (s *Store) ItemCount(collectionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items[collectionID])
}

// CollectionCount returns the number of stored collections.
func (s *Store) CollectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections)
}

// activeProducts returns active products newest first, ties broken by ID.
// Callers must hold s.mu.
func (s *Store) activeProducts(match func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range s.products {
		if p.IsActive && match(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
