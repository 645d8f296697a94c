package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/repository"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

// CollectionRepository implements repository.CollectionRepository in memory.
// Each method runs under the store lock, so every mutation is atomic.
type CollectionRepository struct {
	s *Store
}

// FindCollection returns the user's collection of the given kind.
func (r *CollectionRepository) FindCollection(_ context.Context, userID string, kind domain.Kind) (*domain.Collection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.collections[collectionKey{userID, kind}]
	if !ok {
		return nil, apperrors.NotFound(kind.String(), userID)
	}
	return &c, nil
}

// CreateCollection stores a collection unless one exists for (user, kind).
func (r *CollectionRepository) CreateCollection(_ context.Context, c *domain.Collection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := collectionKey{c.UserID, c.Kind}
	if _, ok := r.s.collections[key]; ok {
		return apperrors.AlreadyExists(c.Kind.String(), "user_id", c.UserID)
	}
	if _, ok := r.s.users[c.UserID]; !ok {
		return apperrors.NotFound("user", c.UserID)
	}
	r.s.collections[key] = *c
	return nil
}

// TouchCollection refreshes the collection's updated_at.
func (r *CollectionRepository) TouchCollection(_ context.Context, collectionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for key, c := range r.s.collections {
		if c.ID == collectionID {
			c.UpdatedAt = r.s.now()
			r.s.collections[key] = c
			return nil
		}
	}
	return nil
}

// AddItem inserts the line or merges it into the existing line of the same identity.
func (r *CollectionRepository) AddItem(_ context.Context, item *domain.LineItem) error {
	return r.upsert(item, func(existing, incoming *int) *int {
		if existing == nil || incoming == nil {
			return nil
		}
		sum := *existing + *incoming
		return &sum
	})
}

// SetItemQuantity upserts the line with exactly item.Quantity.
func (r *CollectionRepository) SetItemQuantity(_ context.Context, item *domain.LineItem) error {
	return r.upsert(item, func(_, incoming *int) *int {
		return incoming
	})
}

func (r *CollectionRepository) upsert(item *domain.LineItem, merge func(existing, incoming *int) *int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lines := r.s.items[item.CollectionID]
	if i := findLine(lines, item.ProductID, item.SelectedColor); i >= 0 {
		qty := merge(lines[i].Quantity, item.Quantity)
		if !validQuantity(qty) {
			return repository.QuantityLimitExceeded()
		}
		lines[i].Quantity = cloneInt(qty)
		lines[i].UpdatedAt = item.UpdatedAt
		*item = cloneLine(lines[i])
		return nil
	}

	if !validQuantity(item.Quantity) {
		return repository.QuantityLimitExceeded()
	}
	stored := cloneLine(*item)
	stored.CreatedAt = item.UpdatedAt
	r.s.items[item.CollectionID] = append(lines, stored)
	item.CreatedAt = stored.CreatedAt
	return nil
}

// RemoveItem deletes the line with the given identity.
func (r *CollectionRepository) RemoveItem(_ context.Context, collectionID, productID string, variant *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lines := r.s.items[collectionID]
	i := findLine(lines, productID, variant)
	if i < 0 {
		return false, nil
	}
	r.s.items[collectionID] = slices.Delete(lines, i, i+1)
	return true, nil
}

// ClearItems deletes every line of the collection.
func (r *CollectionRepository) ClearItems(_ context.Context, collectionID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := len(r.s.items[collectionID])
	delete(r.s.items, collectionID)
	return int64(n), nil
}

// Project joins the collection's lines with active products, ordered by
// creation time then ID.
func (r *CollectionRepository) Project(_ context.Context, collectionID string) ([]domain.LineItemView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	views := make([]domain.LineItemView, 0, len(r.s.items[collectionID]))
	for _, line := range r.s.items[collectionID] {
		p, ok := r.s.products[line.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		views = append(views, domain.LineItemView{
			ID:            line.ID,
			ProductID:     line.ProductID,
			SelectedColor: cloneString(line.SelectedColor),
			Quantity:      cloneInt(line.Quantity),
			Name:          p.Name,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Image:         p.Image,
			Company:       p.Company,
			CreatedAt:     line.CreatedAt,
			UpdatedAt:     line.UpdatedAt,
		})
	}

	slices.SortStableFunc(views, func(a, b domain.LineItemView) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return views, nil
}

func findLine(lines []domain.LineItem, productID string, variant *string) int {
	return slices.IndexFunc(lines, func(l domain.LineItem) bool {
		return l.ProductID == productID && domain.SameVariant(l.SelectedColor, variant)
	})
}

// validQuantity mirrors collection_items_quantity_check.
func validQuantity(q *int) bool {
	return q == nil || (*q >= 1 && *q <= domain.MaxQuantityPerItem)
}

func cloneLine(l domain.LineItem) domain.LineItem {
	l.SelectedColor = cloneString(l.SelectedColor)
	l.Quantity = cloneInt(l.Quantity)
	return l
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
