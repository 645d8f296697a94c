package repository

import (
	"context"
	"fmt"

	"github.com/utafrali/TiaaDeals/internal/domain"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

// QuantityLimitExceeded is returned when a mutation would push a cart line
// past domain.MaxQuantityPerItem.
func QuantityLimitExceeded() *apperrors.AppError {
	return apperrors.InvalidInput(
		fmt.Sprintf("quantity per item cannot exceed %d", domain.MaxQuantityPerItem),
	).WithCode("QUANTITY_LIMIT_EXCEEDED")
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CollectionRepository defines the persistence primitives for carts and
// wishlists. Every item mutation is a single atomic statement.
type CollectionRepository interface {
	// FindCollection returns the user's collection of the given kind, or a
	// not-found error.
	FindCollection(ctx context.Context, userID string, kind domain.Kind) (*domain.Collection, error)

	// CreateCollection inserts a collection. If one already exists for
	// (UserID, Kind) it returns apperrors.ErrAlreadyExists.
	CreateCollection(ctx context.Context, c *domain.Collection) error

	// TouchCollection refreshes the collection's updated_at.
	TouchCollection(ctx context.Context, collectionID string) error

	// AddItem inserts the line item or merges it with the existing line of
	// the same identity. A non-nil Quantity is added to the stored quantity;
	// a nil Quantity only refreshes the timestamp.
	AddItem(ctx context.Context, item *domain.LineItem) error

	// SetItemQuantity upserts the line item with exactly item.Quantity.
	SetItemQuantity(ctx context.Context, item *domain.LineItem) error

	// RemoveItem deletes the line with the given identity. Removing an absent
	// line is not an error; the return value reports whether a row was deleted.
	RemoveItem(ctx context.Context, collectionID, productID string, variant *string) (bool, error)

	// ClearItems deletes every line in the collection and returns how many were removed.
	ClearItems(ctx context.Context, collectionID string) (int64, error)

	// Project joins the collection's lines with active products in a stable order.
	Project(ctx context.Context, collectionID string) ([]domain.LineItemView, error)
}

// ProductRepository defines read access to the product catalog.
type ProductRepository interface {
	// List returns active products matching the filter with the total count.
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int, error)

	// Search returns up to limit active products whose name contains query,
	// ignoring case, newest first.
	Search(ctx context.Context, query string, limit int) ([]domain.Product, error)

	// GetByID retrieves an active product by ID.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// Related returns up to limit other active products of the same category, newest first.
	Related(ctx context.Context, categoryID, excludeID string, limit int) ([]domain.Product, error)

	// ExistsActive reports whether an active product with the ID exists.
	ExistsActive(ctx context.Context, id string) (bool, error)
}

// CategoryRepository defines read access to product categories.
type CategoryRepository interface {
	// List returns all categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)

	// GetByID retrieves a category by ID.
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}
