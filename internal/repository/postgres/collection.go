package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/repository"
	"github.com/utafrali/TiaaDeals/pkg/database"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

// CollectionRepository implements repository.CollectionRepository using PostgreSQL.
//
// Line identity is enforced by the collection_items_identity_key unique index
// (NULLS NOT DISTINCT), so AddItem and SetItemQuantity are single upserts and
// concurrent mutations of one line never lose updates.
type CollectionRepository struct {
	db database.DBTX
}

// NewCollectionRepository creates a new PostgreSQL-backed collection repository.
func NewCollectionRepository(db database.DBTX) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// FindCollection retrieves the collection of the given kind owned by userID.
func (r *CollectionRepository) FindCollection(ctx context.Context, userID string, kind domain.Kind) (_ *domain.Collection, err error) {
	query := `
		SELECT id, user_id, kind, created_at, updated_at
		FROM collections
		WHERE user_id = $1 AND kind = $2`

	ctx, end := database.TraceQuery(ctx, "FindCollection", query)
	defer func() { end(err) }()

	var (
		c       domain.Collection
		kindStr string
	)
	err = r.db.QueryRow(ctx, query, userID, kind.String()).Scan(
		&c.ID,
		&c.UserID,
		&kindStr,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(kind.String(), userID)
		}
		return nil, fmt.Errorf("find collection: %w", err)
	}
	c.Kind = domain.Kind(kindStr)

	return &c, nil
}

// CreateCollection inserts a new collection. A concurrent insert for the same
// (user, kind) surfaces as apperrors.ErrAlreadyExists.
func (r *CollectionRepository) CreateCollection(ctx context.Context, c *domain.Collection) (err error) {
	query := `
		INSERT INTO collections (id, user_id, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateCollection", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, c.ID, c.UserID, c.Kind.String(), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return apperrors.AlreadyExists(c.Kind.String(), "user_id", c.UserID)
		case database.IsForeignKeyViolation(err):
			return apperrors.NotFound("user", c.UserID)
		}
		return fmt.Errorf("insert collection: %w", err)
	}

	return nil
}

// TouchCollection refreshes the collection's updated_at.
func (r *CollectionRepository) TouchCollection(ctx context.Context, collectionID string) (err error) {
	query := `UPDATE collections SET updated_at = NOW() WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "TouchCollection", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, collectionID); err != nil {
		return fmt.Errorf("touch collection: %w", err)
	}
	return nil
}

// AddItem inserts the line or merges it into the existing one. NULL + NULL
// stays NULL, so wishlist lines only get their timestamp refreshed.
func (r *CollectionRepository) AddItem(ctx context.Context, item *domain.LineItem) error {
	query := `
		INSERT INTO collection_items (id, collection_id, product_id, selected_color, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (collection_id, product_id, selected_color)
		DO UPDATE SET quantity = collection_items.quantity + EXCLUDED.quantity,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, quantity, created_at, updated_at`

	return r.upsertItem(ctx, "AddItem", query, item)
}

// SetItemQuantity upserts the line with exactly item.Quantity.
func (r *CollectionRepository) SetItemQuantity(ctx context.Context, item *domain.LineItem) error {
	query := `
		INSERT INTO collection_items (id, collection_id, product_id, selected_color, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (collection_id, product_id, selected_color)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, quantity, created_at, updated_at`

	return r.upsertItem(ctx, "SetItemQuantity", query, item)
}

func (r *CollectionRepository) upsertItem(ctx context.Context, op, query string, item *domain.LineItem) (err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		item.ID,
		item.CollectionID,
		item.ProductID,
		item.SelectedColor,
		item.Quantity,
		item.UpdatedAt,
	).Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if database.IsCheckViolation(err) {
			return repository.QuantityLimitExceeded()
		}
		return fmt.Errorf("upsert collection item: %w", err)
	}

	return nil
}

// RemoveItem deletes the line with the given identity. A nil variant matches
// only lines without a color.
func (r *CollectionRepository) RemoveItem(ctx context.Context, collectionID, productID string, variant *string) (_ bool, err error) {
	query := `
		DELETE FROM collection_items
		WHERE collection_id = $1 AND product_id = $2 AND selected_color IS NOT DISTINCT FROM $3`

	ctx, end := database.TraceQuery(ctx, "RemoveItem", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, collectionID, productID, variant)
	if err != nil {
		return false, fmt.Errorf("delete collection item: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// ClearItems deletes every line of the collection. The collection row stays.
func (r *CollectionRepository) ClearItems(ctx context.Context, collectionID string) (_ int64, err error) {
	query := `DELETE FROM collection_items WHERE collection_id = $1`

	ctx, end := database.TraceQuery(ctx, "ClearItems", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, collectionID)
	if err != nil {
		return 0, fmt.Errorf("clear collection items: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Project joins the collection's lines with active products. Lines whose
// product is inactive or gone are left in place but omitted.
func (r *CollectionRepository) Project(ctx context.Context, collectionID string) (_ []domain.LineItemView, err error) {
	query := `
		SELECT ci.id, ci.product_id, ci.selected_color, ci.quantity,
		       p.name, p.price, p.original_price, p.image, p.company,
		       ci.created_at, ci.updated_at
		FROM collection_items ci
		JOIN products p ON p.id = ci.product_id AND p.is_active
		WHERE ci.collection_id = $1
		ORDER BY ci.created_at, ci.id`

	ctx, end := database.TraceQuery(ctx, "ProjectCollection", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, collectionID)
	if err != nil {
		return nil, fmt.Errorf("project collection: %w", err)
	}
	defer rows.Close()

	items := make([]domain.LineItemView, 0)
	for rows.Next() {
		var v domain.LineItemView
		if err = rows.Scan(
			&v.ID,
			&v.ProductID,
			&v.SelectedColor,
			&v.Quantity,
			&v.Name,
			&v.Price,
			&v.OriginalPrice,
			&v.Image,
			&v.Company,
			&v.CreatedAt,
			&v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan collection item row: %w", err)
		}
		items = append(items, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection item rows: %w", err)
	}

	return items, nil
}
