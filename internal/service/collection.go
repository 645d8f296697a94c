package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/repository"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
	"github.com/utafrali/TiaaDeals/pkg/tracing"
)

// ItemInput identifies a line item and, for cart mutations, its quantity.
type ItemInput struct {
	ProductID     string
	SelectedColor string
	Quantity      *int
}

// CollectionService implements cart and wishlist operations for an
// authenticated user. Every mutation returns the fresh projection.
type CollectionService struct {
	collections repository.CollectionRepository
	products    repository.ProductRepository
	publisher   EventPublisher
	metrics     *CollectionMetrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewCollectionService creates a new collection service. metrics may be nil.
func NewCollectionService(
	collections repository.CollectionRepository,
	products repository.ProductRepository,
	publisher EventPublisher,
	metrics *CollectionMetrics,
	logger *slog.Logger,
) *CollectionService {
	return &CollectionService{
		collections: collections,
		products:    products,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns the projected contents of the user's collection, creating an
// empty collection on first access.
func (s *CollectionService) List(ctx context.Context, userID string, kind domain.Kind) (items []domain.LineItemView, err error) {
	defer func() { s.metrics.observe(kind.String(), "list", err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	c, err := s.resolveOrCreate(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, c)
}

// Summary returns totals for the user's collection.
func (s *CollectionService) Summary(ctx context.Context, userID string, kind domain.Kind) (domain.Summary, error) {
	items, err := s.List(ctx, userID, kind)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(items), nil
}

// Add puts a product into the collection. Adding an existing cart line
// increases its quantity; adding an existing wishlist line is a no-op.
func (s *CollectionService) Add(ctx context.Context, userID string, kind domain.Kind, input ItemInput) (items []domain.LineItemView, err error) {
	defer func() { s.metrics.observe(kind.String(), "add", err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := validateProductID(input.ProductID); err != nil {
		return nil, err
	}

	var quantity *int
	if kind.HasQuantity() {
		q := 1
		if input.Quantity != nil {
			q = *input.Quantity
		}
		if err := validateQuantity(q); err != nil {
			return nil, err
		}
		quantity = &q
	}

	if err := s.requireActiveProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	c, err := s.resolveOrCreate(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	now := s.now()
	item := &domain.LineItem{
		ID:            uuid.NewString(),
		CollectionID:  c.ID,
		ProductID:     input.ProductID,
		SelectedColor: domain.NormalizeVariant(input.SelectedColor),
		Quantity:      quantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.collections.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add %s item: %w", kind, err)
	}

	return s.afterMutation(ctx, c, domain.ActionItemAdded, item.ProductID, item.SelectedColor, item.Quantity)
}

// SetQuantity sets a cart line to an exact quantity. Zero removes the line.
// On a wishlist it ensures the line is present.
func (s *CollectionService) SetQuantity(ctx context.Context, userID string, kind domain.Kind, input ItemInput) (items []domain.LineItemView, err error) {
	if kind == domain.KindWishlist {
		return s.Add(ctx, userID, kind, ItemInput{ProductID: input.ProductID, SelectedColor: input.SelectedColor})
	}
	defer func() { s.metrics.observe(kind.String(), "set_quantity", err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := validateProductID(input.ProductID); err != nil {
		return nil, err
	}
	if input.Quantity == nil || *input.Quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must be zero or a positive number").WithCode("INVALID_QUANTITY")
	}
	if *input.Quantity == 0 {
		return s.remove(ctx, userID, kind, input.ProductID, input.SelectedColor)
	}
	if *input.Quantity > domain.MaxQuantityPerItem {
		return nil, repository.QuantityLimitExceeded()
	}

	if err := s.requireActiveProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	c, err := s.resolveOrCreate(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	now := s.now()
	q := *input.Quantity
	item := &domain.LineItem{
		ID:            uuid.NewString(),
		CollectionID:  c.ID,
		ProductID:     input.ProductID,
		SelectedColor: domain.NormalizeVariant(input.SelectedColor),
		Quantity:      &q,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.collections.SetItemQuantity(ctx, item); err != nil {
		return nil, fmt.Errorf("set %s item quantity: %w", kind, err)
	}

	return s.afterMutation(ctx, c, domain.ActionQuantityUpdated, item.ProductID, item.SelectedColor, item.Quantity)
}

// Remove deletes the line with the given product and variant. Removing an
// absent line succeeds.
func (s *CollectionService) Remove(ctx context.Context, userID string, kind domain.Kind, productID, selectedColor string) (items []domain.LineItemView, err error) {
	defer func() { s.metrics.observe(kind.String(), "remove", err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	return s.remove(ctx, userID, kind, productID, selectedColor)
}

func (s *CollectionService) remove(ctx context.Context, userID string, kind domain.Kind, productID, selectedColor string) ([]domain.LineItemView, error) {
	c, err := s.resolveOrCreate(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	variant := domain.NormalizeVariant(selectedColor)
	removed, err := s.collections.RemoveItem(ctx, c.ID, productID, variant)
	if err != nil {
		return nil, fmt.Errorf("remove %s item: %w", kind, err)
	}
	if !removed {
		return s.project(ctx, c)
	}

	return s.afterMutation(ctx, c, domain.ActionItemRemoved, productID, variant, nil)
}

// Clear removes every line from the collection. The collection itself stays.
func (s *CollectionService) Clear(ctx context.Context, userID string, kind domain.Kind) (items []domain.LineItemView, err error) {
	defer func() { s.metrics.observe(kind.String(), "clear", err) }()

	if err := validateKind(kind); err != nil {
		return nil, err
	}
	c, err := s.resolveOrCreate(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	n, err := s.collections.ClearItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("clear %s: %w", kind, err)
	}
	if n == 0 {
		return s.project(ctx, c)
	}

	s.logger.InfoContext(ctx, "collection cleared",
		slog.String("collection_id", c.ID),
		slog.String("kind", kind.String()),
		slog.Int64("removed", n),
	)
	return s.afterMutation(ctx, c, domain.ActionCleared, "", nil, nil)
}

// resolveOrCreate returns the user's collection of the given kind, creating
// it on first access. When two requests race to create it, the loser of the
// unique constraint re-reads the winner's row.
func (s *CollectionService) resolveOrCreate(ctx context.Context, userID string, kind domain.Kind) (*domain.Collection, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	c, err := s.collections.FindCollection(ctx, userID, kind)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}

	now := s.now()
	c = &domain.Collection{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.collections.CreateCollection(ctx, c); err != nil {
		if !errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, fmt.Errorf("create %s: %w", kind, err)
		}
		existing, err := s.collections.FindCollection(ctx, userID, kind)
		if err != nil {
			return nil, fmt.Errorf("re-read %s: %w", kind, err)
		}
		return existing, nil
	}

	s.logger.InfoContext(ctx, "collection created",
		slog.String("collection_id", c.ID),
		slog.String("user_id", userID),
		slog.String("kind", kind.String()),
	)
	return c, nil
}

// afterMutation touches the collection, projects it and publishes the change.
func (s *CollectionService) afterMutation(
	ctx context.Context,
	c *domain.Collection,
	action domain.ChangeAction,
	productID string,
	variant *string,
	quantity *int,
) (items []domain.LineItemView, err error) {
	ctx, span := tracing.Start(ctx, "collection."+string(action),
		attribute.String("tiaadeals.collection.id", c.ID),
		attribute.String("tiaadeals.collection.kind", c.Kind.String()),
	)
	defer func() { tracing.End(span, err) }()

	if err := s.collections.TouchCollection(ctx, c.ID); err != nil {
		return nil, fmt.Errorf("touch %s: %w", c.Kind, err)
	}

	items, err = s.project(ctx, c)
	if err != nil {
		return nil, err
	}

	change := domain.CollectionChange{
		UserID:        c.UserID,
		CollectionID:  c.ID,
		Kind:          c.Kind,
		Action:        action,
		ProductID:     productID,
		SelectedColor: variant,
		Quantity:      quantity,
		Summary:       domain.Summarize(items),
	}
	if err := s.publisher.PublishCollectionUpdated(ctx, change); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish collection updated event",
			slog.String("collection_id", c.ID),
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}

	return items, nil
}

func (s *CollectionService) project(ctx context.Context, c *domain.Collection) ([]domain.LineItemView, error) {
	items, err := s.collections.Project(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", c.Kind, err)
	}
	if items == nil {
		items = []domain.LineItemView{}
	}
	return items, nil
}

func (s *CollectionService) requireActiveProduct(ctx context.Context, productID string) error {
	ok, err := s.products.ExistsActive(ctx, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !ok {
		return apperrors.NotFound("product", productID)
	}
	return nil
}

func validateKind(kind domain.Kind) error {
	if !kind.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("unknown collection kind %q", kind))
	}
	return nil
}

func validateProductID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.InvalidInput("invalid UUID: " + id).WithCode("INVALID_PRODUCT_ID")
	}
	return nil
}

func validateQuantity(q int) error {
	if q < 1 {
		return apperrors.InvalidInput("quantity must be at least 1").WithCode("INVALID_QUANTITY")
	}
	if q > domain.MaxQuantityPerItem {
		return repository.QuantityLimitExceeded()
	}
	return nil
}
