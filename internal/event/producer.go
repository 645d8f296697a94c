package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/TiaaDeals/internal/domain"
	pkgkafka "github.com/utafrali/TiaaDeals/pkg/kafka"
)

// Kafka topics for TiaaDeals domain events.
var (
	TopicCartUpdated     = pkgkafka.Topic("cart", "updated")
	TopicWishlistUpdated = pkgkafka.Topic("wishlist", "updated")
	TopicUserRegistered  = pkgkafka.Topic("user", "registered")
)

// Aggregate type constants.
const AggregateTypeUser = "user"

// CollectionUpdatedData is the payload for cart.updated and wishlist.updated events.
type CollectionUpdatedData struct {
	UserID        string          `json:"user_id"`
	CollectionID  string          `json:"collection_id"`
	Kind          string          `json:"kind"`
	Action        string          `json:"action"`
	ProductID     string          `json:"product_id,omitempty"`
	SelectedColor *string         `json:"selected_color,omitempty"`
	Quantity      *int            `json:"quantity,omitempty"`
	ItemCount     int             `json:"item_count"`
	LineCount     int             `json:"line_count"`
	Total         decimal.Decimal `json:"total"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// publisher is the part of *pkgkafka.Producer used here.
type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes TiaaDeals domain events to Kafka.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// CollectionTopic returns the topic changes to a collection of kind go to.
func CollectionTopic(kind domain.Kind) string {
	if kind == domain.KindWishlist {
		return TopicWishlistUpdated
	}
	return TopicCartUpdated
}

// PublishCollectionUpdated publishes a cart.updated or wishlist.updated event.
func (p *Producer) PublishCollectionUpdated(ctx context.Context, change domain.CollectionChange) error {
	return p.publish(ctx, CollectionTopic(change.Kind),
		pkgkafka.Aggregate{Type: change.Kind.String(), ID: change.CollectionID},
		CollectionUpdatedData{
			UserID:        change.UserID,
			CollectionID:  change.CollectionID,
			Kind:          change.Kind.String(),
			Action:        string(change.Action),
			ProductID:     change.ProductID,
			SelectedColor: change.SelectedColor,
			Quantity:      change.Quantity,
			ItemCount:     change.Summary.ItemCount,
			LineCount:     change.Summary.LineCount,
			Total:         change.Summary.Total,
		})
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered,
		pkgkafka.Aggregate{Type: AggregateTypeUser, ID: user.ID},
		UserRegisteredData{
			UserID:    user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
}

// publish uses the topic name as the event type.
func (p *Producer) publish(ctx context.Context, topic string, agg pkgkafka.Aggregate, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, agg, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "domain event published",
		slog.String("topic", topic),
		slog.String("aggregate_id", agg.ID),
	)
	return nil
}

// LogPublisher records events in the log instead of publishing them. It is
// used when Kafka is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishCollectionUpdated logs the change.
func (p *LogPublisher) PublishCollectionUpdated(ctx context.Context, change domain.CollectionChange) error {
	p.logger.DebugContext(ctx, "collection updated",
		slog.String("kind", change.Kind.String()),
		slog.String("action", string(change.Action)),
		slog.String("user_id", change.UserID),
		slog.Int("item_count", change.Summary.ItemCount),
	)
	return nil
}

// PublishUserRegistered logs the registration.
func (p *LogPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	p.logger.DebugContext(ctx, "user registered", slog.String("user_id", user.ID))
	return nil
}
