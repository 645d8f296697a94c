package service

import (
	"context"

	"github.com/utafrali/TiaaDeals/internal/domain"
)

// EventPublisher publishes domain events. Implementations: event.Producer
// (Kafka) and event.LogPublisher.
type EventPublisher interface {
	PublishCollectionUpdated(ctx context.Context, change domain.CollectionChange) error
	PublishUserRegistered(ctx context.Context, user *domain.User) error
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID, email string) (string, error)
}
