package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TiaaDeals/internal/domain"
	pkgkafka "github.com/utafrali/TiaaDeals/pkg/kafka"
	"github.com/utafrali/TiaaDeals/pkg/logger"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic, event})
	return nil
}

func newTestProducer(pub publisher) *Producer {
	return &Producer{kafka: pub, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "tiaadeals.cart.updated", TopicCartUpdated)
	assert.Equal(t, "tiaadeals.wishlist.updated", TopicWishlistUpdated)
	assert.Equal(t, "tiaadeals.user.registered", TopicUserRegistered)
}

func TestCollectionTopic(t *testing.T) {
	assert.Equal(t, TopicCartUpdated, CollectionTopic(domain.KindCart))
	assert.Equal(t, TopicWishlistUpdated, CollectionTopic(domain.KindWishlist))
}

func TestPublishCollectionUpdated_RoutesByKind(t *testing.T) {
	tests := []struct {
		kind  domain.Kind
		topic string
	}{
		{domain.KindCart, TopicCartUpdated},
		{domain.KindWishlist, TopicWishlistUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			pub := &fakePublisher{}
			p := newTestProducer(pub)
			qty := 5
			ctx := logger.WithCorrelationID(context.Background(), "corr-1")

			err := p.PublishCollectionUpdated(ctx, domain.CollectionChange{
				UserID:       "u1",
				CollectionID: "c1",
				Kind:         tt.kind,
				Action:       domain.ActionItemAdded,
				ProductID:    "p1",
				Quantity:     &qty,
				Summary:      domain.Summary{ItemCount: 5, LineCount: 1, Total: decimal.NewFromInt(2495)},
			})
			require.NoError(t, err)
			require.Len(t, pub.sent, 1)

			sent := pub.sent[0]
			assert.Equal(t, tt.topic, sent.topic)
			assert.Equal(t, tt.topic, sent.event.EventType)
			assert.Equal(t, "c1", sent.event.AggregateID)
			assert.Equal(t, "corr-1", sent.event.CorrelationID)

			var data CollectionUpdatedData
			require.NoError(t, sent.event.DecodeData(&data))
			assert.Equal(t, "item_added", data.Action)
			assert.Equal(t, 5, data.ItemCount)
			assert.True(t, data.Total.Equal(decimal.NewFromInt(2495)))
		})
	}
}

func TestPublishUserRegistered(t *testing.T) {
	pub := &fakePublisher{}
	p := newTestProducer(pub)

	err := p.PublishUserRegistered(context.Background(), &domain.User{
		ID: "u1", Email: "asha@example.com", FirstName: "Asha", PasswordHash: "secret-hash",
	})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, TopicUserRegistered, pub.sent[0].topic)
	assert.Equal(t, AggregateTypeUser, pub.sent[0].event.AggregateType)
	assert.NotContains(t, string(pub.sent[0].event.Data), "secret-hash")
}

func TestPublish_Error(t *testing.T) {
	p := newTestProducer(&fakePublisher{err: errors.New("broker down")})

	err := p.PublishUserRegistered(context.Background(), &domain.User{ID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestLogPublisher_NeverFails(t *testing.T) {
	p := NewLogPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, p.PublishCollectionUpdated(context.Background(), domain.CollectionChange{Kind: domain.KindCart}))
	assert.NoError(t, p.PublishUserRegistered(context.Background(), &domain.User{ID: "u1"}))
}
