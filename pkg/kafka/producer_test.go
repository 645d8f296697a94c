package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/TiaaDeals/pkg/logger"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

type cartPayload struct {
	UserID    string `json:"user_id"`
	LineCount int    `json:"line_count"`
}

func TestNewEvent(t *testing.T) {
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	event, err := NewEvent(ctx, "cart.updated", Aggregate{Type: "cart", ID: "coll-1"}, cartPayload{UserID: "u1", LineCount: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.updated", event.EventType)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, "coll-1", event.AggregateID)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.OccurredAt, 2*time.Second)

	var got cartPayload
	require.NoError(t, event.DecodeData(&got))
	assert.Equal(t, cartPayload{UserID: "u1", LineCount: 2}, got)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent(context.Background(), "cart.updated", Aggregate{Type: "cart", ID: "coll-1"}, make(chan int))
	assert.ErrorContains(t, err, "cart.updated")
}

func TestEvent_DecodeDataWrongShape(t *testing.T) {
	event := &Event{EventType: "user.registered", Data: []byte(`"text"`)}
	var target cartPayload
	assert.ErrorContains(t, event.DecodeData(&target), "decode user.registered payload")
}

func TestDecodeEvent_Invalid(t *testing.T) {
	_, err := DecodeEvent([]byte(`{broken`))
	assert.Error(t, err)

	_, err = DecodeEvent(nil)
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "tiaadeals.cart.updated", Topic("cart", "updated"))
	assert.Equal(t, "tiaadeals.wishlist.updated", Topic("wishlist", "updated"))
	assert.Equal(t, "tiaadeals.user.registered", Topic("user", "registered"))
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, []string{"localhost:9092"}, "tiaadeals-api", nil, nil)

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	event, err := NewEvent(ctx, "cart.updated", Aggregate{Type: "cart", ID: "coll-1"}, cartPayload{UserID: "u1"})
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, Topic("cart", "updated"), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "tiaadeals.cart.updated", msg.Topic)
	assert.Equal(t, "coll-1", string(msg.Key))
	assert.Equal(t, "cart.updated", header(msg, "event_type"))
	assert.Equal(t, "tiaadeals-api", header(msg, "source"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))

	decoded, err := DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "tiaadeals-api", decoded.Source)
}

func TestProducer_PublishInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := newProducer(w, nil, "tiaadeals-api", nil, nil)
	event, err := NewEvent(ctx, "user.registered", Aggregate{Type: "user", ID: "u1"}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, Topic("user", "registered"), event))
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.msgs[0], "traceparent"))
}

func TestProducer_PublishFailureCounted(t *testing.T) {
	metrics, err := NewProducerMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, nil, "tiaadeals-api", metrics, nil)
	event, err := NewEvent(context.Background(), "cart.updated", Aggregate{Type: "cart", ID: "coll-1"}, nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "tiaadeals.cart.updated", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiaadeals.cart.updated")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.messages.WithLabelValues("tiaadeals.cart.updated", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.messages.WithLabelValues("tiaadeals.cart.updated", "ok")))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, nil, "", nil, nil).Close())
	assert.True(t, w.closed)
}

func TestNewProducer_DoesNotConnect(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}, "tiaadeals-api"), nil, nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestPingBrokers_ReportsEveryBroker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := PingBrokers(ctx, []string{"127.0.0.1:1", "127.0.0.1:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Contains(t, err.Error(), "127.0.0.1:2")
}

func TestHeaders_Carrier(t *testing.T) {
	h := headers{{Key: "existing", Value: []byte("v1")}}

	assert.Equal(t, "v1", h.Get("existing"))
	assert.Empty(t, h.Get("missing"))

	h.Set("existing", "v2")
	h.Set("new", "v3")
	assert.Equal(t, "v2", h.Get("existing"))
	assert.Equal(t, []string{"existing", "new"}, h.Keys())
	assert.Len(t, h, 2)
}
