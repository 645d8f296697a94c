package kafka

import "github.com/prometheus/client_golang/prometheus"

// ProducerMetrics records publish outcomes and latency per topic.
type ProducerMetrics struct {
	messages *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewProducerMetrics creates the producer collectors and registers them with reg.
func NewProducerMetrics(reg prometheus.Registerer) (*ProducerMetrics, error) {
	m := &ProducerMetrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafka_producer_messages_total",
			Help: "Kafka messages produced, by topic and result (ok or error).",
		}, []string{"topic", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Time spent writing a message to Kafka.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"topic"}),
	}
	if err := reg.Register(m.messages); err != nil {
		return nil, err
	}
	if err := reg.Register(m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ProducerMetrics) observe(topic string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(topic).Observe(seconds)
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, result).Inc()
}
