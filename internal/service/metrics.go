package service

import "github.com/prometheus/client_golang/prometheus"

// CollectionMetrics counts cart and wishlist operations by outcome.
type CollectionMetrics struct {
	operations *prometheus.CounterVec
}

// NewCollectionMetrics creates the collection collectors and registers them with reg.
func NewCollectionMetrics(reg prometheus.Registerer) (*CollectionMetrics, error) {
	m := &CollectionMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collection_operations_total",
			Help: "Total number of cart and wishlist operations",
		}, []string{"kind", "operation", "result"}),
	}
	if err := reg.Register(m.operations); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CollectionMetrics) observe(kind, operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(kind, operation, result).Inc()
}
