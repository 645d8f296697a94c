package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a snapshot of connection pool counters.
type PoolStats struct {
	Acquired, Idle, Total, Max int32

	Acquires         int64
	CanceledAcquires int64
	EmptyAcquires    int64
	IdleDestroys     int64
	AcquireDuration  time.Duration
}

// StatsOf adapts a pgx pool to the snapshot function PoolStatsCollector reads.
func StatsOf(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired:         s.AcquiredConns(),
			Idle:             s.IdleConns(),
			Total:            s.TotalConns(),
			Max:              s.MaxConns(),
			Acquires:         s.AcquireCount(),
			CanceledAcquires: s.CanceledAcquireCount(),
			EmptyAcquires:    s.EmptyAcquireCount(),
			IdleDestroys:     s.MaxIdleDestroyCount(),
			AcquireDuration:  s.AcquireDuration(),
		}
	}
}

type poolMetric struct {
	desc      *prometheus.Desc
	valueType prometheus.ValueType
	value     func(PoolStats) float64
}

// PoolStatsCollector exports pool snapshots as db_pool_* metrics, read on
// every scrape.
type PoolStatsCollector struct {
	stats   func() PoolStats
	metrics []poolMetric
}

// NewPoolStatsCollector labels every metric with service.
func NewPoolStatsCollector(stats func() PoolStats, service string) *PoolStatsCollector {
	constLabels := prometheus.Labels{"service": service}
	metric := func(vt prometheus.ValueType, name, help string, fn func(PoolStats) float64) poolMetric {
		return poolMetric{prometheus.NewDesc(name, help, nil, constLabels), vt, fn}
	}
	gauge, counter := prometheus.GaugeValue, prometheus.CounterValue

	return &PoolStatsCollector{
		stats: stats,
		metrics: []poolMetric{
			metric(gauge, "db_pool_acquired_connections", "Connections currently checked out.",
				func(s PoolStats) float64 { return float64(s.Acquired) }),
			metric(gauge, "db_pool_idle_connections", "Connections currently idle.",
				func(s PoolStats) float64 { return float64(s.Idle) }),
			metric(gauge, "db_pool_total_connections", "Connections currently open.",
				func(s PoolStats) float64 { return float64(s.Total) }),
			metric(gauge, "db_pool_max_connections", "Configured connection limit.",
				func(s PoolStats) float64 { return float64(s.Max) }),
			metric(counter, "db_pool_acquires_total", "Successful connection acquires.",
				func(s PoolStats) float64 { return float64(s.Acquires) }),
			metric(counter, "db_pool_acquire_seconds_total", "Time spent waiting for connections.",
				func(s PoolStats) float64 { return s.AcquireDuration.Seconds() }),
			metric(counter, "db_pool_canceled_acquires_total", "Acquires abandoned because the context ended.",
				func(s PoolStats) float64 { return float64(s.CanceledAcquires) }),
			metric(counter, "db_pool_empty_acquires_total", "Acquires that had to wait for a free connection.",
				func(s PoolStats) float64 { return float64(s.EmptyAcquires) }),
			metric(counter, "db_pool_idle_destroys_total", "Connections closed for exceeding the idle time.",
				func(s PoolStats) float64 { return float64(s.IdleDestroys) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.valueType, m.value(s))
	}
}

// RegisterPoolMetrics registers a collector for pool with reg.
func RegisterPoolMetrics(reg prometheus.Registerer, pool *pgxpool.Pool, service string) error {
	return reg.Register(NewPoolStatsCollector(StatsOf(pool), service))
}
