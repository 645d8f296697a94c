package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

const (
	tracerName = "github.com/utafrali/TiaaDeals/pkg/database"

	// maxStatementLen caps the SQL text attached to spans and logs.
	maxStatementLen = 512
)

// Query outcomes, used as the result label and span attribute.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

// queryObserver is the process-wide query instrumentation. Readers load it
// atomically; writers copy it under observerMu.
type queryObserver struct {
	slowThreshold time.Duration
	logger        *slog.Logger
	duration      *prometheus.HistogramVec
}

var (
	observerMu sync.Mutex
	observer   atomic.Pointer[queryObserver]
)

func updateObserver(fn func(o *queryObserver)) {
	observerMu.Lock()
	defer observerMu.Unlock()
	next := queryObserver{}
	if cur := observer.Load(); cur != nil {
		next = *cur
	}
	fn(&next)
	observer.Store(&next)
}

// SetSlowQueryLogging logs queries slower than threshold at Warn. A zero
// threshold or nil logger turns it off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	updateObserver(func(o *queryObserver) {
		o.slowThreshold = threshold
		o.logger = logger
	})
}

// RegisterQueryMetrics records the latency of every traced query in
// db_query_duration_seconds, labelled by operation and result.
func RegisterQueryMetrics(reg prometheus.Registerer) error {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Latency of database queries by operation and result",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation", "result"})
	if err := reg.Register(duration); err != nil {
		return err
	}
	updateObserver(func(o *queryObserver) { o.duration = duration })
	return nil
}

// TraceQuery starts a client span for a database operation. The returned
// function must be called with the operation's error when it completes:
//
//	ctx, end := database.TraceQuery(ctx, "AddItem", query)
//	defer func() { end(err) }()
//
// A missing row is an expected outcome and does not mark the span failed.
func TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	statement = compactStatement(statement)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system.name", "postgresql"),
			attribute.String("db.operation.name", operation),
			attribute.String("db.query.text", statement),
		),
	)

	return ctx, func(err error) {
		elapsed := time.Since(start)
		result := queryResult(err)

		span.SetAttributes(attribute.String("db.result", result))
		if result == resultError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		o := observer.Load()
		if o == nil {
			return
		}
		if o.duration != nil {
			o.duration.WithLabelValues(operation, result).Observe(elapsed.Seconds())
		}
		if o.slowThreshold <= 0 || o.logger == nil || elapsed < o.slowThreshold {
			return
		}
		attrs := []any{
			slog.String("operation", operation),
			slog.String("statement", statement),
			slog.Duration("duration", elapsed),
			slog.String("result", result),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		o.logger.WarnContext(ctx, "slow query", attrs...)
	}
}

func queryResult(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, apperrors.ErrNotFound):
		return resultNotFound
	default:
		return resultError
	}
}

// compactStatement collapses the indentation of multi-line SQL literals into
// single spaces and truncates very long statements.
func compactStatement(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) > maxStatementLen {
		sql = sql[:maxStatementLen] + "…"
	}
	return sql
}
