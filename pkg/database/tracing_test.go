package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func resetObserver(t *testing.T) {
	t.Helper()
	observer.Store(nil)
	t.Cleanup(func() { observer.Store(nil) })
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[string]string {
	attrs := make(map[string]string)
	for _, a := range s.Attributes() {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	return attrs
}

func TestTraceQuery_RecordsSpanAttributes(t *testing.T) {
	exporter := setupTestTracer(t)
	resetObserver(t)

	_, end := TraceQuery(context.Background(), "AddItem", `
		INSERT INTO collection_items (collection_id)
		VALUES ($1)`)
	end(nil)

	spans := exporter.GetSpans().Snapshots()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.AddItem", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "postgresql", attrs["db.system.name"])
	assert.Equal(t, "AddItem", attrs["db.operation.name"])
	assert.Equal(t, "INSERT INTO collection_items (collection_id) VALUES ($1)", attrs["db.query.text"])
	assert.Equal(t, "ok", attrs["db.result"])
}

func TestTraceQuery_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantResult string
		wantStatus codes.Code
	}{
		{"success", nil, "ok", codes.Unset},
		{"no rows", pgx.ErrNoRows, "not_found", codes.Unset},
		{"translated not found", fmt.Errorf("get product: %w", apperrors.NotFound("product", "p1")), "not_found", codes.Unset},
		{"failure", errors.New("connection refused"), "error", codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := setupTestTracer(t)
			resetObserver(t)

			_, end := TraceQuery(context.Background(), "GetProductByID", "SELECT 1")
			end(tt.err)

			spans := exporter.GetSpans().Snapshots()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status().Code)
			assert.Equal(t, tt.wantResult, spanAttrs(spans[0])["db.result"])
			if tt.wantStatus == codes.Error {
				assert.NotEmpty(t, spans[0].Events(), "error event should be recorded")
			}
		})
	}
}

func TestRegisterQueryMetrics(t *testing.T) {
	setupTestTracer(t)
	resetObserver(t)

	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterQueryMetrics(reg))
	assert.Error(t, RegisterQueryMetrics(reg), "second registration must fail")

	for range 3 {
		_, end := TraceQuery(context.Background(), "FindCollection", "SELECT 1")
		end(nil)
	}
	_, end := TraceQuery(context.Background(), "FindCollection", "SELECT 1")
	end(pgx.ErrNoRows)

	count, err := testutil.GatherAndCount(reg, "db_query_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per (operation, result)")
}

func TestSlowQueryLogging(t *testing.T) {
	setupTestTracer(t)

	tests := []struct {
		name      string
		threshold time.Duration
		err       error
		wantLog   bool
	}{
		{"slow query logged", time.Nanosecond, nil, true},
		{"slow failing query logs error", time.Nanosecond, errors.New("unique constraint violation"), true},
		{"fast query not logged", time.Hour, nil, false},
		{"disabled", 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetObserver(t)
			var buf bytes.Buffer
			SetSlowQueryLogging(tt.threshold, slog.New(slog.NewJSONHandler(&buf, nil)))

			_, end := TraceQuery(context.Background(), "FindCollection", "SELECT id\n\t\tFROM collections")
			time.Sleep(time.Millisecond)
			end(tt.err)

			if !tt.wantLog {
				assert.NotContains(t, buf.String(), "slow query")
				return
			}
			assert.Contains(t, buf.String(), "slow query")
			assert.Contains(t, buf.String(), "FindCollection")
			assert.Contains(t, buf.String(), "SELECT id FROM collections")
			if tt.err != nil {
				assert.Contains(t, buf.String(), tt.err.Error())
			}
		})
	}
}

func TestCompactStatement_Truncates(t *testing.T) {
	long := "SELECT " + strings.Repeat("col, ", 200) + "id FROM products"
	got := compactStatement(long)
	assert.LessOrEqual(t, len(got), maxStatementLen+len("…"))
	assert.True(t, strings.HasSuffix(got, "…"))
}
