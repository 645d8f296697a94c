package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/TiaaDeals/pkg/logger"
)

// Tracing opens a server span per request, continuing any W3C trace context
// the caller sent and echoing it on the response. The span is renamed to the
// chi route pattern after routing. Requests whose path is in skipPaths are
// not traced.
func Tracing(serviceName string, skipPaths ...string) func(http.Handler) http.Handler {
	tracer := otel.Tracer("github.com/utafrali/TiaaDeals/pkg/middleware",
		trace.WithInstrumentationAttributes(attribute.String("service.name", serviceName)))
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			prop := otel.GetTextMapPropagator()
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(requestAttrs(ctx, r)...),
			)
			defer span.End()

			sw := newStatusWriter(w)
			prop.Inject(ctx, propagation.HeaderCarrier(sw.Header()))
			next.ServeHTTP(sw, r.WithContext(ctx))

			finishSpan(span, r, sw)
		})
	}
}

func requestAttrs(ctx context.Context, r *http.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.URLPath(r.URL.Path),
		semconv.URLScheme(scheme(r)),
		semconv.UserAgentOriginal(r.UserAgent()),
		semconv.ClientAddress(r.RemoteAddr),
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("tiaadeals.correlation_id", id))
	}
	return attrs
}

// finishSpan records the outcome. Only 5xx responses mark the span failed.
func finishSpan(span trace.Span, r *http.Request, sw *statusWriter) {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			span.SetName(r.Method + " " + pattern)
			span.SetAttributes(semconv.HTTPRoute(pattern))
		}
	}
	span.SetAttributes(
		semconv.HTTPResponseStatusCode(sw.status),
		semconv.HTTPResponseBodySize(sw.bytes),
	)
	if sw.status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(sw.status))
	}
}

// scheme prefers the TLS state, then X-Forwarded-Proto.
func scheme(r *http.Request) string {
	switch {
	case r.TLS != nil:
		return "https"
	case r.Header.Get("X-Forwarded-Proto") != "":
		return r.Header.Get("X-Forwarded-Proto")
	default:
		return "http"
	}
}
