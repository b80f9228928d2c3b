package httpmiddleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry is the subset of the application telemetry the middleware needs.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Instrument returns a middleware that records a server span and a request
// duration histogram per request.
func Instrument(serviceName string, t Telemetry) Middleware {
	tracer := t.TracerProvider().Tracer(serviceName)
	meter := t.MeterProvider().Meter(serviceName)

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("HTTP server request duration"),
	)
	if err != nil {
		// Metrics are best-effort; fall back to tracing only.
		duration = nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r.WithContext(ctx))

			attrs := []attribute.KeyValue{
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.Int("http.response.status_code", sw.status),
			}
			span.SetAttributes(attrs...)
			if duration != nil {
				duration.Record(ctx, time.Since(start).Seconds(),
					metric.WithAttributes(
						attribute.String("http.request.method", r.Method),
						attribute.String("http.response.status_code", strconv.Itoa(sw.status)),
					),
				)
			}
		})
	}
}
