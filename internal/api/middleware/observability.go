package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/zatekoja/transcript-triage/backend/internal/infrastructure/observability"
	"go.opentelemetry.io/otel/attribute"
)

const unmatchedRoute = "unmatched"

// ObservabilityMiddleware traces each request and records request metrics
// keyed by the matched route pattern. Lead streams are traced but kept out of
// the duration histogram since they last as long as the client stays connected.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := observability.StartSpan(r.Context(), "HTTP "+r.Method)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.user_agent", r.UserAgent()),
			)
			if actorID := strings.TrimSpace(r.Header.Get("X-Actor-Id")); actorID != "" {
				observability.SetSpanAttributes(span, attribute.String("triage.actor_id", actorID))
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			// The mux records the matched pattern on the request it is given.
			req := r.WithContext(ctx)

			start := time.Now()
			next.ServeHTTP(rw, req)
			duration := time.Since(start)

			route := routeOf(req)
			span.SetName(route)
			observability.SetSpanAttributes(span,
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rw.statusCode),
			)
			if id := req.PathValue("id"); id != "" {
				observability.SetSpanAttributes(span, attribute.String("triage.resource_id", id))
			}
			if transcriptID := req.URL.Query().Get("transcript_id"); transcriptID != "" {
				observability.SetSpanAttributes(span, attribute.String("triage.transcript_id", transcriptID))
			}

			if isEventStream(rw) {
				observability.SetSpanAttributes(span, attribute.Bool("http.streamed", true))
				return
			}
			observability.RecordRequestMetric(ctx, metrics, r.Method, route, rw.statusCode, duration)
		})
	}
}

// routeOf returns the matched pattern, never the raw path, so lead and
// transcript ids stay out of metric labels.
func routeOf(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return unmatchedRoute
}

func isEventStream(rw *responseWriter) bool {
	return strings.HasPrefix(rw.Header().Get("Content-Type"), "text/event-stream")
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Flush keeps streaming responses working through the wrapper
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
