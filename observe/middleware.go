package observe

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/RyanBlaney/sonido-meter/logging"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by the downstream handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware assigns a request id (keeping a client supplied X-Request-ID),
// attaches it to the context logging fields, records the request duration and
// logs completion.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := logging.ContextWithFields(r.Context(), logging.Fields{"request_id": requestID})
			r = r.WithContext(ctx)

			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			if m != nil {
				m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
					metric.WithAttributes(
						attribute.String("method", r.Method),
						attribute.String("route", route(r)),
						attribute.String("code", strconv.Itoa(rec.statusCode)),
					),
				)
			}

			logging.WithContext(ctx).Info("Request completed", logging.Fields{
				"component": "http",
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    rec.statusCode,
				"duration":  duration.Seconds(),
			})
		})
	}
}

// route is the matched mux pattern, or "unmatched"
func route(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

// RequestID returns the id assigned by Middleware, if any
func RequestID(r *http.Request) string {
	if id, ok := logging.FieldsFromContext(r.Context())["request_id"].(string); ok {
		return id
	}
	return ""
}
