package middleware

import (
	"net/http"
	"time"

	"tourcms/internal/metrics"
)

// Metrics records request count and latency labelled by the matched chi
// route pattern, so /tours/{id} is one series regardless of the id.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		metrics.RecordHTTPRequest(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
	})
}
