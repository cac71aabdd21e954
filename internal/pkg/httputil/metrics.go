package httputil

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bissquit/quotedesk/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MetricsMiddleware observes request latency per route pattern and keeps
// the in-flight gauge. It must run first so the whole chain is measured.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestDuration.WithLabelValues(
			r.Method,
			routeLabel(r),
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())
	})
}

// routeLabel returns the matched chi pattern. Raw paths would make label
// cardinality unbounded. Requests answered before routing, such as guard
// redirects and 404s, share one label.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
