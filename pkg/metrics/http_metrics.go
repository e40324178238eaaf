package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts HTTP requests by route pattern.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)

	// ApplicationsSubmitted counts stored applications by their classified status.
	ApplicationsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "applications_submitted_total",
			Help: "Applications persisted by the submission gateway, by initial status",
		},
		[]string{"status"},
	)

	// ApplicationReviews counts staff decisions by target status.
	ApplicationReviews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_reviews_total",
			Help: "Review queue status transitions, by target status",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// HTTPMetrics records per-route request metrics for one service.
type HTTPMetrics struct {
	ServiceName string
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDurationHistogram, ApplicationsSubmitted, ApplicationReviews)
	})
	return &HTTPMetrics{ServiceName: serviceName}
}

// Middleware labels requests by chi route pattern so ids do not explode cardinality.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RequestCounter.WithLabelValues(m.ServiceName, r.Method, path, strconv.Itoa(status)).Inc()
		RequestDurationHistogram.WithLabelValues(m.ServiceName, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
