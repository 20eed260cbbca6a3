package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	complaintsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_submitted_total",
			Help: "Total number of complaints submitted",
		},
		[]string{"category", "priority"},
	)

	complaintStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_status_changes_total",
			Help: "Total number of complaint status changes",
		},
		[]string{"to_status"},
	)

	complaintsAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "complaints_assigned_total",
			Help: "Total number of complaint assignments",
		},
	)

	attachmentsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attachments_stored_total",
			Help: "Total number of attachment files stored",
		},
	)
)

func RecordComplaintSubmitted(category, priority string) {
	complaintsSubmitted.WithLabelValues(category, priority).Inc()
}

func RecordStatusChange(toStatus string) {
	complaintStatusChanges.WithLabelValues(toStatus).Inc()
}

func RecordAssignment() {
	complaintsAssigned.Inc()
}

func RecordAttachmentStored() {
	attachmentsStored.Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware records request counts, durations and in-flight gauge.
// The path label uses the route pattern, not the raw URL, to keep
// cardinality bounded.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routePattern resolves after the router has matched, so it is read once
// the handler chain returns.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
