package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedscope_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedscope_http_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	askTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedscope_ask_total",
			Help: "Questions answered, by resolved call and whether keyword fallback was used",
		},
		[]string{"call", "fallback"},
	)

	askDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedscope_ask_duration_seconds",
			Help:    "End-to-end time to answer a question, including model calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	catalogFeeds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedscope_catalog_feeds",
			Help: "Number of feeds in the loaded catalog",
		},
	)
)

type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// prometheusMetrics records request counts and latency by route pattern.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapper.statusCode)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func recordAsk(call string, fallback bool, took time.Duration) {
	askTotal.WithLabelValues(call, strconv.FormatBool(fallback)).Inc()
	askDuration.Observe(took.Seconds())
}
