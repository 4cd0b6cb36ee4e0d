package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "groomify",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groomify",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "groomify",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	mlAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groomify",
			Subsystem: "ml",
			Name:      "attempts_total",
			Help:      "ML analysis HTTP attempts by outcome.",
		},
		[]string{"outcome"},
	)

	mlDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "groomify",
			Subsystem: "ml",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of single ML analysis attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
	)

	analyses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "groomify",
			Subsystem: "analysis",
			Name:      "submissions_total",
			Help:      "Analysis submissions by terminal state.",
		},
		[]string{"state"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		mlAttempts,
		mlDuration,
		analyses,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RequestStarted() { httpInFlight.Inc() }

func RequestFinished(method, path string, status int, d time.Duration) {
	httpInFlight.Dec()
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// MLRecorder records ML client attempts into the registry.
type MLRecorder struct{}

func (MLRecorder) ObserveAttempt(outcome string, d time.Duration) {
	mlAttempts.WithLabelValues(outcome).Inc()
	mlDuration.Observe(d.Seconds())
}

func RecordAnalysis(state string) {
	analyses.WithLabelValues(state).Inc()
}
