package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "idportal"

var (
	// Registry holds the portal's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	statusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "status_changes_total",
			Help:      "Application status decisions by target status.",
		},
		[]string{"status"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "submissions_total",
			Help:      "Application submissions by applicant type and outcome.",
		},
		[]string{"user_type", "result"},
	)

	deletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "deletions_total",
			Help:      "Application deletions by mode (soft or hard).",
		},
		[]string{"mode"},
	)

	storageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "failures_total",
			Help:      "Best-effort storage operations that failed.",
		},
		[]string{"op"},
	)

	otpSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "otp",
			Name:      "sent_total",
			Help:      "OTP send attempts by outcome.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		statusChanges,
		submissions,
		deletions,
		storageFailures,
		otpSent,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func TrackInFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveHTTP records a finished request. route is the matched route pattern, not the raw path.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordStatusChange counts an admin decision.
func RecordStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

// RecordSubmission counts a submission attempt; result is "ok" or a short failure reason.
func RecordSubmission(userType, result string) {
	submissions.WithLabelValues(userType, result).Inc()
}

// RecordDeletion counts a soft or hard delete.
func RecordDeletion(mode string) {
	deletions.WithLabelValues(mode).Inc()
}

// RecordStorageFailure counts a failed best-effort storage call.
func RecordStorageFailure(op string) {
	storageFailures.WithLabelValues(op).Inc()
}

// RecordOTP counts an OTP send outcome.
func RecordOTP(result string) {
	otpSent.WithLabelValues(result).Inc()
}
