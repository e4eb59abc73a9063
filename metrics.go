package wisefetch

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle:
// dispatch counts and latency, in-flight requests, validation failures and
// engine initialization failures. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	validationErrorsTotal *prometheus.CounterVec
	unsuccessfulTotal     *prometheus.CounterVec
	engineInitFailures    prometheus.Counter
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wisefetch_requests_total",
				Help: "Total number of HTTP requests dispatched",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wisefetch_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wisefetch_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		validationErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wisefetch_validation_errors_total",
				Help: "Total number of option validation failures",
			},
			[]string{"code"},
		),
		unsuccessfulTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "wisefetch_unsuccessful_responses_total",
				Help: "Total number of responses classified as unsuccessful",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		engineInitFailures: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "wisefetch_engine_init_failures_total",
				Help: "Total number of failed engine initializations",
			},
		),
	}
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRequest records one completed dispatch with its status and latency.
// statusCode 0 means the engine failed before producing a response.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, code, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, code, endpoint).Observe(duration.Seconds())
}

// RecordValidationError counts one validation failure by error code. An
// empty code is recorded as "aggregate" since aggregated reports carry no
// single code.
func (mc *MetricsCollector) RecordValidationError(code string) {
	if code == "" {
		code = "aggregate"
	}
	mc.validationErrorsTotal.WithLabelValues(code).Inc()
}

// RecordUnsuccessfulResponse counts one response classified as a failure.
func (mc *MetricsCollector) RecordUnsuccessfulResponse(method, endpoint string, statusCode int) {
	mc.unsuccessfulTotal.WithLabelValues(method, strconv.Itoa(statusCode), endpoint).Inc()
}

// RecordEngineInitFailure counts one failed engine initialization.
func (mc *MetricsCollector) RecordEngineInitFailure() {
	mc.engineInitFailures.Inc()
}
