package wisefetch

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
}

func TestMetricsCollectorRecordRequest(t *testing.T) {
	mc := newTestCollector()

	mc.RecordRequest("GET", "example.com/api", 200, 150*time.Millisecond)
	mc.RecordRequest("GET", "example.com/api", 200, 50*time.Millisecond)
	mc.RecordRequest("POST", "example.com/api", 500, 10*time.Millisecond)

	if got := testutil.ToFloat64(mc.requestsTotal.WithLabelValues("GET", "200", "example.com/api")); got != 2 {
		t.Errorf("Expected 2 GET requests recorded, got %v", got)
	}
	if got := testutil.ToFloat64(mc.requestsTotal.WithLabelValues("POST", "500", "example.com/api")); got != 1 {
		t.Errorf("Expected 1 POST request recorded, got %v", got)
	}
}

func TestMetricsCollectorInFlightGauge(t *testing.T) {
	mc := newTestCollector()

	mc.RecordRequestStart("GET", "example.com/")
	mc.RecordRequestStart("GET", "example.com/")
	if got := testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET", "example.com/")); got != 2 {
		t.Errorf("Expected 2 requests in flight, got %v", got)
	}

	mc.RecordRequestEnd("GET", "example.com/")
	if got := testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET", "example.com/")); got != 1 {
		t.Errorf("Expected 1 request in flight, got %v", got)
	}
}

func TestMetricsCollectorValidationErrors(t *testing.T) {
	mc := newTestCollector()

	mc.RecordValidationError(CodeInvalidOptValue)
	mc.RecordValidationError(CodeInvalidOptValue)
	mc.RecordValidationError("")

	if got := testutil.ToFloat64(mc.validationErrorsTotal.WithLabelValues(CodeInvalidOptValue)); got != 2 {
		t.Errorf("Expected 2 coded validation errors, got %v", got)
	}
	if got := testutil.ToFloat64(mc.validationErrorsTotal.WithLabelValues("aggregate")); got != 1 {
		t.Errorf("Expected an empty code to be recorded as aggregate, got %v", got)
	}
}

func TestMetricsCollectorEngineInitFailures(t *testing.T) {
	mc := newTestCollector()

	mc.RecordEngineInitFailure()
	if got := testutil.ToFloat64(mc.engineInitFailures); got != 1 {
		t.Errorf("Expected 1 engine init failure, got %v", got)
	}
}

func TestClientRecordsMetricsThroughRequestLifecycle(t *testing.T) {
	mc := newTestCollector()
	engine := &stubEngine{resp: &Response{StatusCode: 404, StatusText: "Not Found", URL: "https://example.com/missing"}}
	client := New(
		WithEngine(engine),
		WithEnv(func() Env { return Env{} }),
		WithMetricsCollector(mc),
	)

	if _, err := client.Request(context.Background(), "https://example.com/missing"); err == nil {
		t.Fatal("Expected an error for a 404 response")
	}

	if got := testutil.ToFloat64(mc.requestsTotal.WithLabelValues("GET", "404", "example.com/missing")); got != 1 {
		t.Errorf("Expected the dispatch to be counted, got %v", got)
	}
	if got := testutil.ToFloat64(mc.unsuccessfulTotal.WithLabelValues("GET", "404", "example.com/missing")); got != 1 {
		t.Errorf("Expected the unsuccessful classification to be counted, got %v", got)
	}
	if got := testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET", "example.com/missing")); got != 0 {
		t.Errorf("Expected no requests left in flight, got %v", got)
	}
}

func TestClientRecordsValidationErrorMetric(t *testing.T) {
	mc := newTestCollector()
	client := New(
		WithEngine(&stubEngine{}),
		WithEnv(func() Env { return Env{} }),
		WithMetricsCollector(mc),
	)

	if _, err := client.Request(context.Background(), "https://example.com/", Options{"method": "INVALID"}); err == nil {
		t.Fatal("Expected a validation error")
	}

	if got := testutil.ToFloat64(mc.validationErrorsTotal.WithLabelValues(CodeInvalidOptValue)); got != 1 {
		t.Errorf("Expected 1 validation error recorded, got %v", got)
	}
}
