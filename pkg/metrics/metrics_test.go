package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsAreIsolated(t *testing.T) {
	a := NewMetricsCollector()
	b := NewMetricsCollector()

	a.IncrementCounter("agreement.generate", "success")
	a.IncrementCounter("agreement.generate", "success")

	if got := testutil.ToFloat64(a.operations.WithLabelValues("agreement.generate", "success")); got != 2 {
		t.Fatalf("a operations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(b.operations.WithLabelValues("agreement.generate", "success")); got != 0 {
		t.Fatalf("b operations = %v, want 0", got)
	}
}

func TestGenerationOutcome(t *testing.T) {
	mc := NewMetricsCollector()
	mc.ObserveGeneration(nil, 10*time.Millisecond)
	mc.ObserveGeneration(errors.New("boom"), 10*time.Millisecond)
	mc.ObserveGeneration(errors.New("boom"), 10*time.Millisecond)

	if got := testutil.ToFloat64(mc.generations.WithLabelValues("failure")); got != 2 {
		t.Fatalf("failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(mc.generations.WithLabelValues("success")); got != 1 {
		t.Fatalf("successes = %v, want 1", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	mc := NewMetricsCollector()
	mc.ObserveHTTPRequest("/templates/:id", "GET", 200, 5*time.Millisecond)
	mc.RecordTemplateVersion("MINOR")

	rec := httptest.NewRecorder()
	mc.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`legal_ai_http_requests_total{method="GET",route="/templates/:id",status="200"} 1`,
		`legal_ai_template_versions_total{type="MINOR"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
