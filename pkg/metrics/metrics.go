package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "legal_ai"

// MetricsCollector owns its registry so several collectors can live in one
// process (tests build one per server).
type MetricsCollector struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
	operations        *prometheus.CounterVec
	generations       *prometheus.CounterVec
	generationLatency prometheus.Histogram
	agreementStatus   *prometheus.CounterVec
	templateVersions  *prometheus.CounterVec
	dispatches        *prometheus.CounterVec
	documentSize      prometheus.Histogram
}

func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "section_generations_total",
			Help:      "Section content generations by outcome.",
		}, []string{"outcome"}),
		generationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "section_generation_duration_seconds",
			Help:      "Latency of a single section generation call.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		agreementStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agreement_status_transitions_total",
			Help:      "Agreement status writes by target status.",
		}, []string{"status"}),
		templateVersions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_versions_total",
			Help:      "Template versions created by change type.",
		}, []string{"type"}),
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signature_dispatches_total",
			Help:      "E-signature envelope dispatches by outcome.",
		}, []string{"outcome"}),
		documentSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agreement_html_bytes",
			Help:      "Size of rendered agreement HTML.",
			Buckets:   prometheus.ExponentialBuckets(1024, 2, 10),
		}),
	}
}

func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
}

func (mc *MetricsCollector) ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	mc.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	mc.httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// IncrementCounter records one service operation. outcome is usually
// "success" or "failure".
func (mc *MetricsCollector) IncrementCounter(operation, outcome string) {
	mc.operations.WithLabelValues(operation, outcome).Inc()
}

func (mc *MetricsCollector) ObserveGeneration(err error, duration time.Duration) {
	mc.generations.WithLabelValues(outcome(err)).Inc()
	mc.generationLatency.Observe(duration.Seconds())
}

func (mc *MetricsCollector) RecordAgreementStatus(status string) {
	mc.agreementStatus.WithLabelValues(status).Inc()
}

func (mc *MetricsCollector) RecordTemplateVersion(changeType string) {
	mc.templateVersions.WithLabelValues(changeType).Inc()
}

func (mc *MetricsCollector) RecordDispatch(err error) {
	mc.dispatches.WithLabelValues(outcome(err)).Inc()
}

func (mc *MetricsCollector) ObserveSize(bytes int) {
	mc.documentSize.Observe(float64(bytes))
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
