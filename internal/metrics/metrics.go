// Package metrics provides Prometheus metrics for the API server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus instruments. Metrics register against the
// registerer passed to NewMetrics, so tests can use a private registry.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Workflow metrics
	TransitionsTotal *prometheus.CounterVec

	// Search metrics
	SearchQueriesTotal  *prometheus.CounterVec
	SearchDuration      prometheus.Histogram
	SearchResultsTotal  prometheus.Counter
	AnswerRequestsTotal *prometheus.CounterVec

	// Gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec

	// Webhook / backfill metrics
	WebhookDeliveriesTotal    *prometheus.CounterVec
	EmbeddingsBackfilledTotal prometheus.Counter
}

// NewMetrics creates and registers all instruments against the given
// registerer (use prometheus.DefaultRegisterer in main).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messagesearch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messagesearch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "messagesearch_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	m.TransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messagesearch_workflow_transitions_total",
			Help: "Total number of workflow transitions",
		},
		[]string{"action", "status"},
	)

	m.SearchQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messagesearch_search_queries_total",
			Help: "Total number of search queries",
		},
		[]string{"status"},
	)

	m.SearchDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "messagesearch_search_duration_seconds",
			Help:    "Duration of hybrid search requests in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	m.SearchResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "messagesearch_search_results_total",
			Help: "Total number of search results returned",
		},
	)

	m.AnswerRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messagesearch_answer_requests_total",
			Help: "Total number of answer synthesis requests",
		},
		[]string{"status"},
	)

	m.GatewayRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messagesearch_gateway_requests_total",
			Help: "Total number of AI gateway calls",
		},
		[]string{"provider", "operation", "status"},
	)

	m.GatewayRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messagesearch_gateway_request_duration_seconds",
			Help:    "Duration of AI gateway calls in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	m.WebhookDeliveriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messagesearch_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"status"},
	)

	m.EmbeddingsBackfilledTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "messagesearch_embeddings_backfilled_total",
			Help: "Total number of paragraph embeddings backfilled",
		},
	)

	return m
}

// RecordHTTPRequest records one served HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTransition records a workflow transition attempt
func (m *Metrics) RecordTransition(action, status string) {
	m.TransitionsTotal.WithLabelValues(action, status).Inc()
}

// RecordSearch records one search query
func (m *Metrics) RecordSearch(status string, results int, duration time.Duration) {
	m.SearchQueriesTotal.WithLabelValues(status).Inc()
	m.SearchDuration.Observe(duration.Seconds())
	m.SearchResultsTotal.Add(float64(results))
}

// RecordGatewayRequest records one AI provider call
func (m *Metrics) RecordGatewayRequest(provider, operation, status string, duration time.Duration) {
	m.GatewayRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	m.GatewayRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordWebhookDelivery records one webhook delivery attempt
func (m *Metrics) RecordWebhookDelivery(status string) {
	m.WebhookDeliveriesTotal.WithLabelValues(status).Inc()
}

// AddEmbeddingsBackfilled records a batch of backfilled paragraph embeddings
func (m *Metrics) AddEmbeddingsBackfilled(n int) {
	m.EmbeddingsBackfilledTotal.Add(float64(n))
}
