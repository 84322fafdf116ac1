// Package metrics exposes Prometheus collectors for renders, submissions,
// bulk actions and embed generation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formsuite/pkg/submission"
)

const namespace = "formsuite"

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	registry    *prometheus.Registry
	renders     *prometheus.CounterVec
	renderTime  *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	bulkIDs     *prometheus.CounterVec
	embeds      *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

var _ submission.Observer = (*Metrics)(nil)

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Rendered surfaces by surface and result.",
		}, []string{"surface", "result"}),
		renderTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a surface.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"surface"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submit attempts by outcome.",
		}, []string{"outcome"}),
		bulkIDs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_action_ids_total",
			Help:      "Submission ids processed by bulk actions, by action and result.",
		}, []string{"action", "result"}),
		embeds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embed_snippets_total",
			Help:      "Generated embed snippets by kind.",
		}, []string{"kind"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.renders, m.renderTime, m.submissions, m.bulkIDs, m.embeds, m.requests,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRender records one render of surface.
func (m *Metrics) ObserveRender(surface string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.renders.WithLabelValues(surface, result).Inc()
	m.renderTime.WithLabelValues(surface).Observe(elapsed.Seconds())
}

// ObserveEmbed records one generated snippet.
func (m *Metrics) ObserveEmbed(kind string) {
	m.embeds.WithLabelValues(kind).Inc()
}

// SubmitObserved implements submission.Observer. The form id is not used as
// a label to keep cardinality bounded.
func (m *Metrics) SubmitObserved(_ string, outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// BulkObserved implements submission.Observer.
func (m *Metrics) BulkObserved(action submission.BulkActionType, succeeded, failed int) {
	m.bulkIDs.WithLabelValues(string(action), "succeeded").Add(float64(succeeded))
	m.bulkIDs.WithLabelValues(string(action), "failed").Add(float64(failed))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
