// Package metrics exposes topoview's Prometheus metrics.
//
// A [Registry] owns its own prometheus.Registry and implements the hook
// interfaces of the observability package, so wiring it up is:
//
//	m := metrics.NewRegistry()
//	observability.SetPollHooks(m)
//	observability.SetSceneHooks(m)
//	observability.SetAlertHooks(m)
//	observability.SetHTTPHooks(m)
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "topoview"

// Registry holds all metrics for the application.
type Registry struct {
	// Poll metrics
	PollCyclesTotal    *prometheus.CounterVec
	PollDuration       prometheus.Histogram
	PollSkippedTotal   *prometheus.CounterVec
	PollOutOfOrder     prometheus.Counter
	LastSuccessfulPoll prometheus.Gauge
	TopologyNodes      prometheus.Gauge

	// Scene metrics
	SceneEdges              prometheus.Gauge
	SceneBuildDuration      prometheus.Histogram
	DanglingReferencesTotal *prometheus.CounterVec

	// Alert metrics
	AlertsTotal          *prometheus.CounterVec
	AlertDeliveriesTotal *prometheus.CounterVec

	// Backend client metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration prometheus.Histogram
	BackendErrorsTotal     prometheus.Counter

	// HTTP server metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SSEClients          prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized, plus the
// standard Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initPollMetrics()
	r.initSceneMetrics()
	r.initAlertMetrics()
	r.initBackendMetrics()
	r.initHTTPMetrics()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordHTTPRequest records one request served by the HTTP surface.
func (r *Registry) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (r *Registry) initPollMetrics() {
	f := promauto.With(r.registry)

	r.PollCyclesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles by result code",
		},
		[]string{"result"},
	)

	r.PollDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a poll cycle including fetch and scene build",
			Buckets:   prometheus.DefBuckets,
		},
	)

	r.PollSkippedTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_skipped_total",
			Help:      "Poll ticks skipped because a fetch was in flight",
		},
		[]string{"reason"},
	)

	r.PollOutOfOrder = f.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_out_of_order_total",
			Help:      "Fetch completions discarded because a newer one was applied",
		},
	)

	r.LastSuccessfulPoll = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_poll_timestamp_seconds",
			Help:      "Unix time of the last successful poll",
		},
	)

	r.TopologyNodes = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "topology_nodes",
			Help:      "Nodes in the last accepted topology document",
		},
	)
}

func (r *Registry) initSceneMetrics() {
	f := promauto.With(r.registry)

	r.SceneEdges = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scene_edges",
			Help:      "Edges in the last built scene",
		},
	)

	r.SceneBuildDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scene_build_duration_seconds",
			Help:      "Time spent laying out and building a scene",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	r.DanglingReferencesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dangling_references_total",
			Help:      "Connections naming an unknown node id",
		},
		[]string{"category"},
	)
}

func (r *Registry) initAlertMetrics() {
	f := promauto.With(r.registry)

	r.AlertsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Nodes that entered the critical state",
		},
		[]string{"category"},
	)

	r.AlertDeliveriesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_deliveries_total",
			Help:      "Alert notifier attempts by notifier and result",
		},
		[]string{"notifier", "result"},
	)
}

func (r *Registry) initBackendMetrics() {
	f := promauto.With(r.registry)

	r.BackendRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests to the topology backend by status code",
		},
		[]string{"method", "status"},
	)

	r.BackendRequestDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of topology backend requests",
			Buckets:   prometheus.DefBuckets,
		},
	)

	r.BackendErrorsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Transport-level failures talking to the topology backend",
		},
	)
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)

	r.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	r.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	r.SSEClients = f.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Connected scene event stream clients",
		},
	)
}
