// Package metrics exposes Prometheus metrics for layout passes, drag commits
// and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds a private registry so tests can create as many as they like
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	layoutPasses        *prometheus.CounterVec
	layoutDuration      *prometheus.HistogramVec
	layoutNodes         *prometheus.GaugeVec
	layoutEdges         *prometheus.GaugeVec
	droppedConnections  *prometheus.CounterVec
	commits             *prometheus.CounterVec
	activeSessions      prometheus.Gauge
}

// New creates a fresh registry with every metric registered
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circuitmap",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests processed",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "circuitmap",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		layoutPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circuitmap",
			Name:      "layout_passes_total",
			Help:      "Layout passes run, by mode",
		}, []string{"mode"}),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "circuitmap",
			Name:      "layout_pass_duration_seconds",
			Help:      "Duration of a layout pass from placement to shaped edges",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"mode"}),
		layoutNodes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "circuitmap",
			Name:      "layout_nodes",
			Help:      "Nodes placed by the latest layout pass, by mode",
		}, []string{"mode"}),
		layoutEdges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "circuitmap",
			Name:      "layout_edges",
			Help:      "Edges routed by the latest layout pass, by mode",
		}, []string{"mode"}),
		droppedConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circuitmap",
			Name:      "dropped_connections_total",
			Help:      "Connections that produced no edge, by reason",
		}, []string{"reason"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circuitmap",
			Name:      "coordinate_commits_total",
			Help:      "Site coordinates committed at the end of a drag",
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "circuitmap",
			Name:      "viewport_sessions",
			Help:      "Open interactive viewport sessions",
		}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpRequestDuration,
		m.layoutPasses,
		m.layoutDuration,
		m.layoutNodes,
		m.layoutEdges,
		m.droppedConnections,
		m.commits,
		m.activeSessions,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records a single HTTP request/response cycle
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveLayoutPass records one layout pass
func (m *Metrics) ObserveLayoutPass(mode string, nodes, edges int, duration time.Duration) {
	if m == nil {
		return
	}
	m.layoutPasses.WithLabelValues(mode).Inc()
	m.layoutDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.layoutNodes.WithLabelValues(mode).Set(float64(nodes))
	m.layoutEdges.WithLabelValues(mode).Set(float64(edges))
}

// AddDroppedConnections counts connections dropped for reason
func (m *Metrics) AddDroppedConnections(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedConnections.WithLabelValues(reason).Add(float64(n))
}

// IncCommit counts a drag commit, ok or failed
func (m *Metrics) IncCommit(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.commits.WithLabelValues(result).Inc()
}

// SetActiveSessions records the number of open viewport sessions
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// Handler exposes the registry over HTTP
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
