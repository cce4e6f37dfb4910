// Package metrics exposes the dashboard's Prometheus collectors.
//
// A Collector owns its own registry so tests can create as many as they like
// without colliding on the global default registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records dataset loads and query fallbacks.
type Collector struct {
	registry *prometheus.Registry

	loadsTotal         *prometheus.CounterVec
	loadDuration       *prometheus.HistogramVec
	loadsInFlight      prometheus.Gauge
	datasetSize        prometheus.Gauge
	fallbacksTotal     *prometheus.CounterVec
	notificationsTotal prometheus.Counter

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	streamsActive *prometheus.GaugeVec
}

// New creates a Collector with all collectors registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		loadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "olympics_dataset_loads_total", Help: "Dataset loads by source and outcome (ok or the failure kind)."},
			[]string{"source", "outcome"},
		),
		loadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "olympics_dataset_load_duration_seconds", Help: "Duration of dataset loads in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"source"},
		),
		loadsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "olympics_dataset_loads_in_flight", Help: "Dataset loads currently outstanding."},
		),
		datasetSize: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "olympics_dataset_countries", Help: "Countries in the published snapshot (0 when absent)."},
		),
		fallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "olympics_query_fallbacks_total", Help: "Queries that degraded to their fallback value."},
			[]string{"query"},
		),
		notificationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "olympics_notifications_total", Help: "Notifications sent for failed loads."},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "olympics_http_requests_total", Help: "HTTP requests by route pattern, method and status."},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "olympics_http_request_duration_seconds", Help: "HTTP request latency by route pattern.", Buckets: prometheus.DefBuckets},
			[]string{"route"},
		),
		streamsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "olympics_streams_active", Help: "Open live connections by transport (sse or websocket)."},
			[]string{"transport"},
		),
	}

	c.registry.MustRegister(
		c.loadsTotal,
		c.loadDuration,
		c.loadsInFlight,
		c.datasetSize,
		c.fallbacksTotal,
		c.notificationsTotal,
		c.httpRequests,
		c.httpDuration,
		c.streamsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) LoadStarted(source string) {
	c.loadsInFlight.Inc()
}

func (c *Collector) LoadCompleted(source string, d time.Duration, countries int) {
	c.loadsInFlight.Dec()
	c.loadsTotal.WithLabelValues(source, "ok").Inc()
	c.loadDuration.WithLabelValues(source).Observe(d.Seconds())
	c.datasetSize.Set(float64(countries))
}

func (c *Collector) LoadFailed(source, kind string, d time.Duration) {
	c.loadsInFlight.Dec()
	c.loadsTotal.WithLabelValues(source, kind).Inc()
	c.loadDuration.WithLabelValues(source).Observe(d.Seconds())
	c.datasetSize.Set(0)
	c.notificationsTotal.Inc()
}

func (c *Collector) QueryFallback(query string) {
	c.fallbacksTotal.WithLabelValues(query).Inc()
}

// ObserveRequest records one served HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(route, method string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// StreamOpened counts a live connection for transport.
func (c *Collector) StreamOpened(transport string) {
	c.streamsActive.WithLabelValues(transport).Inc()
}

// StreamClosed releases a live connection for transport.
func (c *Collector) StreamClosed(transport string) {
	c.streamsActive.WithLabelValues(transport).Dec()
}
