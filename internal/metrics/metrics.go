package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDurationMs *prometheus.HistogramVec

	assetOpsTotal     *prometheus.CounterVec
	assetOpDurationMs *prometheus.HistogramVec
	uploadBytesTotal  prometheus.Counter
	uploadsRejected   *prometheus.CounterVec
	ownershipDenied   prometheus.Counter

	eventsConnections prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{registry: reg}

	m.httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	m.httpRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 12),
	}, []string{"method", "route"})

	m.assetOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_ops_total",
		Help: "Total number of asset store operations.",
	}, []string{"op", "status"})
	m.assetOpDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asset_op_duration_ms",
		Help:    "Asset store operation duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 14),
	}, []string{"op"})
	m.uploadBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "upload_bytes_total",
		Help: "Total number of bytes accepted for upload.",
	})
	m.uploadsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "uploads_rejected_total",
		Help: "Total number of uploads rejected by validation.",
	}, []string{"reason"})
	m.ownershipDenied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ownership_denied_total",
		Help: "Total number of operations denied by the folder ownership policy.",
	})

	m.eventsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "events_connections",
		Help: "Number of active realtime connections.",
	})

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDurationMs,
		m.assetOpsTotal,
		m.assetOpDurationMs,
		m.uploadBytesTotal,
		m.uploadsRejected,
		m.ownershipDenied,
		m.eventsConnections,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	route = strings.TrimSpace(route)
	if route == "" {
		route = "unknown"
	}
	statusLabel := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, route, statusLabel).Inc()
	ms := float64(duration.Milliseconds())
	if ms < 0 {
		ms = 0
	}
	m.httpRequestDurationMs.WithLabelValues(method, route).Observe(ms)
}

func (m *Metrics) ObserveAssetOp(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	if status == "" {
		status = "ok"
	}
	m.assetOpsTotal.WithLabelValues(op, status).Inc()
	ms := float64(duration.Milliseconds())
	if ms < 0 {
		ms = 0
	}
	m.assetOpDurationMs.WithLabelValues(op).Observe(ms)
}

func (m *Metrics) AddUploadBytes(bytes int64) {
	if m == nil {
		return
	}
	if bytes <= 0 {
		return
	}
	m.uploadBytesTotal.Add(float64(bytes))
}

func (m *Metrics) IncUploadRejected(reason string) {
	if m == nil {
		return
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncOwnershipDenied() {
	if m == nil {
		return
	}
	m.ownershipDenied.Inc()
}

func (m *Metrics) IncEventsConnections() {
	if m == nil {
		return
	}
	m.eventsConnections.Inc()
}

func (m *Metrics) DecEventsConnections() {
	if m == nil {
		return
	}
	m.eventsConnections.Dec()
}
