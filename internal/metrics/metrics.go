// Package metrics exposes prometheus counters for the HTTP surface and the
// domain services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so independent instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	adviceTotal       *prometheus.CounterVec
	sensorReadings    prometheus.Counter
	ledgerRecords     prometheus.Gauge
	pointsAwarded     *prometheus.CounterVec
	liveClients       prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		adviceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "advice_requests_total",
			Help: "Advice requests by outcome (generated, fallback, breaker_open, disabled).",
		}, []string{"outcome"}),
		sensorReadings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensor_readings_total",
			Help: "Total simulated sensor readings produced.",
		}),
		ledgerRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_records",
			Help: "Number of records in the crop ledger.",
		}),
		pointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Gamification points awarded by action.",
		}, []string{"action"}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "live_clients",
			Help: "Connected live feed websocket clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpDuration,
		m.adviceTotal,
		m.sensorReadings,
		m.ledgerRecords,
		m.pointsAwarded,
		m.liveClients,
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts and times requests to next under the route label.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Advice records one advice request.
func (m *Metrics) Advice(outcome string) {
	if m == nil {
		return
	}
	m.adviceTotal.WithLabelValues(outcome).Inc()
}

// SensorReading records one simulated reading.
func (m *Metrics) SensorReading() {
	if m == nil {
		return
	}
	m.sensorReadings.Inc()
}

// SetLedgerRecords sets the ledger size.
func (m *Metrics) SetLedgerRecords(n int) {
	if m == nil {
		return
	}
	m.ledgerRecords.Set(float64(n))
}

// PointsAwarded records points granted for action.
func (m *Metrics) PointsAwarded(action string, points int) {
	if m == nil {
		return
	}
	m.pointsAwarded.WithLabelValues(action).Add(float64(points))
}

// SetLiveClients sets the number of connected live feed clients.
func (m *Metrics) SetLiveClients(n int) {
	if m == nil {
		return
	}
	m.liveClients.Set(float64(n))
}
