package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ssargent/fixedrec/pkg/store"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Store operation metrics
	storeOperationsTotal   *prometheus.CounterVec
	storeOperationDuration *prometheus.HistogramVec
	storeRecords           prometheus.Gauge
	storeFreeSlots         prometheus.Gauge
	indexEntries           *prometheus.GaugeVec

	// API key authentication metrics
	authRequestsTotal *prometheus.CounterVec

	checkpointOperationsTotal *prometheus.CounterVec

	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixedrec_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fixedrec_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fixedrec_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		storeOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixedrec_store_operations_total",
				Help: "Total number of instrument store operations",
			},
			[]string{"operation", "status"},
		),

		storeOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fixedrec_store_operation_duration_seconds",
				Help:    "Instrument store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		storeRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fixedrec_store_records",
				Help: "Number of live instrument records",
			},
		),

		storeFreeSlots: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fixedrec_store_free_slots",
				Help: "Number of unused record slots",
			},
		),

		indexEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fixedrec_index_entries",
				Help: "Entries per secondary index",
			},
			[]string{"index"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixedrec_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		checkpointOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixedrec_checkpoint_operations_total",
				Help: "Total number of checkpoint and restore operations",
			},
			[]string{"operation", "status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixedrec_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}

	return m
}

func statusLabel(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreOperation records a store operation
func (m *Metrics) RecordStoreOperation(operation string, success bool, duration time.Duration) {
	m.storeOperationsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
	m.storeOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateStoreStats copies store statistics into the gauges
func (m *Metrics) UpdateStoreStats(stats *store.StoreStats) {
	m.storeRecords.Set(float64(stats.Records))
	m.storeFreeSlots.Set(float64(stats.FreeSlots))
	m.indexEntries.WithLabelValues("securityId").Set(float64(stats.Indexes.SecurityEntries))
	m.indexEntries.WithLabelValues("cusip").Set(float64(stats.Indexes.CusipEntries))
	m.indexEntries.WithLabelValues("enabled").Set(float64(stats.Indexes.Enabled + stats.Indexes.Disabled))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	m.authRequestsTotal.WithLabelValues(statusLabel(success)).Inc()
}

// RecordCheckpointOperation records a checkpoint or restore
func (m *Metrics) RecordCheckpointOperation(operation string, success bool) {
	m.checkpointOperationsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	m.healthChecksTotal.WithLabelValues(statusLabel(success)).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Create response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// InstrumentAuthMiddleware instruments the authentication middleware
func (m *Metrics) InstrumentAuthMiddleware(next func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasAPIKey := r.Header.Get("X-API-Key") != ""

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next(h).ServeHTTP(rw, r)

			if hasAPIKey {
				m.RecordAuthRequest(rw.statusCode != http.StatusUnauthorized)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
