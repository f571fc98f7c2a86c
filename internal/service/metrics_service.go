package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import outcome labels.
const (
	ImportOutcomeSuccess = "success"
	ImportOutcomeFailure = "failure"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	storeDuration   *prometheus.HistogramVec
	importRecords   *prometheus.CounterVec
	importBatches   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "student_store_call_duration_seconds",
		Help:    "Duration of calls to the student persistence collaborator",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	importRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_import_records_total",
		Help: "Bulk import records by persistence outcome",
	}, []string{"outcome"})

	importBatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_import_batches_total",
		Help: "Bulk import runs by overall outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses, storeDuration, importRecords, importBatches, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		storeDuration:   storeDuration,
		importRecords:   importRecords,
		importBatches:   importBatches,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}

// ObserveStoreCall records the latency of one persistence collaborator call.
func (m *MetricsService) ObserveStoreCall(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := ImportOutcomeSuccess
	if err != nil {
		outcome = ImportOutcomeFailure
	}
	m.storeDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// RecordImportRecord counts one record submitted by a bulk import.
func (m *MetricsService) RecordImportRecord(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.importRecords.WithLabelValues(ImportOutcomeSuccess).Inc()
		return
	}
	m.importRecords.WithLabelValues(ImportOutcomeFailure).Inc()
}

// RecordImportBatch counts one finished bulk import.
func (m *MetricsService) RecordImportBatch(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.importBatches.WithLabelValues(ImportOutcomeSuccess).Inc()
		return
	}
	m.importBatches.WithLabelValues(ImportOutcomeFailure).Inc()
}
