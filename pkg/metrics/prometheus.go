package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	coverage       prometheus.Histogram
	latency        *prometheus.HistogramVec
	writebackTotal *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotevault_cache_hits_total",
				Help: "Requests served entirely from the record store",
			},
			[]string{"symbol"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotevault_cache_misses_total",
				Help: "Requests that required an upstream fetch",
			},
			[]string{"symbol"},
		),
		coverage: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quotevault_coverage_ratio",
				Help:    "Cached records over expected trading days per request",
				Buckets: []float64{0, 0.1, 0.25, 0.5, 0.8, 0.9, 1.0, 1.25, 2.0},
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quotevault_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		writebackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotevault_writeback_records_total",
				Help: "Records handed off for cache repopulation",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quotevault_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordCacheHit records a request served from the store.
func (r *Recorder) RecordCacheHit(symbol string) {
	r.cacheHits.WithLabelValues(symbol).Inc()
}

// RecordCacheMiss records a request that went upstream.
func (r *Recorder) RecordCacheMiss(symbol string) {
	r.cacheMisses.WithLabelValues(symbol).Inc()
}

// RecordCoverage records the coverage ratio observed for a request.
func (r *Recorder) RecordCoverage(ratio float64) {
	r.coverage.Observe(ratio)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordWriteback records records handed off to a write-back backend.
func (r *Recorder) RecordWriteback(backend string, count int) {
	r.writebackTotal.WithLabelValues(backend).Add(float64(count))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
