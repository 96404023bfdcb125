package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cacheTotal   *prometheus.CounterVec
	panelSymbols prometheus.Histogram
	panelFailed  prometheus.Histogram
	latency      *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrolens_provider_fetches_total",
				Help: "Provider loads by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrolens_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macrolens_cache_requests_total",
				Help: "Panel cache lookups by result",
			},
			[]string{"result"},
		),
		panelSymbols: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "macrolens_panel_symbols",
			Help:    "Symbols present in each assembled panel",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		panelFailed: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "macrolens_panel_failures",
			Help:    "Symbols that failed to load per panel",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "macrolens_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one provider load.
func (r *Recorder) RecordFetch(source, outcome string) {
	r.fetchesTotal.WithLabelValues(source, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordCache records a cache hit or miss.
func (r *Recorder) RecordCache(result string) {
	r.cacheTotal.WithLabelValues(result).Inc()
}

// RecordPanel records the shape of an assembled panel.
func (r *Recorder) RecordPanel(symbols, failures int) {
	r.panelSymbols.Observe(float64(symbols))
	r.panelFailed.Observe(float64(failures))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
