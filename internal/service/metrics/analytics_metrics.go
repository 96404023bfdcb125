package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Endpoint tracks latency and failures of the analytics HTTP endpoints.
type Endpoint struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

// NewEndpoint registers the endpoint metrics with reg, or the default
// registry when reg is nil.
func NewEndpoint(reg prometheus.Registerer) *Endpoint {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Endpoint{
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "macrolens",
				Subsystem: "analytics",
				Name:      "latency_seconds",
				Help:      "Latency of analytics endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		errors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "macrolens",
				Subsystem: "analytics",
				Name:      "errors_total",
				Help:      "Errors by analytics endpoint",
			},
			[]string{"endpoint"},
		),
	}
}

// Observe records one request. A nil receiver is a no-op.
func (e *Endpoint) Observe(endpoint string, began time.Time, err error) {
	if e == nil {
		return
	}
	e.latency.WithLabelValues(endpoint).Observe(time.Since(began).Seconds())
	if err != nil {
		e.errors.WithLabelValues(endpoint).Inc()
	}
}
