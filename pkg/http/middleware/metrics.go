package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	applogger "MacroLens/pkg/logger"
)

type httpCollectors struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	bytes    *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

var (
	collectors     *httpCollectors
	collectorsOnce sync.Once
)

func httpMetrics() *httpCollectors {
	collectorsOnce.Do(func() {
		collectors = &httpCollectors{
			requests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "macrolens_http_requests_total",
				Help: "HTTP requests by route template and status code.",
			}, []string{"route", "method", "code"}),
			latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "macrolens_http_request_seconds",
				Help:    "HTTP handling time.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			}, []string{"route", "class"}),
			bytes: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "macrolens_http_response_bytes",
				Help:    "HTTP response body size.",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			}, []string{"route"}),
			inFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "macrolens_http_in_flight",
				Help: "Requests currently being served.",
			}),
		}
	})
	return collectors
}

// Metrics observes every request under its Echo route template so panel
// queries with different symbols share one series. Server errors are logged
// at error level and anything slower than slow at warn.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	m := httpMetrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			began := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			res := c.Response()
			took := time.Since(began)
			m.requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(res.Status)).Inc()
			m.latency.WithLabelValues(route, statusClass(res.Status)).Observe(took.Seconds())
			m.bytes.WithLabelValues(route).Observe(float64(res.Size))

			if l == nil {
				return nil
			}
			fields := []applogger.Field{
				applogger.String("route", route),
				applogger.Int("status", res.Status),
				applogger.Duration("duration_ms", took),
			}
			if res.Status >= 500 {
				l.Error("http request failed", fields...)
			} else if slow > 0 && took >= slow {
				l.Warn("http request slow", fields...)
			}
			return nil
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
