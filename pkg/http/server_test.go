package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"MacroLens/pkg/http/middleware"
)

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type routes struct{}

func (routes) RegisterRoutes(e *echo.Echo) {
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/healthz", ok)
	e.GET("/apiary", ok)
	g := e.Group("/api")
	g.GET("/metrics", ok)
}

func TestAPIMiddlewareSkipsOtherPaths(t *testing.T) {
	s := NewServer(ServerConfig{
		MetricsPath:   "/metrics",
		APIMiddleware: []echo.MiddlewareFunc{middleware.RateLimit(denyAll{})},
	}, nil, routes{})

	for path, want := range map[string]int{
		"/healthz":     http.StatusOK,
		"/metrics":     http.StatusOK,
		"/apiary":      http.StatusOK,
		"/api/metrics": http.StatusTooManyRequests,
	} {
		rec := httptest.NewRecorder()
		s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
