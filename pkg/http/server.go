package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"MacroLens/pkg/http/middleware"
	applogger "MacroLens/pkg/logger"
)

// Handler registers a group of routes.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// ServerConfig holds server configuration. Zero fields take the defaults
// noted on each.
type ServerConfig struct {
	Host            string        // 0.0.0.0
	Port            int           // 8080
	ReadTimeout     time.Duration // 15s
	WriteTimeout    time.Duration // 60s
	ShutdownTimeout time.Duration // 10s
	SlowThreshold   time.Duration // 2s
	// MetricsPath serves the Prometheus registry; empty disables it.
	MetricsPath string
	// AllowOrigins enables CORS for read-only requests when non-empty.
	AllowOrigins []string
	// APIPrefix scopes APIMiddleware; defaults to /api.
	APIPrefix string
	// APIMiddleware runs after recovery, logging and metrics, and only for
	// requests under APIPrefix. Health and metrics paths stay outside it.
	APIMiddleware []echo.MiddlewareFunc
}

func (c *ServerConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.SlowThreshold == 0 {
		c.SlowThreshold = 2 * time.Second
	}
	if c.APIPrefix == "" {
		c.APIPrefix = "/api"
	}
}

// Server wraps an Echo instance with the API's middleware stack.
type Server struct {
	echo *echo.Echo
	cfg  ServerConfig
	l    *applogger.Logger
}

func NewServer(cfg ServerConfig, l *applogger.Logger, handlers ...Handler) *Server {
	cfg.applyDefaults()
	if l == nil {
		l = applogger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.Recover(l))
	e.Use(middleware.RequestLogging(l))
	e.Use(middleware.Metrics(l, cfg.SlowThreshold))
	if len(cfg.AllowOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
	for _, m := range cfg.APIMiddleware {
		e.Use(underPrefix(cfg.APIPrefix, m))
	}

	for _, h := range handlers {
		h.RegisterRoutes(e)
	}
	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	return &Server{echo: e, cfg: cfg, l: l}
}

// underPrefix applies m only to requests whose path is prefix or below it.
func underPrefix(prefix string, m echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		scoped := m(next)
		return func(c echo.Context) error {
			p := c.Request().URL.Path
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return scoped(c)
			}
			return next(c)
		}
	}
}

// Start listens in the background. Listen errors are logged.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	go func() {
		s.l.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.l.Error("http server error", applogger.Error(err))
		}
	}()
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.l.Info("http server stopped")
	return nil
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) ShutdownTimeout() time.Duration { return s.cfg.ShutdownTimeout }
