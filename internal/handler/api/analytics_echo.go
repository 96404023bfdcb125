package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"MacroLens/internal/catalog"
	"MacroLens/internal/domain/models"
	"MacroLens/internal/provider"
	"MacroLens/internal/service/metrics"
	"MacroLens/internal/services/analytics"
	"MacroLens/internal/usecase"
	xhttp "MacroLens/pkg/http"
	xlogger "MacroLens/pkg/logger"
	"MacroLens/pkg/util"
)

// Diagnoser reports the raw provider response for one symbol.
type Diagnoser interface {
	Diagnose(ctx context.Context, symbol string, start, end time.Time) provider.Diagnosis
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// AnalyticsEchoHandler serves the analytics API.
type AnalyticsEchoHandler struct {
	logger    *xlogger.Logger
	analyzer  *usecase.Analyzer
	catalog   *catalog.Catalog
	diagnoser Diagnoser
	endpoints *metrics.Endpoint
	checks    map[string]HealthCheck
}

func NewAnalyticsEchoHandler(logger *xlogger.Logger, analyzer *usecase.Analyzer, cat *catalog.Catalog, diagnoser Diagnoser, endpoints *metrics.Endpoint, checks map[string]HealthCheck) *AnalyticsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalyticsEchoHandler{
		logger:    logger,
		analyzer:  analyzer,
		catalog:   cat,
		diagnoser: diagnoser,
		endpoints: endpoints,
		checks:    checks,
	}
}

func (h *AnalyticsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/catalog", h.Catalog)
	g.GET("/panel", h.Panel)
	g.GET("/normalized", h.Normalized)
	g.GET("/metrics", h.Metrics)
	g.GET("/anomalies", h.Anomalies)
	g.GET("/regimes", h.Regimes)
	g.GET("/analyze", h.Analyze)
	g.GET("/diagnose", h.Diagnose)
	g.GET("/export/prices.csv", h.ExportPrices)
	g.GET("/export/metrics.csv", h.ExportMetrics)
}

type normalizedResponse struct {
	Mode     models.NormalizeMode `json:"mode"`
	Panel    *models.AlignedPanel `json:"panel"`
	Failures map[string]string    `json:"failures"`
}

type metricsResponse struct {
	Metrics  []models.MetricsRow `json:"metrics"`
	Failures map[string]string   `json:"failures"`
}

type anomaliesResponse struct {
	Anomalies []models.AnomalyReport `json:"anomalies"`
	Failures  map[string]string      `json:"failures"`
}

type regimesResponse struct {
	Regimes  []models.RegimeTrace `json:"regimes"`
	Summary  models.RegimeSummary `json:"summary"`
	Failures map[string]string    `json:"failures"`
}

func (h *AnalyticsEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	out := map[string]string{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("dependency", name), xlogger.Error(err))
			out[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		out[name] = "ok"
	}
	return xhttp.DataResponse(c, status, out)
}

func (h *AnalyticsEchoHandler) Catalog(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.catalog.Categories())
}

func (h *AnalyticsEchoHandler) Panel(c echo.Context) error {
	defer h.observe(c, "panel", time.Now())
	req := &models.PanelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(req)
	if err != nil {
		return h.fail(c, "panel", err)
	}
	res, err := h.analyzer.Panel(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "panel", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalyticsEchoHandler) Normalized(c echo.Context) error {
	defer h.observe(c, "normalized", time.Now())
	req := &models.NormalizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(&req.PanelRequest)
	if err != nil {
		return h.fail(c, "normalized", err)
	}
	p.Mode = models.NormalizeMode(req.Mode)
	panel, res, err := h.analyzer.Normalized(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "normalized", err)
	}
	return xhttp.SuccessResponse(c, normalizedResponse{Mode: p.Mode, Panel: panel, Failures: res.Failures})
}

func (h *AnalyticsEchoHandler) Metrics(c echo.Context) error {
	defer h.observe(c, "metrics", time.Now())
	req := &models.PanelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(req)
	if err != nil {
		return h.fail(c, "metrics", err)
	}
	rows, res, err := h.analyzer.Metrics(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "metrics", err)
	}
	return xhttp.SuccessResponse(c, metricsResponse{Metrics: rows, Failures: res.Failures})
}

func (h *AnalyticsEchoHandler) Anomalies(c echo.Context) error {
	defer h.observe(c, "anomalies", time.Now())
	req := &models.AnomalyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(&req.PanelRequest)
	if err != nil {
		return h.fail(c, "anomalies", err)
	}
	p.Window, p.Threshold = req.Window, req.Threshold
	reports, res, err := h.analyzer.Anomalies(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "anomalies", err)
	}
	return xhttp.SuccessResponse(c, anomaliesResponse{Anomalies: reports, Failures: res.Failures})
}

func (h *AnalyticsEchoHandler) Regimes(c echo.Context) error {
	defer h.observe(c, "regimes", time.Now())
	req := &models.RegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(&req.PanelRequest)
	if err != nil {
		return h.fail(c, "regimes", err)
	}
	p.Window = req.Window
	traces, res, err := h.analyzer.Regimes(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "regimes", err)
	}
	return xhttp.SuccessResponse(c, regimesResponse{
		Regimes:  traces,
		Summary:  analytics.SummarizeRegimes(traces),
		Failures: res.Failures,
	})
}

func (h *AnalyticsEchoHandler) Analyze(c echo.Context) error {
	defer h.observe(c, "analyze", time.Now())
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(&req.PanelRequest)
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	p.Window, p.Threshold, p.Mode = req.Window, req.Threshold, models.NormalizeMode(req.Mode)
	rep, err := h.analyzer.Analyze(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "analyze", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *AnalyticsEchoHandler) Diagnose(c echo.Context) error {
	defer h.observe(c, "diagnose", time.Now())
	req := &models.DiagnoseRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, end, err := dateRange(req.Start, req.End)
	if err != nil {
		return h.fail(c, "diagnose", err)
	}
	if h.diagnoser == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("diagnostics are not available"))
	}
	return xhttp.SuccessResponse(c, h.diagnoser.Diagnose(c.Request().Context(), req.Symbol, start, end))
}

func (h *AnalyticsEchoHandler) ExportPrices(c echo.Context) error {
	defer h.observe(c, "export_prices", time.Now())
	req := &models.PanelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(req)
	if err != nil {
		return h.fail(c, "export_prices", err)
	}
	res, err := h.analyzer.Panel(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "export_prices", err)
	}
	var buf bytes.Buffer
	if err := usecase.WritePanelCSV(&buf, &res.Panel); err != nil {
		return h.fail(c, "export_prices", err)
	}
	return xhttp.CSVResponse(c, "prices.csv", buf.Bytes())
}

func (h *AnalyticsEchoHandler) ExportMetrics(c echo.Context) error {
	defer h.observe(c, "export_metrics", time.Now())
	req := &models.PanelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.params(req)
	if err != nil {
		return h.fail(c, "export_metrics", err)
	}
	rows, _, err := h.analyzer.Metrics(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "export_metrics", err)
	}
	var buf bytes.Buffer
	if err := usecase.WriteMetricsCSV(&buf, rows); err != nil {
		return h.fail(c, "export_metrics", err)
	}
	return xhttp.CSVResponse(c, "metrics.csv", buf.Bytes())
}

// params resolves the symbol selection and date range of a request.
func (h *AnalyticsEchoHandler) params(req *models.PanelRequest) (usecase.AnalysisParams, error) {
	start, end, err := dateRange(req.Start, req.End)
	if err != nil {
		return usecase.AnalysisParams{}, err
	}
	symbols, err := h.catalog.Resolve(util.SplitList(req.Categories), util.SplitList(req.Symbols))
	if err != nil {
		return usecase.AnalysisParams{}, err
	}
	return usecase.AnalysisParams{Symbols: symbols, Start: start, End: end}, nil
}

func dateRange(from, to string) (time.Time, time.Time, error) {
	start, ok := util.ParseTime(from)
	if !ok {
		return time.Time{}, time.Time{}, xhttp.BadRequestErrorf("invalid start date %q", from)
	}
	end, ok := util.ParseTime(to)
	if !ok {
		return time.Time{}, time.Time{}, xhttp.BadRequestErrorf("invalid end date %q", to)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start=%s end=%s", usecase.ErrInvalidRange, from, to)
	}
	return start, end, nil
}

// fail maps request-shaped errors to 400 and everything else to 500.
func (h *AnalyticsEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	c.Set(failedKey, err)
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, usecase.ErrInvalidRange),
		errors.Is(err, usecase.ErrNoSymbols),
		errors.Is(err, catalog.ErrUnknownCategory),
		errors.Is(err, analytics.ErrInvalidWindow),
		errors.Is(err, analytics.ErrInvalidThreshold),
		errors.Is(err, analytics.ErrUnknownMode):
		appErr = xhttp.BadRequestError(err.Error()).WithError(err)
	default:
		h.logger.Error("analytics request failed", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		appErr = xhttp.InternalError("analysis failed").WithError(err)
	}
	return xhttp.AppErrorResponse(c, appErr)
}

const failedKey = "analytics.failed"

func (h *AnalyticsEchoHandler) observe(c echo.Context, endpoint string, began time.Time) {
	err, _ := c.Get(failedKey).(error)
	h.endpoints.Observe(endpoint, began, err)
}
