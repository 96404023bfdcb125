package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/catalog"
	"MacroLens/internal/domain/models"
	"MacroLens/internal/provider"
	"MacroLens/internal/service/metrics"
	"MacroLens/internal/services/analytics"
	"MacroLens/internal/usecase"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// trendSeries returns 60 daily closes for every symbol except MISSING.
type trendSeries struct{}

func (trendSeries) Load(_ context.Context, symbol string, _, _ time.Time) models.SeriesResult {
	if symbol == "MISSING" {
		return models.SeriesResult{Reason: "No data returned"}
	}
	s := &models.PriceSeries{Symbol: symbol}
	for i := 0; i < 60; i++ {
		s.Observations = append(s.Observations, models.Observation{
			Date:  day0.AddDate(0, 0, i),
			Price: 100 + float64(i) + float64(i%3),
		})
	}
	return models.SeriesResult{Series: s}
}

type fakeDiagnoser struct{}

func (fakeDiagnoser) Diagnose(_ context.Context, symbol string, _, _ time.Time) provider.Diagnosis {
	return provider.Diagnosis{Symbol: symbol, Source: "fake", Rows: 3, Columns: []string{"Close"}}
}

// countingDiagnoser records how often the provider would have been hit.
type countingDiagnoser struct{ calls int }

func (d *countingDiagnoser) Diagnose(ctx context.Context, symbol string, start, end time.Time) provider.Diagnosis {
	d.calls++
	return fakeDiagnoser{}.Diagnose(ctx, symbol, start, end)
}

func newTestServer(t *testing.T, diag Diagnoser, checks map[string]HealthCheck) *echo.Echo {
	t.Helper()
	loader := usecase.NewLoader(trendSeries{}, nil, 2, nil, nil)
	analyzer := usecase.NewAnalyzer(loader, analytics.NewMetricsEngine(30, 2), nil, usecase.Tuning{
		Window: 20, WindowMin: 10, WindowMax: 120,
		Threshold: 2.5, ThresholdMin: 1.5, ThresholdMax: 4,
	}, nil)
	cat := catalog.New(map[string][]string{"Metals": {"SLV", "GLD"}})
	h := NewAnalyticsEchoHandler(nil, analyzer, cat, diag, metrics.NewEndpoint(prometheus.NewRegistry()), checks)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest any) int {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if dest != nil {
		require.NoError(t, json.Unmarshal(env.Data, dest))
	}
	return env.Status
}

func TestPanelEndpoint(t *testing.T) {
	e := newTestServer(t, nil, nil)
	rec := get(e, "/api/panel?categories=Metals&symbols=spy,missing&start=2024-01-01&end=2024-03-31")
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.LoadResult
	assert.Equal(t, http.StatusOK, decode(t, rec, &res))
	assert.Equal(t, []string{"GLD", "SLV", "SPY"}, res.Panel.Symbols)
	assert.Len(t, res.Panel.Dates, 60)
	assert.Equal(t, map[string]string{"MISSING": "No data returned"}, res.Failures)
}

func TestRequestErrors(t *testing.T) {
	e := newTestServer(t, nil, nil)
	tests := []struct {
		name   string
		target string
	}{
		{"missing start", "/api/panel?symbols=SPY&end=2024-03-31"},
		{"bad date format", "/api/panel?symbols=SPY&start=01/01/2024&end=2024-03-31"},
		{"end before start", "/api/metrics?symbols=SPY&start=2024-03-31&end=2024-01-01"},
		{"no symbols", "/api/metrics?start=2024-01-01&end=2024-03-31"},
		{"unknown category", "/api/panel?categories=Nope&start=2024-01-01&end=2024-03-31"},
		{"window too small", "/api/anomalies?symbols=SPY&start=2024-01-01&end=2024-03-31&window=5"},
		{"threshold too large", "/api/anomalies?symbols=SPY&start=2024-01-01&end=2024-03-31&threshold=9"},
		{"negative window", "/api/anomalies?symbols=SPY&start=2024-01-01&end=2024-03-31&window=-3"},
		{"regime window too large", "/api/regimes?symbols=SPY&start=2024-01-01&end=2024-03-31&window=500"},
		{"analyze threshold too small", "/api/analyze?symbols=SPY&start=2024-01-01&end=2024-03-31&threshold=1"},
		{"unknown mode", "/api/normalized?symbols=SPY&start=2024-01-01&end=2024-03-31&mode=log"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(e, tc.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestAnalysisEndpoints(t *testing.T) {
	e := newTestServer(t, nil, nil)
	q := "?symbols=SPY,GLD&start=2024-01-01&end=2024-03-31"

	var metricsRes metricsResponse
	rec := get(e, "/api/metrics"+q)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &metricsRes)
	require.Len(t, metricsRes.Metrics, 2)
	assert.Equal(t, "GLD", metricsRes.Metrics[0].Symbol)

	var anomalies anomaliesResponse
	rec = get(e, "/api/anomalies"+q+"&window=30&threshold=3")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &anomalies)
	require.Len(t, anomalies.Anomalies, 2)
	assert.Equal(t, 30, anomalies.Anomalies[0].Window)
	assert.Equal(t, 3.0, anomalies.Anomalies[0].Threshold)

	var regimes regimesResponse
	rec = get(e, "/api/regimes"+q)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &regimes)
	require.Len(t, regimes.Regimes, 2)
	assert.Equal(t, 20, regimes.Regimes[0].Window)

	var normalized normalizedResponse
	rec = get(e, "/api/normalized"+q+"&mode=base100")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &normalized)
	assert.Equal(t, models.NormalizeBase100, normalized.Mode)
	assert.InDelta(t, 100, normalized.Panel.Values[0][0], 1e-9)

	rec = get(e, "/api/analyze"+q+"&mode=cumulative")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportEndpoints(t *testing.T) {
	e := newTestServer(t, nil, nil)
	q := "?symbols=SPY&start=2024-01-01&end=2024-03-31"

	rec := get(e, "/api/export/prices.csv"+q)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "prices.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Date,SPY\n2024-01-01,100\n"))

	rec = get(e, "/api/export/metrics.csv"+q)
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "SPY,"))
}

func TestCatalogEndpoint(t *testing.T) {
	e := newTestServer(t, nil, nil)
	var cats []catalog.Category
	rec := get(e, "/api/catalog")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &cats)
	assert.Equal(t, []catalog.Category{{Name: "Metals", Symbols: []string{"SLV", "GLD"}}}, cats)
}

func TestDiagnoseEndpoint(t *testing.T) {
	rec := get(newTestServer(t, nil, nil), "/api/diagnose?symbol=SPY&start=2024-01-01&end=2024-01-31")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	e := newTestServer(t, fakeDiagnoser{}, nil)
	rec = get(e, "/api/diagnose?symbol=SPY&start=2024-01-01&end=2024-01-31")
	require.Equal(t, http.StatusOK, rec.Code)
	var d provider.Diagnosis
	decode(t, rec, &d)
	assert.Equal(t, "SPY", d.Symbol)
	assert.Equal(t, 3, d.Rows)

	rec = get(e, "/api/diagnose?start=2024-01-01&end=2024-01-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiagnoseEndpointRejectsInvertedRange(t *testing.T) {
	diag := &countingDiagnoser{}
	e := newTestServer(t, diag, nil)

	for _, q := range []string{
		"symbol=SPY&start=2024-06-01&end=2024-01-01",
		"symbol=SPY&start=2024-01-01&end=2024-01-01",
	} {
		rec := get(e, "/api/diagnose?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Contains(t, rec.Body.String(), "start must be before end", q)
	}
	assert.Zero(t, diag.calls)
}

func TestHealthEndpoint(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	rec := get(newTestServer(t, nil, map[string]HealthCheck{"cache": ok}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(newTestServer(t, nil, map[string]HealthCheck{"cache": ok, "clickhouse": down}), "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var out map[string]string
	decode(t, rec, &out)
	assert.Equal(t, map[string]string{"cache": "ok", "clickhouse": "dial tcp: refused"}, out)
}
