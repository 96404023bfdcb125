package usecase

import (
	"context"
	"sync"
	"time"

	"MacroLens/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// seriesOf places prices on consecutive days starting offset days after day0.
func seriesOf(symbol string, offset int, prices ...float64) *models.PriceSeries {
	s := &models.PriceSeries{Symbol: symbol}
	for i, p := range prices {
		s.Observations = append(s.Observations, models.Observation{Date: day0.AddDate(0, 0, offset+i), Price: p})
	}
	return s
}

func ok(s *models.PriceSeries) models.SeriesResult { return models.SeriesResult{Series: s} }
func failed(reason string) models.SeriesResult     { return models.SeriesResult{Reason: reason} }
func attempt(sym string, r models.SeriesResult) models.LoadAttempt {
	return models.LoadAttempt{Symbol: sym, Result: r}
}

// fakeSeries serves canned results and counts loads per symbol.
type fakeSeries struct {
	mu      sync.Mutex
	results map[string]models.SeriesResult
	calls   map[string]int
}

func newFakeSeries(results map[string]models.SeriesResult) *fakeSeries {
	return &fakeSeries{results: results, calls: map[string]int{}}
}

func (f *fakeSeries) Load(_ context.Context, symbol string, _, _ time.Time) models.SeriesResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	r, found := f.results[symbol]
	if !found {
		return failed("no data")
	}
	return r
}

func (f *fakeSeries) count(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}
