package analytics

import (
	"fmt"
	"math"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/services/features"
)

// Tercile cut points of the rolling volatility distribution.
const (
	LowQuantile  = 33.0
	HighQuantile = 67.0
)

// ClassifyRegimes labels each symbol's rolling annualized volatility as Low,
// Medium or High relative to the symbol's own history.
func ClassifyRegimes(panel *models.AlignedPanel, window int) ([]models.RegimeTrace, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: got %d, need at least 2", ErrInvalidWindow, window)
	}
	if panel.Empty() {
		return []models.RegimeTrace{}, nil
	}
	traces := make([]models.RegimeTrace, 0, len(panel.Symbols))
	for i := range panel.Symbols {
		traces = append(traces, classifySeries(panel.Series(i), window))
	}
	return traces, nil
}

func classifySeries(s *models.PriceSeries, window int) models.RegimeTrace {
	tr := models.RegimeTrace{
		Symbol:  s.Symbol,
		Window:  window,
		Points:  []models.RegimePoint{},
		Current: models.RegimeUnavailable,
	}

	returns := DailyReturns(s.Prices())
	_, std := features.RollingMeanStd(returns, window)
	vols := make([]float64, 0, len(std))
	for i, sd := range std {
		if math.IsNaN(sd) {
			continue
		}
		v := features.AnnualizedVolatility(sd)
		vols = append(vols, v)
		tr.Points = append(tr.Points, models.RegimePoint{Date: s.Observations[i+1].Date, Volatility: v})
	}
	if len(vols) == 0 {
		return tr
	}

	tr.Low = Percentile(vols, LowQuantile)
	tr.High = Percentile(vols, HighQuantile)
	for i := range tr.Points {
		tr.Points[i].Label = Label(tr.Points[i].Volatility, tr.Low, tr.High)
	}
	tr.Current = tr.Points[len(tr.Points)-1].Label
	return tr
}

// Label places v relative to the cut points: (-inf, low] is Low,
// (low, high] is Medium and (high, +inf) is High.
func Label(v, low, high float64) models.RegimeLabel {
	switch {
	case v <= low:
		return models.RegimeLow
	case v <= high:
		return models.RegimeMedium
	default:
		return models.RegimeHigh
	}
}

// SummarizeRegimes counts symbols per current regime.
func SummarizeRegimes(traces []models.RegimeTrace) models.RegimeSummary {
	out := models.RegimeSummary{}
	for _, t := range traces {
		out[t.Current]++
	}
	return out
}
