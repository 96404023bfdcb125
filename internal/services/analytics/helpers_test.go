package analytics

import (
	"time"

	"MacroLens/internal/domain/models"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// panelOf builds a panel on consecutive days; every column must have the
// same length, NaN marks a missing cell.
func panelOf(symbols []string, cols ...[]float64) *models.AlignedPanel {
	p := &models.AlignedPanel{Symbols: symbols, Values: cols}
	if len(cols) > 0 {
		for i := range cols[0] {
			p.Dates = append(p.Dates, day0.AddDate(0, 0, i))
		}
	}
	return p
}

// pricesFrom compounds returns onto a start price of 100.
func pricesFrom(returns []float64) []float64 {
	out := make([]float64, len(returns)+1)
	out[0] = 100
	for i, r := range returns {
		out[i+1] = out[i] * (1 + r)
	}
	return out
}
