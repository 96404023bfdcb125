package analytics

import (
	"fmt"
	"math"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/services/features"
)

// DetectAnomalies flags daily returns whose rolling z-score exceeds threshold
// in absolute value. The rolling window covers window returns ending at the
// current one; points before it fills, or with a zero rolling deviation, are
// never flagged. One report per panel symbol, in panel order.
func DetectAnomalies(panel *models.AlignedPanel, window int, threshold float64) ([]models.AnomalyReport, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: got %d, need at least 2", ErrInvalidWindow, window)
	}
	if !(threshold > 0) {
		return nil, fmt.Errorf("%w: got %g, need a positive value", ErrInvalidThreshold, threshold)
	}
	if panel.Empty() {
		return []models.AnomalyReport{}, nil
	}

	reports := make([]models.AnomalyReport, 0, len(panel.Symbols))
	for i, sym := range panel.Symbols {
		reports = append(reports, models.AnomalyReport{
			Symbol:    sym,
			Window:    window,
			Threshold: threshold,
			Anomalies: detectSeries(panel.Series(i), window, threshold),
		})
	}
	return reports, nil
}

func detectSeries(s *models.PriceSeries, window int, threshold float64) []models.Anomaly {
	out := []models.Anomaly{}
	returns := DailyReturns(s.Prices())
	mean, std := features.RollingMeanStd(returns, window)
	for i, r := range returns {
		sd := std[i]
		if math.IsNaN(sd) || math.IsInf(sd, 0) || sd == 0 {
			continue
		}
		z := (r - mean[i]) / sd
		if math.Abs(z) > threshold {
			// returns[i] is the move into observation i+1
			o := s.Observations[i+1]
			out = append(out, models.Anomaly{Date: o.Date, Return: r, ZScore: z, Price: o.Price})
		}
	}
	return out
}
