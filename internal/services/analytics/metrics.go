package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/services/features"
)

const (
	DefaultMinObservations = 30
	DefaultRiskFreeRate    = 2.0
)

// MetricsEngine computes per-symbol risk/return summaries.
type MetricsEngine struct {
	MinObservations int
	RiskFreeRate    float64 // percent per year
}

func NewMetricsEngine(minObservations int, riskFreeRate float64) *MetricsEngine {
	if minObservations < 2 {
		minObservations = DefaultMinObservations
	}
	return &MetricsEngine{MinObservations: minObservations, RiskFreeRate: riskFreeRate}
}

// Compute returns one row per panel column with enough observations, in
// panel column order. Shorter series are left out.
func (e *MetricsEngine) Compute(panel *models.AlignedPanel) []models.MetricsRow {
	if panel.Empty() {
		return []models.MetricsRow{}
	}
	rows := make([]models.MetricsRow, 0, len(panel.Symbols))
	for i := range panel.Symbols {
		prices := panel.Series(i).Prices()
		if len(prices) < e.MinObservations {
			continue
		}
		rows = append(rows, e.row(panel.Symbols[i], prices))
	}
	return rows
}

func (e *MetricsEngine) row(symbol string, prices []float64) models.MetricsRow {
	n := float64(len(prices))
	first, last := prices[0], prices[len(prices)-1]
	returns := DailyReturns(prices)

	totalReturn := (last/first - 1) * 100
	annualReturn := (math.Pow(last/first, features.TradingDays/n) - 1) * 100

	std := stat.StdDev(returns, nil)
	volatility := features.AnnualizedVolatility(std)

	var sharpe float64
	if volatility != 0 {
		sharpe = (annualReturn - e.RiskFreeRate) / volatility
	}

	maxDD := MaxDrawdown(prices)
	var calmar float64
	if maxDD != 0 {
		calmar = annualReturn / math.Abs(maxDD)
	}

	var skew, kurt float64
	if std > 0 {
		skew = stat.Skew(returns, nil)
		kurt = stat.ExKurtosis(returns, nil)
	}

	return models.MetricsRow{
		Symbol:           symbol,
		TotalReturn:      round2(totalReturn),
		AnnualizedReturn: round2(annualReturn),
		Volatility:       round2(volatility),
		Sharpe:           round2(sharpe),
		MaxDrawdown:      round2(maxDD),
		VaR95:            round2(Percentile(returns, 5) * 100),
		Calmar:           round2(calmar),
		Skewness:         round2(skew),
		Kurtosis:         round2(kurt),
		Observations:     len(prices),
	}
}

// DailyReturns computes simple day-over-day returns.
func DailyReturns(prices []float64) []float64 {
	return features.DailyReturns(prices)
}

// MaxDrawdown returns the deepest peak-to-trough decline of prices in
// percent. It is always <= 0 and 0 for an empty or monotonically rising input.
func MaxDrawdown(prices []float64) float64 {
	var peak, worst float64
	for i, p := range prices {
		if i == 0 || p > peak {
			peak = p
		}
		if dd := (p - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst * 100
}
