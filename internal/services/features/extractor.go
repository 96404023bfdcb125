package features

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDays is the number of sessions used to annualize daily figures.
const TradingDays = 252

// DailyReturns computes simple returns r_t = p_t / p_{t-1} - 1.
// It returns a slice of length len(prices)-1, or nil if insufficient data.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// RollingMeanStd returns the trailing mean and sample standard deviation of x
// over window points, the current one included. Entries before the window
// fills are NaN.
func RollingMeanStd(x []float64, window int) (mean, std []float64) {
	mean = make([]float64, len(x))
	std = make([]float64, len(x))
	for i := range x {
		if window < 2 || i+1 < window {
			mean[i], std[i] = math.NaN(), math.NaN()
			continue
		}
		mean[i], std[i] = stat.MeanStdDev(x[i+1-window:i+1], nil)
	}
	return mean, std
}

// AnnualizedVolatility scales a daily standard deviation to a yearly
// percentage.
func AnnualizedVolatility(dailyStd float64) float64 {
	return dailyStd * math.Sqrt(TradingDays) * 100
}
