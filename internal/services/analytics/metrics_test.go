package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, -13.636, MaxDrawdown([]float64{100, 110, 99, 105, 95}), 0.001)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3, 4}))
	assert.Equal(t, 0.0, MaxDrawdown(nil))
}

func TestComputeSkipsShortSeries(t *testing.T) {
	long := make([]float64, 40)
	short := make([]float64, 40)
	for i := range long {
		long[i] = 100 + float64(i%5)
		short[i] = nan
	}
	for i := 0; i < 29; i++ {
		short[i] = 50 + float64(i)
	}

	rows := NewMetricsEngine(30, 2).Compute(panelOf([]string{"LONG", "SHORT"}, long, short))
	require.Len(t, rows, 1)
	assert.Equal(t, "LONG", rows[0].Symbol)
	assert.Equal(t, 40, rows[0].Observations)
}

func TestComputeAlternatingSeries(t *testing.T) {
	returns := make([]float64, 39)
	for i := range returns {
		if i%2 == 0 {
			returns[i] = 0.01
		} else {
			returns[i] = -0.005
		}
	}
	prices := pricesFrom(returns)

	rows := NewMetricsEngine(30, 2).Compute(panelOf([]string{"ALT"}, prices))
	require.Len(t, rows, 1)
	r := rows[0]

	assert.Equal(t, round2((prices[39]/prices[0]-1)*100), r.TotalReturn)
	assert.Greater(t, r.TotalReturn, 0.0)
	assert.Greater(t, r.AnnualizedReturn, r.TotalReturn)
	assert.Greater(t, r.Volatility, 0.0)
	assert.LessOrEqual(t, r.MaxDrawdown, 0.0)
	assert.InDelta(t, -0.5, r.MaxDrawdown, 0.01)
	assert.InDelta(t, -0.5, r.VaR95, 0.01)
	assert.InDelta(t, round2((r.AnnualizedReturn-2)/r.Volatility), r.Sharpe, 0.02)
	assert.Equal(t, 40, r.Observations)
}

func TestComputeFlatSeries(t *testing.T) {
	prices := make([]float64, 35)
	for i := range prices {
		prices[i] = 100
	}
	rows := NewMetricsEngine(30, 2).Compute(panelOf([]string{"FLAT"}, prices))
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Zero(t, r.TotalReturn)
	assert.Zero(t, r.Volatility)
	assert.Zero(t, r.Sharpe)
	assert.Zero(t, r.MaxDrawdown)
	assert.Zero(t, r.Calmar)
	assert.Zero(t, r.Skewness)
	assert.Zero(t, r.Kurtosis)
}

func TestComputeEmptyPanel(t *testing.T) {
	rows := NewMetricsEngine(30, 2).Compute(panelOf(nil))
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestComputeFixedSeries(t *testing.T) {
	// reference figures use the bias-adjusted sample skewness and excess kurtosis
	returns := []float64{
		0.012, -0.008, 0.005, 0.021, -0.015, 0.003, -0.030, 0.018, 0.007, -0.004,
		0.009, -0.012, 0.025, -0.006, 0.002, 0.011, -0.019, 0.004, 0.014, -0.002,
		0.006, -0.045, 0.016, 0.008, -0.003, 0.010, 0.001, -0.007, 0.013, 0.005,
	}
	rows := NewMetricsEngine(30, 2).Compute(panelOf([]string{"FIX"}, pricesFrom(returns)))
	require.Len(t, rows, 1)
	r := rows[0]

	assert.Equal(t, 31, r.Observations)
	assert.InDelta(t, 3.64, r.TotalReturn, 0.01)
	assert.InDelta(t, 33.68, r.AnnualizedReturn, 0.01)
	assert.InDelta(t, 23.71, r.Volatility, 0.01)
	assert.InDelta(t, 1.34, r.Sharpe, 0.01)
	assert.InDelta(t, -4.5, r.MaxDrawdown, 0.01)
	assert.InDelta(t, -2.505, r.VaR95, 0.01)
	assert.InDelta(t, 7.48, r.Calmar, 0.01)
	assert.InDelta(t, -1.23, r.Skewness, 0.01)
	assert.InDelta(t, 2.22, r.Kurtosis, 0.01)
}
