package models

import "time"

// MetricsRow is the per-symbol risk/return summary. All values are rounded to
// two decimals; returns, volatility, drawdown and VaR are in percent.
type MetricsRow struct {
	Symbol           string  `json:"symbol"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	Sharpe           float64 `json:"sharpe"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	VaR95            float64 `json:"var_95"`
	Calmar           float64 `json:"calmar"`
	Skewness         float64 `json:"skewness"`
	Kurtosis         float64 `json:"kurtosis"`
	Observations     int     `json:"observations"`
}

type Anomaly struct {
	Date   time.Time `json:"date"`
	Return float64   `json:"return"`
	ZScore float64   `json:"z_score"`
	Price  float64   `json:"price"`
}

// AnomalyReport lists flagged returns for one symbol in date order.
type AnomalyReport struct {
	Symbol    string    `json:"symbol"`
	Window    int       `json:"window"`
	Threshold float64   `json:"threshold"`
	Anomalies []Anomaly `json:"anomalies"`
}

// RegimeLabel is a volatility tercile.
type RegimeLabel string

const (
	RegimeLow         RegimeLabel = "Low"
	RegimeMedium      RegimeLabel = "Medium"
	RegimeHigh        RegimeLabel = "High"
	RegimeUnavailable RegimeLabel = "unavailable"
)

type RegimePoint struct {
	Date       time.Time   `json:"date"`
	Volatility float64     `json:"volatility"`
	Label      RegimeLabel `json:"label"`
}

// RegimeTrace is the labeled rolling-volatility history of one symbol.
type RegimeTrace struct {
	Symbol  string        `json:"symbol"`
	Window  int           `json:"window"`
	Low     float64       `json:"low_cut"`
	High    float64       `json:"high_cut"`
	Points  []RegimePoint `json:"points"`
	Current RegimeLabel   `json:"current"`
}

// RegimeSummary counts symbols by their current regime.
type RegimeSummary map[RegimeLabel]int

// NormalizeMode selects how panel prices are rescaled for comparison.
type NormalizeMode string

const (
	NormalizeAbsolute   NormalizeMode = "absolute"
	NormalizeBase100    NormalizeMode = "base100"
	NormalizeCumulative NormalizeMode = "cumulative"
)

// AnalysisEvent is the per-symbol summary published after an analysis run.
type AnalysisEvent struct {
	Symbol      string      `json:"symbol"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Metrics     *MetricsRow `json:"metrics,omitempty"`
	Anomalies   int         `json:"anomalies"`
	Regime      RegimeLabel `json:"regime"`
	GeneratedAt time.Time   `json:"generated_at"`
}
