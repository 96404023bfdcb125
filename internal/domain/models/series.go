package models

import (
	"time"
)

// Observation is a single cleaned daily close.
type Observation struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is the cleaned close history of one instrument: strictly
// increasing dates, finite positive prices.
type PriceSeries struct {
	Symbol       string        `json:"symbol"`
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Observations)
}

// Prices returns the price values in date order.
func (s *PriceSeries) Prices() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Price
	}
	return out
}

// SeriesResult is the outcome of loading one symbol: either Series is set or
// Reason explains why it is not.
type SeriesResult struct {
	Series *PriceSeries
	Reason string
	// Transient marks failures that say nothing about the symbol itself
	// (open breaker, throttling, caller gone). Results holding one are not
	// worth caching.
	Transient bool
}

// OK reports whether the load produced a series.
func (r SeriesResult) OK() bool { return r.Series != nil && r.Reason == "" }

// LoadAttempt pairs a requested symbol with its load outcome.
type LoadAttempt struct {
	Symbol string
	Result SeriesResult
}
