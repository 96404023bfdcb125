package analytics

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrInvalidWindow    = errors.New("analytics: invalid window")
	ErrInvalidThreshold = errors.New("analytics: invalid threshold")
	ErrUnknownMode      = errors.New("analytics: unknown normalize mode")
)

// Percentile returns the p-th percentile (0..100) of x using linear
// interpolation between closest ranks: h = (n-1)p/100. NaNs are ignored.
// Returns NaN for an empty input.
func Percentile(x []float64, p float64) float64 {
	s := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			s = append(s, v)
		}
	}
	if len(s) == 0 {
		return math.NaN()
	}
	sort.Float64s(s)

	h := float64(len(s)-1) * p / 100
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (h-float64(lo))*(s[hi]-s[lo])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
