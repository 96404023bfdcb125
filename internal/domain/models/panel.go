package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// PanelKey is the synthetic failure key used when the panel itself could not
// be assembled. It never names a requested symbol.
const PanelKey = "_panel"

// AlignedPanel is a date-indexed table with one column per successfully loaded
// symbol. Values is column-major; a NaN cell means the symbol has no
// observation on that date.
type AlignedPanel struct {
	Dates   []time.Time
	Symbols []string
	Values  [][]float64
}

// Empty reports whether the panel has no columns.
func (p *AlignedPanel) Empty() bool {
	return p == nil || len(p.Symbols) == 0
}

// Rows returns the number of dates.
func (p *AlignedPanel) Rows() int {
	if p == nil {
		return 0
	}
	return len(p.Dates)
}

// Column returns the values for symbol, or nil if it is not in the panel.
func (p *AlignedPanel) Column(symbol string) []float64 {
	if p == nil {
		return nil
	}
	for i, s := range p.Symbols {
		if s == symbol {
			return p.Values[i]
		}
	}
	return nil
}

// Series returns the non-missing observations of column i in date order.
func (p *AlignedPanel) Series(i int) *PriceSeries {
	s := &PriceSeries{Symbol: p.Symbols[i]}
	for r, v := range p.Values[i] {
		if math.IsNaN(v) {
			continue
		}
		s.Observations = append(s.Observations, Observation{Date: p.Dates[r], Price: v})
	}
	return s
}

type panelJSON struct {
	Dates   []string              `json:"dates"`
	Symbols []string              `json:"symbols"`
	Values  map[string][]*float64 `json:"values"`
}

// MarshalJSON encodes missing cells as null.
func (p AlignedPanel) MarshalJSON() ([]byte, error) {
	out := panelJSON{
		Dates:   make([]string, len(p.Dates)),
		Symbols: p.Symbols,
		Values:  make(map[string][]*float64, len(p.Symbols)),
	}
	if out.Symbols == nil {
		out.Symbols = []string{}
	}
	for i, d := range p.Dates {
		out.Dates[i] = d.Format(time.DateOnly)
	}
	for c, sym := range p.Symbols {
		col := make([]*float64, len(p.Values[c]))
		for r, v := range p.Values[c] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			col[r] = &v
		}
		out.Values[sym] = col
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *AlignedPanel) UnmarshalJSON(data []byte) error {
	var in panelJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Dates = make([]time.Time, len(in.Dates))
	for i, s := range in.Dates {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return fmt.Errorf("panel date %q: %w", s, err)
		}
		p.Dates[i] = d
	}
	p.Symbols = in.Symbols
	p.Values = make([][]float64, len(in.Symbols))
	for c, sym := range in.Symbols {
		src, ok := in.Values[sym]
		if !ok || len(src) != len(p.Dates) {
			return fmt.Errorf("panel column %s: expected %d values", sym, len(p.Dates))
		}
		col := make([]float64, len(src))
		for r, v := range src {
			if v == nil {
				col[r] = math.NaN()
				continue
			}
			col[r] = *v
		}
		p.Values[c] = col
	}
	return nil
}

// LoadResult is the outcome of a batch load: the aligned panel plus a reason
// for every symbol that did not make it in.
type LoadResult struct {
	Panel    AlignedPanel      `json:"panel"`
	Failures map[string]string `json:"failures"`
}

// Succeeded returns the symbols present in the panel.
func (r *LoadResult) Succeeded() []string {
	return r.Panel.Symbols
}
