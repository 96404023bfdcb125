package usecase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"MacroLens/internal/domain/models"
)

// Align outer-joins the successful series of attempts on date. Column order is
// attempt order. Failed attempts are reported in Failures; if the series
// cannot be merged the panel is empty, the cause is stored under
// models.PanelKey and every contributing symbol is marked failed.
func Align(attempts []models.LoadAttempt) models.LoadResult {
	res := models.LoadResult{Failures: map[string]string{}}

	var ok []*models.PriceSeries
	for _, a := range attempts {
		if !a.Result.OK() {
			reason := a.Result.Reason
			if reason == "" {
				reason = "no series returned"
			}
			res.Failures[a.Symbol] = reason
			continue
		}
		s := *a.Result.Series
		s.Symbol = a.Symbol
		ok = append(ok, &s)
	}
	if len(ok) == 0 {
		return res
	}

	panel, err := merge(ok)
	if err != nil {
		res.Failures[models.PanelKey] = err.Error()
		for _, s := range ok {
			res.Failures[s.Symbol] = "merge failed"
		}
		return res
	}
	res.Panel = *panel
	return res
}

func merge(series []*models.PriceSeries) (*models.AlignedPanel, error) {
	seen := map[int64]time.Time{}
	for _, s := range series {
		if err := checkSeries(s); err != nil {
			return nil, fmt.Errorf("merge failed: %w", err)
		}
		for _, o := range s.Observations {
			seen[o.Date.UnixNano()] = o.Date
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	row := make(map[int64]int, len(dates))
	for i, d := range dates {
		row[d.UnixNano()] = i
	}

	p := &models.AlignedPanel{
		Dates:   dates,
		Symbols: make([]string, len(series)),
		Values:  make([][]float64, len(series)),
	}
	for c, s := range series {
		p.Symbols[c] = s.Symbol
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		for _, o := range s.Observations {
			col[row[o.Date.UnixNano()]] = o.Price
		}
		p.Values[c] = col
	}
	return dropEmptyRows(p), nil
}

func checkSeries(s *models.PriceSeries) error {
	for i, o := range s.Observations {
		if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) || o.Price <= 0 {
			return fmt.Errorf("%s: invalid price %v on %s", s.Symbol, o.Price, o.Date.Format(time.DateOnly))
		}
		if i > 0 && !s.Observations[i-1].Date.Before(o.Date) {
			return fmt.Errorf("%s: dates not strictly increasing at %s", s.Symbol, o.Date.Format(time.DateOnly))
		}
	}
	return nil
}

func dropEmptyRows(p *models.AlignedPanel) *models.AlignedPanel {
	keep := make([]int, 0, len(p.Dates))
	for r := range p.Dates {
		for c := range p.Values {
			if !math.IsNaN(p.Values[c][r]) {
				keep = append(keep, r)
				break
			}
		}
	}
	if len(keep) == len(p.Dates) {
		return p
	}
	out := &models.AlignedPanel{Symbols: p.Symbols, Values: make([][]float64, len(p.Values))}
	for _, r := range keep {
		out.Dates = append(out.Dates, p.Dates[r])
	}
	for c := range p.Values {
		col := make([]float64, len(keep))
		for i, r := range keep {
			col[i] = p.Values[c][r]
		}
		out.Values[c] = col
	}
	return out
}
