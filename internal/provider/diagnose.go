package provider

import (
	"context"
	"fmt"
	"time"
)

const previewRows = 3

// ReasonInvalidRange is reported without touching the source.
const ReasonInvalidRange = "invalid range: start must be before end"

// Diagnosis describes a raw provider response before cleaning.
type Diagnosis struct {
	Symbol       string           `json:"symbol"`
	Source       string           `json:"source"`
	Rows         int              `json:"rows"`
	Columns      []string         `json:"columns"`
	Hierarchical bool             `json:"hierarchical"`
	Levels       [][]string       `json:"levels,omitempty"`
	Preview      []map[string]any `json:"preview"`
	Strategy     string           `json:"strategy,omitempty"`
	Picked       []string         `json:"picked,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Diagnose fetches symbol and reports the frame shape, the first rows and
// which strategy would pick the price column. Like Load it never fails; any
// problem lands in Error.
func (a *Adapter) Diagnose(ctx context.Context, symbol string, start, end time.Time) (d Diagnosis) {
	d = Diagnosis{Symbol: symbol, Source: a.source.Name(), Columns: []string{}, Preview: []map[string]any{}}
	defer func() {
		if r := recover(); r != nil {
			d.Error = fmt.Sprintf("fetch error: %v", r)
		}
	}()

	if !start.Before(end) {
		d.Error = ReasonInvalidRange
		return d
	}
	frame, err := a.fetch(ctx, symbol, start, end)
	if err != nil {
		d.Error = fmt.Sprintf("fetch error: %v", err)
		return d
	}
	if frame.Empty() {
		d.Error = ReasonNoData
		return d
	}

	d.Rows = len(frame.Index)
	d.Columns = frame.ColumnLabels()
	d.Hierarchical = frame.Hierarchical()
	if d.Hierarchical {
		for _, c := range frame.Columns {
			d.Levels = append(d.Levels, c.Levels)
		}
	}
	for r := 0; r < len(frame.Index) && r < previewRows; r++ {
		row := map[string]any{"Date": frame.Index[r].Format(time.DateOnly)}
		for _, c := range frame.Columns {
			if r < len(c.Values) {
				row[c.Label()] = c.Values[r]
			}
		}
		d.Preview = append(d.Preview, row)
	}

	switch r := Resolve(frame, a.chain).(type) {
	case Resolved:
		d.Strategy = r.Strategy
		for _, c := range r.Columns {
			d.Picked = append(d.Picked, frame.Columns[c].Label())
		}
	case Unresolved:
		d.Strategy = r.Strategy
		d.Error = r.Reason
	}
	return d
}
