package models

import (
	"strings"
	"time"
)

// Column is one raw provider column. Levels holds the label path: one element
// for flat columns, two or more for hierarchical ones such as ("SPY", "Close").
type Column struct {
	Levels []string
	Values []any
}

// Name returns the first label level.
func (c Column) Name() string {
	if len(c.Levels) == 0 {
		return ""
	}
	return c.Levels[0]
}

// Level returns the i-th label level or "" if the column is not that deep.
func (c Column) Level(i int) string {
	if i < 0 || i >= len(c.Levels) {
		return ""
	}
	return c.Levels[i]
}

// Label renders the column the way it is reported in diagnostics.
func (c Column) Label() string {
	if len(c.Levels) <= 1 {
		return c.Name()
	}
	return "(" + strings.Join(c.Levels, ", ") + ")"
}

// Frame is an untyped, date-indexed provider response prior to cleaning.
type Frame struct {
	Index   []time.Time
	Columns []Column
}

// Empty reports whether the frame carries no rows or no columns.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Index) == 0 || len(f.Columns) == 0
}

// Hierarchical reports whether any column has more than one label level.
func (f *Frame) Hierarchical() bool {
	if f == nil {
		return false
	}
	for _, c := range f.Columns {
		if len(c.Levels) > 1 {
			return true
		}
	}
	return false
}

// ColumnLabels lists the columns in input order.
func (f *Frame) ColumnLabels() []string {
	if f == nil {
		return nil
	}
	out := make([]string, 0, len(f.Columns))
	for _, c := range f.Columns {
		out = append(out, c.Label())
	}
	return out
}
