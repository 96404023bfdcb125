package provider

import (
	"fmt"
	"strings"

	"MacroLens/internal/domain/models"
)

// Resolution is the outcome of one column-resolution strategy. It is either
// Resolved or Unresolved.
type Resolution interface {
	StrategyName() string
	resolution()
}

// Resolved lists the indices of the columns a strategy picked, in frame order.
type Resolved struct {
	Strategy string
	Columns  []int
}

// Unresolved explains why a strategy did not match.
type Unresolved struct {
	Strategy string
	Reason   string
}

func (r Resolved) StrategyName() string   { return r.Strategy }
func (r Unresolved) StrategyName() string { return r.Strategy }
func (Resolved) resolution()              {}
func (Unresolved) resolution()            {}

// Strategy is a named column matcher.
type Strategy struct {
	Name    string
	Resolve func(f *models.Frame) Resolution
}

// FallbackNames are probed, in order, when nothing labeled close was found.
var FallbackNames = []string{"Adj Close", "Price", "Last", "Value"}

// DefaultChain is the resolution order applied to every provider frame.
func DefaultChain() []Strategy {
	return []Strategy{
		{Name: "exact-close", Resolve: exactClose},
		{Name: "nested-close", Resolve: nestedClose},
		{Name: "contains-close", Resolve: containsClose},
		{Name: "single-column", Resolve: singleColumn},
		{Name: "fallback-names", Resolve: fallbackNames},
	}
}

// Resolve runs the chain and returns the first Resolved outcome. When every
// strategy declines it returns an Unresolved naming all available columns.
func Resolve(f *models.Frame, chain []Strategy) Resolution {
	for _, s := range chain {
		if r, ok := s.Resolve(f).(Resolved); ok {
			r.Strategy = s.Name
			return r
		}
	}
	return Unresolved{
		Strategy: "chain",
		Reason:   fmt.Sprintf("no price column found; available columns: [%s]", strings.Join(f.ColumnLabels(), ", ")),
	}
}

func exactClose(f *models.Frame) Resolution {
	var idx []int
	for i, c := range f.Columns {
		if c.Name() == "Close" {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return Unresolved{Strategy: "exact-close", Reason: "no column labeled Close"}
	}
	return Resolved{Strategy: "exact-close", Columns: idx}
}

func nestedClose(f *models.Frame) Resolution {
	if !f.Hierarchical() {
		return Unresolved{Strategy: "nested-close", Reason: "columns are not hierarchical"}
	}
	var idx []int
	for i, c := range f.Columns {
		if c.Level(1) == "Close" {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return Unresolved{Strategy: "nested-close", Reason: "no Close at the second label level"}
	}
	return Resolved{Strategy: "nested-close", Columns: idx}
}

func containsClose(f *models.Frame) Resolution {
	for i, c := range f.Columns {
		if strings.Contains(strings.ToLower(c.Label()), "close") {
			return Resolved{Strategy: "contains-close", Columns: []int{i}}
		}
	}
	return Unresolved{Strategy: "contains-close", Reason: "no column name contains close"}
}

func singleColumn(f *models.Frame) Resolution {
	if len(f.Columns) != 1 {
		return Unresolved{Strategy: "single-column", Reason: fmt.Sprintf("frame has %d columns", len(f.Columns))}
	}
	return Resolved{Strategy: "single-column", Columns: []int{0}}
}

func fallbackNames(f *models.Frame) Resolution {
	for _, name := range FallbackNames {
		for i, c := range f.Columns {
			if c.Name() == name {
				return Resolved{Strategy: "fallback-names", Columns: []int{i}}
			}
		}
	}
	return Unresolved{Strategy: "fallback-names", Reason: "none of " + strings.Join(FallbackNames, ", ") + " present"}
}
