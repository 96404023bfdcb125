package provider

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"MacroLens/internal/domain/models"
)

// ToFloat coerces a raw provider cell to a number. Anything that is not a
// number or a numeric string reports false.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case *float64:
		if x == nil {
			return 0, false
		}
		return *x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Clean converts one frame column into observations: non-numeric, missing,
// non-finite and non-positive cells are dropped, rows are sorted by date and
// duplicate dates keep the last occurrence.
func Clean(f *models.Frame, col int) []models.Observation {
	values := f.Columns[col].Values
	obs := make([]models.Observation, 0, len(f.Index))
	for i, d := range f.Index {
		if i >= len(values) {
			break
		}
		p, ok := ToFloat(values[i])
		if !ok || math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			continue
		}
		obs = append(obs, models.Observation{Date: d, Price: p})
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	out := obs[:0]
	for _, o := range obs {
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}
