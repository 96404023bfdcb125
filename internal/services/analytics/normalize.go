package analytics

import (
	"fmt"
	"math"

	"MacroLens/internal/domain/models"
)

// Normalize rescales every panel column for side-by-side comparison. Missing
// cells stay missing. The input panel is not modified.
//
//   - absolute: prices as they are
//   - base100: price / first valid price * 100
//   - cumulative: running sum of daily simple returns * 100, starting at 0
func Normalize(panel *models.AlignedPanel, mode models.NormalizeMode) (*models.AlignedPanel, error) {
	out := &models.AlignedPanel{
		Dates:   panel.Dates,
		Symbols: panel.Symbols,
		Values:  make([][]float64, len(panel.Values)),
	}
	for c, col := range panel.Values {
		dst := make([]float64, len(col))
		switch mode {
		case models.NormalizeAbsolute, "":
			copy(dst, col)
		case models.NormalizeBase100:
			base := math.NaN()
			for r, v := range col {
				if math.IsNaN(v) {
					dst[r] = v
					continue
				}
				if math.IsNaN(base) {
					base = v
				}
				dst[r] = v / base * 100
			}
		case models.NormalizeCumulative:
			prev, sum := math.NaN(), 0.0
			for r, v := range col {
				if math.IsNaN(v) {
					dst[r] = v
					continue
				}
				if !math.IsNaN(prev) {
					sum += v/prev - 1
				}
				prev = v
				dst[r] = sum * 100
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
		}
		out.Values[c] = dst
	}
	return out, nil
}
