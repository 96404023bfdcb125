package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var nan = math.NaN()

func TestPercentile(t *testing.T) {
	x := []float64{4, 1, 3, 2}
	assert.Equal(t, 1.0, Percentile(x, 0))
	assert.Equal(t, 2.5, Percentile(x, 50))
	assert.Equal(t, 4.0, Percentile(x, 100))
	assert.InDelta(t, 1.99, Percentile(x, 33), 1e-9)
	assert.Equal(t, 2.5, Percentile([]float64{nan, 4, 1, nan, 3, 2}, 50))
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
	assert.Equal(t, []float64{4, 1, 3, 2}, x, "input must not be reordered")
}
