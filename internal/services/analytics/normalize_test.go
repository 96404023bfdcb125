package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/domain/models"
)

func TestNormalize(t *testing.T) {
	panel := panelOf([]string{"A", "B"},
		[]float64{100, 110, nan, 121},
		[]float64{nan, 50, 25, 50},
	)

	base, err := Normalize(panel, models.NormalizeBase100)
	require.NoError(t, err)
	assert.InDelta(t, 100, base.Values[0][0], 1e-9)
	assert.InDelta(t, 110, base.Values[0][1], 1e-9)
	assert.True(t, math.IsNaN(base.Values[0][2]))
	assert.InDelta(t, 121, base.Values[0][3], 1e-9)
	assert.True(t, math.IsNaN(base.Values[1][0]))
	assert.InDelta(t, 100, base.Values[1][1], 1e-9)
	assert.InDelta(t, 50, base.Values[1][2], 1e-9)

	cum, err := Normalize(panel, models.NormalizeCumulative)
	require.NoError(t, err)
	assert.InDelta(t, 0, cum.Values[0][0], 1e-9)
	assert.InDelta(t, 10, cum.Values[0][1], 1e-9)
	assert.True(t, math.IsNaN(cum.Values[0][2]))
	assert.InDelta(t, 20, cum.Values[0][3], 1e-9)
	assert.InDelta(t, 0, cum.Values[1][1], 1e-9)
	assert.InDelta(t, -50, cum.Values[1][2], 1e-9)
	assert.InDelta(t, 50, cum.Values[1][3], 1e-9)

	abs, err := Normalize(panel, models.NormalizeAbsolute)
	require.NoError(t, err)
	abs.Values[0][0] = 1
	assert.Equal(t, 100.0, panel.Values[0][0], "input panel must not change")
}

func TestNormalizeUnknownMode(t *testing.T) {
	_, err := Normalize(panelOf([]string{"A"}, []float64{1}), "log")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
