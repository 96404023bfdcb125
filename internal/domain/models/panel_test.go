package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelJSONMissingCellsAreNull(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := AlignedPanel{
		Dates:   []time.Time{d, d.AddDate(0, 0, 1)},
		Symbols: []string{"SPY", "GLD"},
		Values:  [][]float64{{470.5, math.NaN()}, {math.Inf(1), 190}},
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"dates": ["2024-01-02", "2024-01-03"],
		"symbols": ["SPY", "GLD"],
		"values": {"SPY": [470.5, null], "GLD": [null, 190]}
	}`, string(b))

	var back AlignedPanel
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, p.Dates, back.Dates)
	assert.Equal(t, 470.5, back.Values[0][0])
	assert.True(t, math.IsNaN(back.Values[0][1]))
	assert.True(t, math.IsNaN(back.Values[1][0]))
}

func TestPanelJSONEmpty(t *testing.T) {
	b, err := json.Marshal(AlignedPanel{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dates":[],"symbols":[],"values":{}}`, string(b))
}

func TestPanelUnmarshalRejectsRaggedColumns(t *testing.T) {
	var p AlignedPanel
	err := json.Unmarshal([]byte(`{"dates":["2024-01-02"],"symbols":["SPY"],"values":{"SPY":[1,2]}}`), &p)
	assert.Error(t, err)
}

func TestPanelSeriesSkipsMissing(t *testing.T) {
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	p := &AlignedPanel{
		Dates:   []time.Time{d, d.AddDate(0, 0, 1), d.AddDate(0, 0, 2)},
		Symbols: []string{"SPY"},
		Values:  [][]float64{{1, math.NaN(), 3}},
	}
	s := p.Series(0)
	assert.Equal(t, "SPY", s.Symbol)
	assert.Equal(t, []float64{1, 3}, s.Prices())
	assert.Nil(t, p.Column("GLD"))
	assert.Equal(t, 3, p.Rows())
}

func TestFrameLabels(t *testing.T) {
	f := &Frame{
		Index: []time.Time{time.Now()},
		Columns: []Column{
			{Levels: []string{"Close"}},
			{Levels: []string{"SPY", "Close"}},
		},
	}
	assert.True(t, f.Hierarchical())
	assert.Equal(t, []string{"Close", "(SPY, Close)"}, f.ColumnLabels())
	assert.Equal(t, "", f.Columns[0].Level(1))
	assert.False(t, f.Empty())
	assert.True(t, (&Frame{}).Empty())
}
