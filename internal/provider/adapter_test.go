package provider

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/domain/repository"
)

type fakeSource struct {
	calls atomic.Int32
	fetch func(symbol string) (*models.Frame, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchDaily(_ context.Context, symbol string, _, _ time.Time) (*models.Frame, error) {
	f.calls.Add(1)
	return f.fetch(symbol)
}

func newTestAdapter(fetch func(string) (*models.Frame, error), opts ...Option) (*Adapter, *fakeSource) {
	src := &fakeSource{fetch: fetch}
	opts = append([]Option{WithRateLimit(1000, 1000)}, opts...)
	return NewAdapter(src, nil, nil, opts...), src
}

var (
	rangeStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
)

func TestAdapterLoad(t *testing.T) {
	a, _ := newTestAdapter(func(string) (*models.Frame, error) {
		return frameOf(
			col([]any{10.0, 11.0, 12.0}, "Open"),
			col([]any{10.5, "11.5", nil}, "Close"),
		), nil
	})

	res := a.Load(context.Background(), "SPY", rangeStart, rangeEnd)
	require.True(t, res.OK(), res.Reason)
	assert.Equal(t, "SPY", res.Series.Symbol)
	assert.Equal(t, []float64{10.5, 11.5}, res.Series.Prices())
}

func TestAdapterLoadFailures(t *testing.T) {
	vals := []any{1.0}
	tests := []struct {
		name   string
		fetch  func(string) (*models.Frame, error)
		reason string
	}{
		{"source error", func(string) (*models.Frame, error) { return nil, errors.New("boom") }, "fetch error: boom"},
		{"panic", func(string) (*models.Frame, error) { panic("bad payload") }, "fetch error: bad payload"},
		{"nil frame", func(string) (*models.Frame, error) { return nil, nil }, ReasonNoData},
		{"no rows", func(string) (*models.Frame, error) { return &models.Frame{}, nil }, ReasonNoData},
		{"no price column", func(string) (*models.Frame, error) {
			return frameOf(col(vals, "Open"), col(vals, "Volume")), nil
		}, "no price column found; available columns: [Open, Volume]"},
		{"nothing valid", func(string) (*models.Frame, error) {
			return frameOf(col([]any{"x", -1.0}, "Close")), nil
		}, ReasonEmptyCleaned},
		{"ambiguous", func(string) (*models.Frame, error) {
			return frameOf(col(vals, "SPY", "Close"), col(vals, "QQQ", "Close")), nil
		}, "ambiguous price columns from nested-close: [(SPY, Close), (QQQ, Close)]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, _ := newTestAdapter(tc.fetch)
			res := a.Load(context.Background(), "X", rangeStart, rangeEnd)
			assert.False(t, res.OK())
			assert.Nil(t, res.Series)
			assert.Equal(t, tc.reason, res.Reason)
		})
	}
}

func TestAdapterLastPolicy(t *testing.T) {
	a, _ := newTestAdapter(func(string) (*models.Frame, error) {
		return frameOf(col([]any{1.0}, "SPY", "Close"), col([]any{2.0}, "QQQ", "Close")), nil
	}, WithPolicy(PolicyLast))

	res := a.Load(context.Background(), "X", rangeStart, rangeEnd)
	require.True(t, res.OK())
	assert.Equal(t, []float64{2}, res.Series.Prices())
}

func TestAdapterBreakerOpens(t *testing.T) {
	a, src := newTestAdapter(func(string) (*models.Frame, error) {
		return nil, errors.New("down")
	}, WithBreaker(1, time.Minute, time.Minute, 2))

	for i := 0; i < 2; i++ {
		res := a.Load(context.Background(), "X", rangeStart, rangeEnd)
		assert.Equal(t, "fetch error: down", res.Reason)
	}
	res := a.Load(context.Background(), "X", rangeStart, rangeEnd)
	assert.True(t, strings.HasPrefix(res.Reason, "fetch error: "))
	assert.Contains(t, res.Reason, "open")
	assert.True(t, res.Transient)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestAdapterSymbolErrorsKeepBreakerClosed(t *testing.T) {
	a, src := newTestAdapter(func(symbol string) (*models.Frame, error) {
		if strings.HasPrefix(symbol, "BAD") {
			return nil, &repository.SymbolError{Symbol: symbol, Err: errors.New("yahoo api error: Invalid input")}
		}
		return frameOf(col([]any{1.0, 2.0}, "Close")), nil
	}, WithBreaker(1, time.Minute, time.Minute, 2))

	for _, sym := range []string{"BAD1", "BAD2", "BAD3", "BAD4"} {
		res := a.Load(context.Background(), sym, rangeStart, rangeEnd)
		assert.Equal(t, "fetch error: yahoo api error: Invalid input", res.Reason)
		assert.False(t, res.Transient)
	}
	assert.True(t, a.Load(context.Background(), "GOOD", rangeStart, rangeEnd).OK())
	assert.Equal(t, int32(5), src.calls.Load())
}

func TestAdapterCallerCancelKeepsBreakerClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a, _ := newTestAdapter(func(symbol string) (*models.Frame, error) {
		if symbol == "SLOW" {
			cancel()
			return nil, context.Canceled
		}
		return frameOf(col([]any{1.0}, "Close")), nil
	}, WithBreaker(1, time.Minute, time.Minute, 1))

	res := a.Load(ctx, "SLOW", rangeStart, rangeEnd)
	assert.Contains(t, res.Reason, "request canceled")
	assert.True(t, res.Transient)

	assert.True(t, a.Load(context.Background(), "SPY", rangeStart, rangeEnd).OK())
}

func TestAdapterCancelledContext(t *testing.T) {
	a, src := newTestAdapter(func(string) (*models.Frame, error) {
		return frameOf(col([]any{1.0}, "Close")), nil
	}, WithRateLimit(0.001, 1))

	// drain the single token
	require.True(t, a.Load(context.Background(), "X", rangeStart, rangeEnd).OK())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := a.Load(ctx, "X", rangeStart, rangeEnd)
	assert.Contains(t, res.Reason, "rate limit")
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestAdapterDiagnose(t *testing.T) {
	a, _ := newTestAdapter(func(string) (*models.Frame, error) {
		return frameOf(
			col([]any{1.0, 2.0, 3.0, 4.0}, "SPY", "Open"),
			col([]any{1.5, 2.5, 3.5, 4.5}, "SPY", "Close"),
		), nil
	})

	d := a.Diagnose(context.Background(), "SPY", rangeStart, rangeEnd)
	assert.Empty(t, d.Error)
	assert.Equal(t, "fake", d.Source)
	assert.Equal(t, 4, d.Rows)
	assert.True(t, d.Hierarchical)
	assert.Equal(t, []string{"(SPY, Open)", "(SPY, Close)"}, d.Columns)
	assert.Len(t, d.Preview, 3)
	assert.Equal(t, "2024-01-01", d.Preview[0]["Date"])
	assert.Equal(t, 1.5, d.Preview[0]["(SPY, Close)"])
	assert.Equal(t, "nested-close", d.Strategy)
	assert.Equal(t, []string{"(SPY, Close)"}, d.Picked)
}

func TestAdapterDiagnoseUnresolved(t *testing.T) {
	a, _ := newTestAdapter(func(string) (*models.Frame, error) {
		return frameOf(col([]any{1.0}, "Open"), col([]any{1.0}, "High")), nil
	})
	d := a.Diagnose(context.Background(), "X", rangeStart, rangeEnd)
	assert.Equal(t, "chain", d.Strategy)
	assert.Contains(t, d.Error, "available columns: [Open, High]")
}

func TestAdapterDiagnoseInvertedRange(t *testing.T) {
	a, src := newTestAdapter(func(string) (*models.Frame, error) {
		return frameOf(col([]any{1.0}, "Close")), nil
	})

	d := a.Diagnose(context.Background(), "SPY", rangeEnd, rangeStart)
	assert.Equal(t, ReasonInvalidRange, d.Error)
	assert.Zero(t, src.calls.Load())
}
