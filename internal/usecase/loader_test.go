package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/domain/repository"
	"MacroLens/internal/provider"
	"MacroLens/internal/service/cache"
	pkgcache "MacroLens/pkg/cache"
)

func newMemoryLoadCache(t *testing.T) *cache.LoadCache {
	t.Helper()
	mc := pkgcache.NewMemoryCache(pkgcache.MemoryConfig{MaxSize: 16})
	t.Cleanup(func() { _ = mc.Close() })
	return cache.NewLoadCache(mc, time.Hour, nil, nil)
}

func TestLoadPanelValidation(t *testing.T) {
	u := NewLoader(newFakeSeries(nil), nil, 2, nil, nil)
	end := day0.AddDate(0, 1, 0)

	_, err := u.LoadPanel(context.Background(), []string{" ", ""}, day0, end)
	assert.ErrorIs(t, err, ErrNoSymbols)

	_, err = u.LoadPanel(context.Background(), []string{"SPY"}, end, day0)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = u.LoadPanel(context.Background(), []string{"SPY"}, day0, day0)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestLoadPanelDedupesAndReportsFailures(t *testing.T) {
	src := newFakeSeries(map[string]models.SeriesResult{
		"SPY": ok(seriesOf("SPY", 0, 1, 2, 3)),
		"GLD": ok(seriesOf("GLD", 0, 4, 5, 6)),
	})
	u := NewLoader(src, nil, 2, nil, nil)

	res, err := u.LoadPanel(context.Background(), []string{"SPY", "GLD", "SPY", " XXX "}, day0, day0.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"SPY", "GLD"}, res.Panel.Symbols)
	assert.Equal(t, map[string]string{"XXX": "no data"}, res.Failures)
	assert.Equal(t, 1, src.count("SPY"))
	assert.Equal(t, 1, src.count("XXX"))
}

func TestLoadPanelCacheHitIgnoresOrder(t *testing.T) {
	src := newFakeSeries(map[string]models.SeriesResult{
		"SPY": ok(seriesOf("SPY", 0, 1, 2, 3)),
		"GLD": ok(seriesOf("GLD", 1, 4, 5)),
	})
	u := NewLoader(src, newMemoryLoadCache(t), 2, nil, nil)
	end := day0.AddDate(0, 1, 0)

	first, err := u.LoadPanel(context.Background(), []string{"SPY", "GLD"}, day0, end)
	require.NoError(t, err)

	second, err := u.LoadPanel(context.Background(), []string{"GLD", "SPY"}, day0, end)
	require.NoError(t, err)

	assert.Equal(t, 1, src.count("SPY"))
	assert.Equal(t, 1, src.count("GLD"))
	assert.Equal(t, []string{"GLD", "SPY"}, second.Panel.Symbols)
	assert.Equal(t, first.Panel.Column("SPY"), second.Panel.Column("SPY"))
	assert.Equal(t, first.Panel.Dates, second.Panel.Dates)
}

func TestLoadPanelDoesNotCacheEmptyPanel(t *testing.T) {
	src := newFakeSeries(nil)
	u := NewLoader(src, newMemoryLoadCache(t), 2, nil, nil)
	end := day0.AddDate(0, 1, 0)

	for j := 0; j < 2; j++ {
		res, err := u.LoadPanel(context.Background(), []string{"XXX"}, day0, end)
		require.NoError(t, err)
		assert.True(t, res.Panel.Empty())
	}
	assert.Equal(t, 2, src.count("XXX"))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, Dedupe([]string{" b", "a", "", "b ", "a"}))
	assert.Empty(t, Dedupe(nil))
}

// scriptedSource serves 40 daily closes for every symbol unless fail says
// otherwise, and counts calls.
type scriptedSource struct {
	mu    sync.Mutex
	calls map[string]int
	fail  func(symbol string) error
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) FetchDaily(_ context.Context, symbol string, _, _ time.Time) (*models.Frame, error) {
	s.mu.Lock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[symbol]++
	s.mu.Unlock()
	if err := s.fail(symbol); err != nil {
		return nil, err
	}
	f := &models.Frame{Columns: []models.Column{{Levels: []string{"Close"}}}}
	for i := 0; i < 40; i++ {
		f.Index = append(f.Index, day0.AddDate(0, 0, i))
		f.Columns[0].Values = append(f.Columns[0].Values, 100.0+float64(i))
	}
	return f, nil
}

func (s *scriptedSource) count(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[symbol]
}

func newBreakerAdapter(src repository.PriceSource) *provider.Adapter {
	return provider.NewAdapter(src, nil, nil,
		provider.WithRateLimit(1000, 1000),
		provider.WithBreaker(1, time.Minute, time.Minute, 5),
	)
}

func TestLoadPanelBadTickersDoNotFailHealthyOnes(t *testing.T) {
	src := &scriptedSource{fail: func(symbol string) error {
		if strings.HasPrefix(symbol, "BAD") {
			return &repository.SymbolError{Symbol: symbol, Err: errors.New("yahoo api error: Invalid input")}
		}
		return nil
	}}
	u := NewLoader(newBreakerAdapter(src), nil, 1, nil, nil)

	symbols := []string{"BAD1", "BAD2", "BAD3", "BAD4", "BAD5", "BAD6", "GOOD", "SPY"}
	res, err := u.LoadPanel(context.Background(), symbols, day0, day0.AddDate(0, 2, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"GOOD", "SPY"}, res.Panel.Symbols)
	assert.Len(t, res.Failures, 6)
	for sym, reason := range res.Failures {
		assert.True(t, strings.HasPrefix(sym, "BAD"), sym)
		assert.Equal(t, "fetch error: yahoo api error: Invalid input", reason)
	}
}

func TestLoadPanelOpenBreakerIsNotCached(t *testing.T) {
	src := &scriptedSource{fail: func(symbol string) error {
		if strings.HasPrefix(symbol, "X") {
			return errors.New("connection refused")
		}
		return nil
	}}
	lc := newMemoryLoadCache(t)
	u := NewLoader(newBreakerAdapter(src), lc, 1, nil, nil)
	symbols := []string{"GOOD", "X1", "X2", "X3", "X4", "X5", "X6"}
	end := day0.AddDate(0, 2, 0)

	res, err := u.LoadPanel(context.Background(), symbols, day0, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"GOOD"}, res.Panel.Symbols)
	assert.Contains(t, res.Failures["X6"], "circuit breaker is open")
	assert.Equal(t, 0, src.count("X6"))

	_, cached := lc.Get(context.Background(), symbols, day0, end)
	assert.False(t, cached)
}
