package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/domain/repository"
	"MacroLens/internal/domain/service"
	"MacroLens/internal/service/cache"
	applogger "MacroLens/pkg/logger"
)

var (
	ErrNoSymbols    = errors.New("at least one symbol is required")
	ErrInvalidRange = errors.New("start must be before end")
)

const defaultConcurrency = 8

// Loader fetches a batch of symbols concurrently and aligns them into a panel.
type Loader struct {
	series      service.SeriesLoader
	cache       *cache.LoadCache
	concurrency int
	metrics     repository.Metrics
	l           *applogger.Logger
}

// NewLoader builds a batch loader. cache may be nil.
func NewLoader(series service.SeriesLoader, c *cache.LoadCache, concurrency int, metrics repository.Metrics, l *applogger.Logger) *Loader {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	if metrics == nil {
		metrics = repository.NoopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Loader{series: series, cache: c, concurrency: concurrency, metrics: metrics, l: l}
}

// LoadPanel validates the request, loads every distinct symbol once and
// aligns the successes. Per-symbol failures are data in the result; only an
// invalid request is an error.
func (u *Loader) LoadPanel(ctx context.Context, symbols []string, start, end time.Time) (*models.LoadResult, error) {
	symbols = Dedupe(symbols)
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start=%s end=%s", ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	if u.cache != nil {
		if res, ok := u.cache.Get(ctx, symbols, start, end); ok {
			return res, nil
		}
	}

	began := time.Now()
	attempts := make([]models.LoadAttempt, len(symbols))
	var g errgroup.Group
	g.SetLimit(u.concurrency)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			attempts[i] = models.LoadAttempt{Symbol: sym, Result: u.series.Load(ctx, sym, start, end)}
			return nil
		})
	}
	_ = g.Wait()

	res := Align(attempts)
	for sym, reason := range res.Failures {
		u.l.Warn("symbol load failed", applogger.String("symbol", sym), applogger.String("reason", reason))
	}
	u.l.Info("panel loaded",
		applogger.Int("requested", len(symbols)),
		applogger.Int("loaded", len(res.Panel.Symbols)),
		applogger.Int("failed", len(res.Failures)),
		applogger.Int("rows", res.Panel.Rows()),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	u.metrics.RecordPanel(len(res.Panel.Symbols), len(res.Failures))
	u.metrics.RecordLatency("panel.load", time.Since(began).Seconds())

	switch {
	case u.cache == nil:
	case hasTransient(attempts):
		u.l.Debug("panel not cached: transient failures present", applogger.Strings("symbols", symbols))
	default:
		u.cache.Put(ctx, symbols, start, end, &res)
	}
	return &res, nil
}

func hasTransient(attempts []models.LoadAttempt) bool {
	for _, a := range attempts {
		if a.Result.Transient {
			return true
		}
	}
	return false
}

// Dedupe trims symbols and drops blanks and repeats, keeping first
// occurrence order.
func Dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
