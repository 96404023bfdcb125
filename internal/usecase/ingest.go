package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"MacroLens/internal/domain/repository"
	"MacroLens/internal/domain/service"
	applogger "MacroLens/pkg/logger"
)

// IngestResult counts stored observations per symbol and explains the rest.
type IngestResult struct {
	Stored   map[string]int    `json:"stored"`
	Failures map[string]string `json:"failures"`
}

// Ingester copies cleaned series from a live provider into a SeriesStore.
type Ingester struct {
	series      service.SeriesLoader
	store       repository.SeriesStore
	concurrency int
	l           *applogger.Logger
}

func NewIngester(series service.SeriesLoader, store repository.SeriesStore, concurrency int, l *applogger.Logger) *Ingester {
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Ingester{series: series, store: store, concurrency: concurrency, l: l}
}

// Ingest loads every distinct symbol and stores what loaded. Only an invalid
// request is an error.
func (u *Ingester) Ingest(ctx context.Context, symbols []string, start, end time.Time) (*IngestResult, error) {
	symbols = Dedupe(symbols)
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start=%s end=%s", ErrInvalidRange, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	res := &IngestResult{Stored: map[string]int{}, Failures: map[string]string{}}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(u.concurrency)
	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			r := u.series.Load(ctx, sym, start, end)
			if !r.OK() {
				mu.Lock()
				res.Failures[sym] = r.Reason
				mu.Unlock()
				return nil
			}
			err := u.store.StoreSeries(ctx, r.Series)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures[sym] = fmt.Sprintf("store failed: %v", err)
				return nil
			}
			res.Stored[sym] = r.Series.Len()
			return nil
		})
	}
	_ = g.Wait()

	for sym, reason := range res.Failures {
		u.l.Warn("symbol ingest failed", applogger.String("symbol", sym), applogger.String("reason", reason))
	}
	u.l.Info("ingest finished",
		applogger.Int("requested", len(symbols)),
		applogger.Int("stored", len(res.Stored)),
		applogger.Int("failed", len(res.Failures)),
	)
	return res, nil
}
