package cache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/domain/repository"
	pkgcache "MacroLens/pkg/cache"
	applogger "MacroLens/pkg/logger"
)

// LoadCache memoizes batch load results by (symbol set, start, end).
type LoadCache struct {
	svc     pkgcache.Store
	ttl     time.Duration
	metrics repository.Metrics
	l       *applogger.Logger
}

func NewLoadCache(svc pkgcache.Store, ttl time.Duration, metrics repository.Metrics, l *applogger.Logger) *LoadCache {
	if metrics == nil {
		metrics = repository.NoopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &LoadCache{svc: svc, ttl: ttl, metrics: metrics, l: l}
}

// Key normalizes the symbol set (sorted, de-duplicated) so request order does
// not matter.
func Key(symbols []string, start, end time.Time) string {
	set := make(map[string]struct{}, len(symbols))
	norm := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		norm = append(norm, s)
	}
	sort.Strings(norm)
	return pkgcache.GenerateKeyWithParams("panel",
		pkgcache.HashKey(strings.Join(norm, ",")),
		start.UTC().Format(time.DateOnly),
		end.UTC().Format(time.DateOnly),
	)
}

// Get returns a cached result with panel columns in the order of symbols.
// Backend errors are logged and reported as a miss.
func (c *LoadCache) Get(ctx context.Context, symbols []string, start, end time.Time) (*models.LoadResult, bool) {
	key := Key(symbols, start, end)
	var res models.LoadResult
	if err := c.svc.Get(ctx, key, &res); err != nil {
		if !errors.Is(err, pkgcache.ErrCacheMiss) {
			c.l.Warn("panel cache read failed", applogger.String("key", key), applogger.Error(err))
		}
		c.metrics.RecordCache("miss")
		c.l.Debug("panel cache miss", applogger.String("key", key))
		return nil, false
	}
	if res.Failures == nil {
		res.Failures = map[string]string{}
	}
	c.metrics.RecordCache("hit")
	c.l.Debug("panel cache hit", applogger.String("key", key))
	reorder(&res.Panel, symbols)
	return &res, true
}

// Put stores res unless its panel is empty.
func (c *LoadCache) Put(ctx context.Context, symbols []string, start, end time.Time, res *models.LoadResult) {
	if res == nil || res.Panel.Empty() {
		return
	}
	key := Key(symbols, start, end)
	if err := c.svc.Set(ctx, key, res, c.ttl); err != nil {
		c.l.Warn("panel cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

func reorder(p *models.AlignedPanel, symbols []string) {
	pos := make(map[string]int, len(symbols))
	for i, s := range symbols {
		if _, ok := pos[s]; !ok {
			pos[s] = i
		}
	}
	idx := make([]int, len(p.Symbols))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return pos[p.Symbols[idx[a]]] < pos[p.Symbols[idx[b]]]
	})
	syms := make([]string, len(idx))
	vals := make([][]float64, len(idx))
	for i, j := range idx {
		syms[i] = p.Symbols[j]
		vals[i] = p.Values[j]
	}
	p.Symbols, p.Values = syms, vals
}
