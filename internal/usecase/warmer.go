package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"MacroLens/internal/catalog"
	"MacroLens/internal/domain/service"
	pkgcache "MacroLens/pkg/cache"
	applogger "MacroLens/pkg/logger"
	"MacroLens/pkg/util"
)

const warmLockKey = "lock:warmup"

// Warmer periodically loads configured catalog categories over a trailing
// window so the panel cache is hot before anyone asks.
type Warmer struct {
	cron       *cron.Cron
	loader     service.PanelLoader
	catalog    *catalog.Catalog
	categories []string
	lookback   time.Duration
	lock       pkgcache.Locker
	timeout    time.Duration
	now        func() time.Time
	l          *applogger.Logger
}

// NewWarmer creates a warmer. lock may be nil; when set, only one replica
// warms at a time.
func NewWarmer(loader service.PanelLoader, cat *catalog.Catalog, categories []string, lookback time.Duration, lock pkgcache.Locker, l *applogger.Logger) *Warmer {
	if l == nil {
		l = applogger.Nop()
	}
	return &Warmer{
		cron:       cron.New(cron.WithSeconds()),
		loader:     loader,
		catalog:    cat,
		categories: categories,
		lookback:   lookback,
		lock:       lock,
		timeout:    5 * time.Minute,
		now:        time.Now,
		l:          l,
	}
}

// Register schedules the warm-up with a six-field (seconds first) cron spec.
func (w *Warmer) Register(spec string) error {
	if _, err := w.cron.AddFunc(spec, w.run); err != nil {
		return fmt.Errorf("register warmup: %w", err)
	}
	return nil
}

func (w *Warmer) Start() {
	w.cron.Start()
	w.l.Info("warmup scheduler started", applogger.Strings("categories", w.categories))
}

// Stop halts the scheduler and waits for a running job.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
	w.l.Info("warmup scheduler stopped")
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.RunOnce(ctx); err != nil {
		w.l.Error("warmup failed", applogger.Error(err))
	}
}

// RunOnce loads every configured category once.
func (w *Warmer) RunOnce(ctx context.Context) error {
	if w.lock != nil {
		ok, err := w.lock.TryLock(ctx, warmLockKey, w.timeout)
		if err != nil {
			return fmt.Errorf("acquire warmup lock: %w", err)
		}
		if !ok {
			w.l.Debug("warmup already running elsewhere")
			return nil
		}
		defer func() { _ = w.lock.Unlock(context.Background(), warmLockKey) }()
	}

	start, end := util.TrailingRange(w.now(), w.lookback)
	for _, name := range w.categories {
		symbols, err := w.catalog.Resolve([]string{name}, nil)
		if err != nil {
			return err
		}
		res, err := w.loader.LoadPanel(ctx, symbols, start, end)
		if err != nil {
			return fmt.Errorf("warm %s: %w", name, err)
		}
		w.l.Info("category warmed",
			applogger.String("category", name),
			applogger.Int("loaded", len(res.Panel.Symbols)),
			applogger.Int("failed", len(res.Failures)),
		)
	}
	return nil
}
