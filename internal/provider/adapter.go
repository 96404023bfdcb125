package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/domain/repository"
	"MacroLens/pkg/logger"
)

// Failure reasons reported per symbol.
const (
	ReasonNoData       = "no data available for the period"
	ReasonEmptyCleaned = "empty after cleaning"
)

var (
	errThrottled = errors.New("rate limit")
	errCanceled  = errors.New("request canceled")
)

// MultiColumnPolicy decides what happens when a strategy picks several columns.
type MultiColumnPolicy string

const (
	PolicyStrict MultiColumnPolicy = "strict"
	PolicyLast   MultiColumnPolicy = "last"
)

// Adapter turns raw provider frames into cleaned price series. Load never
// returns an error: every problem becomes a failure reason.
type Adapter struct {
	source  repository.PriceSource
	chain   []Strategy
	policy  MultiColumnPolicy
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics repository.Metrics
	log     *logger.Logger
}

// NewAdapter creates an adapter around source.
func NewAdapter(source repository.PriceSource, log *logger.Logger, metrics repository.Metrics, opts ...Option) *Adapter {
	cfg := &Options{
		Timeout:             20 * time.Second,
		RateLimit:           5,
		Burst:               5,
		Policy:              PolicyStrict,
		BreakerMaxRequests:  1,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      30 * time.Second,
		ConsecutiveFailures: 5,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Chain == nil {
		cfg.Chain = DefaultChain()
	}
	if metrics == nil {
		metrics = repository.NoopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}

	name := source.Name()
	a := &Adapter{
		source:  source,
		chain:   cfg.Chain,
		policy:  cfg.Policy,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		metrics: metrics,
		log:     log.With(logger.String("source", name)),
	}
	a.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: sourceHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.log.Warn("provider breaker state changed",
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	return a
}

// Source returns the name of the wrapped price source.
func (a *Adapter) Source() string { return a.source.Name() }

// Load fetches and cleans the daily closes of symbol over [start, end).
func (a *Adapter) Load(ctx context.Context, symbol string, start, end time.Time) (res models.SeriesResult) {
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			a.metrics.RecordError("panic")
			res = models.SeriesResult{Reason: fmt.Sprintf("fetch error: %v", r)}
		}
		outcome := "ok"
		if !res.OK() {
			outcome = "failed"
		}
		a.metrics.RecordFetch(a.source.Name(), outcome)
		a.metrics.RecordLatency("provider.load", time.Since(began).Seconds())
	}()

	frame, err := a.fetch(ctx, symbol, start, end)
	if err != nil {
		a.metrics.RecordError("fetch")
		return models.SeriesResult{Reason: fmt.Sprintf("fetch error: %v", err), Transient: transient(err)}
	}
	if frame.Empty() {
		a.metrics.RecordError("empty")
		return models.SeriesResult{Reason: ReasonNoData}
	}

	col, reason := a.pickColumn(frame)
	if reason != "" {
		a.metrics.RecordError("schema")
		return models.SeriesResult{Reason: reason}
	}

	obs := Clean(frame, col)
	if len(obs) == 0 {
		a.metrics.RecordError("cleaning")
		return models.SeriesResult{Reason: ReasonEmptyCleaned}
	}
	return models.SeriesResult{Series: &models.PriceSeries{Symbol: symbol, Observations: obs}}
}

func (a *Adapter) fetch(ctx context.Context, symbol string, start, end time.Time) (*models.Frame, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", errThrottled, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.breaker.Execute(func() (interface{}, error) {
		frame, err := a.source.FetchDaily(callCtx, symbol, start, end)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCanceled, ctx.Err())
		}
		return frame, err
	})
	if err != nil {
		return nil, err
	}
	frame, _ := out.(*models.Frame)
	return frame, nil
}

// sourceHealthy decides what the breaker counts as a success. Errors scoped to
// one symbol and calls abandoned by the caller do not count against the source.
func sourceHealthy(err error) bool {
	return err == nil || errors.Is(err, errCanceled) || repository.IsSymbolError(err)
}

func transient(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, errThrottled) ||
		errors.Is(err, errCanceled)
}

func (a *Adapter) pickColumn(frame *models.Frame) (int, string) {
	switch r := Resolve(frame, a.chain).(type) {
	case Resolved:
		if len(r.Columns) > 1 {
			if a.policy != PolicyLast {
				labels := make([]string, len(r.Columns))
				for i, c := range r.Columns {
					labels[i] = frame.Columns[c].Label()
				}
				return 0, fmt.Sprintf("ambiguous price columns from %s: [%s]", r.Strategy, strings.Join(labels, ", "))
			}
			a.log.Debug("several price columns, keeping the last", logger.String("strategy", r.Strategy))
		}
		return r.Columns[len(r.Columns)-1], ""
	case Unresolved:
		return 0, r.Reason
	default:
		return 0, "unknown column resolution"
	}
}
