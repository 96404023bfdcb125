package repository

import (
	"context"
	"errors"
	"time"

	"MacroLens/internal/domain/models"
)

// PriceSource returns the raw daily-bar frame for one symbol over [start, end).
type PriceSource interface {
	Name() string
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*models.Frame, error)
}

// SymbolError is a source failure that concerns one symbol only, such as a
// rejected ticker or a malformed payload for it. It says nothing about the
// health of the source.
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string { return e.Err.Error() }
func (e *SymbolError) Unwrap() error { return e.Err }

// IsSymbolError reports whether err is scoped to a single symbol.
func IsSymbolError(err error) bool {
	var se *SymbolError
	return errors.As(err, &se)
}

// SeriesStore persists cleaned series so they can later be served as a
// PriceSource.
type SeriesStore interface {
	StoreSeries(ctx context.Context, series *models.PriceSeries) error
}

// ReportPublisher ships per-symbol analysis summaries downstream.
type ReportPublisher interface {
	PublishBatch(ctx context.Context, events []models.AnalysisEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(source, outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCache(result string)
	RecordPanel(symbols, failures int)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishBatch(context.Context, []models.AnalysisEvent) error { return nil }
func (NoopPublisher) Close() error                                               { return nil }

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) RecordFetch(string, string)    {}
func (NoopMetrics) RecordError(string)            {}
func (NoopMetrics) RecordLatency(string, float64) {}
func (NoopMetrics) RecordCache(string)            {}
func (NoopMetrics) RecordPanel(int, int)          {}
