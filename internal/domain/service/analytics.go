package service

import (
	"context"
	"time"

	"MacroLens/internal/domain/models"
)

// SeriesLoader turns one symbol into a cleaned series or a failure reason.
// Implementations never return errors; failures are data.
type SeriesLoader interface {
	Load(ctx context.Context, symbol string, start, end time.Time) models.SeriesResult
}

// PanelLoader fetches and aligns a batch of symbols.
type PanelLoader interface {
	LoadPanel(ctx context.Context, symbols []string, start, end time.Time) (*models.LoadResult, error)
}
