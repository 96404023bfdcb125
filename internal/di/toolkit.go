package di

import (
	"MacroLens/internal/catalog"
	"MacroLens/internal/provider"
	"MacroLens/internal/usecase"
	applogger "MacroLens/pkg/logger"
)

// Toolkit bundles what the one-shot CLI commands need.
type Toolkit struct {
	Logger   *applogger.Logger
	Analyzer *usecase.Analyzer
	Catalog  *catalog.Catalog
	Adapter  *provider.Adapter
}
