//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"MacroLens/internal/domain/repository"
	"MacroLens/internal/usecase"
	"MacroLens/pkg/config"
	"MacroLens/pkg/metrics"
	"MacroLens/pkg/server"
)

var coreSet = wire.NewSet(
	// Ambient
	ProvideLogger,
	ProvideMetrics,
	wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

	// Infrastructure
	ProvideCacheService,
	ProvideLoadCache,
	ProvidePriceSource,
	ProvideReportPublisher,

	// Use cases
	ProvideAdapter,
	ProvideLoader,
	ProvideMetricsEngine,
	ProvideAnalyzer,
	ProvideCatalog,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,

		// HTTP
		ProvideEndpointMetrics,
		ProvideHealthChecks,
		ProvideHandler,
		ProvideRateLimiter,
		ProvideHTTPServer,

		// Background
		ProvideWarmer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeToolkit wires the pieces used by one-shot CLI commands.
func InitializeToolkit(cfg *config.Config) (*Toolkit, func(), error) {
	wire.Build(
		coreSet,
		wire.Struct(new(Toolkit), "*"),
	)
	return nil, nil, nil
}

// InitializeIngester wires a Yahoo reader to the ClickHouse price table.
func InitializeIngester(cfg *config.Config) (*usecase.Ingester, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),
		ProvideYahooClient,
		ProvideYahooAdapter,
		ProvideClickHouseClient,
		ProvidePriceStore,
		ProvideIngester,
	)
	return nil, nil, nil
}
