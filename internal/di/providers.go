package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"MacroLens/internal/catalog"
	"MacroLens/internal/domain/repository"
	"MacroLens/internal/handler/api"
	"MacroLens/internal/provider"
	internalrepo "MacroLens/internal/repository"
	icache "MacroLens/internal/service/cache"
	imetrics "MacroLens/internal/service/metrics"
	"MacroLens/internal/service/ratelimit"
	"MacroLens/internal/service/yahoo"
	"MacroLens/internal/services/analytics"
	"MacroLens/internal/usecase"
	pkgcache "MacroLens/pkg/cache"
	pkgch "MacroLens/pkg/clickhouse"
	"MacroLens/pkg/config"
	xhttp "MacroLens/pkg/http"
	"MacroLens/pkg/http/middleware"
	pkgkafka "MacroLens/pkg/kafka"
	applogger "MacroLens/pkg/logger"
	"MacroLens/pkg/metrics"
	"MacroLens/pkg/server"
)

// ProvideLogger builds the application logger. Logs go to stderr so CLI
// commands can write results to stdout.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stderr",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(nil)
}

// ProvideEndpointMetrics creates the HTTP endpoint metrics.
func ProvideEndpointMetrics() *imetrics.Endpoint {
	return imetrics.NewEndpoint(nil)
}

// ProvideCacheService returns an in-process cache, layered over Redis when
// Redis is enabled.
func ProvideCacheService(cfg *config.Config, l *applogger.Logger) (pkgcache.Service, func(), error) {
	if !cfg.Cache.Redis.Enabled {
		mc := pkgcache.NewMemoryCache(pkgcache.MemoryConfig{MaxSize: cfg.Cache.MemorySize})
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := pkgcache.NewRedisCache(pkgcache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := pkgcache.NewLayeredCache(rc, pkgcache.MemoryConfig{MaxSize: cfg.Cache.MemorySize}, 5*time.Minute)
	l.Info("cache: layered over redis", applogger.String("addr", cfg.Cache.Redis.Addr))
	return lc, func() {
		if err := lc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvideLoadCache memoizes panel loads for cache.ttl.
func ProvideLoadCache(svc pkgcache.Service, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *icache.LoadCache {
	return icache.NewLoadCache(svc, cfg.Cache.TTL, m, l)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the price
// table exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(pkgch.Config{
		Host:             ch.Host,
		Port:             ch.Port,
		Database:         ch.Database,
		User:             ch.User,
		Password:         ch.Password,
		UseHTTP:          ch.UseHTTP,
		DialTimeout:      ch.DialTimeout,
		ReadTimeout:      ch.ReadTimeout,
		MaxExecutionTime: ch.MaxExecutionTime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx,
		"CREATE DATABASE IF NOT EXISTS "+ch.Database,
		fmt.Sprintf(internalrepo.PriceTableSchema, cfg.Provider.Table),
	); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, func() { _ = client.Close() }, nil
}

// ProvidePriceStore exposes the ClickHouse daily-bar table.
func ProvidePriceStore(client *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHPriceStore {
	return internalrepo.NewCHPriceStore(client.DB(), cfg.Provider.Table, l)
}

// ProvideYahooClient creates the Yahoo chart API client.
func ProvideYahooClient(cfg *config.Config) *yahoo.Client {
	y := cfg.Provider.Yahoo
	hc := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Provider.RequestTimeout),
		xhttp.WithProxy(y.Proxy),
		xhttp.WithUserAgent(y.UserAgent),
	)
	return yahoo.New(hc,
		yahoo.WithBaseURL(y.BaseURL),
		yahoo.WithAutoAdjust(y.AutoAdjust),
		yahoo.WithGroupByTicker(y.GroupByTicker),
	)
}

// ProvidePriceSource picks the configured source: the Yahoo API or the
// ClickHouse table filled by the ingest command.
func ProvidePriceSource(cfg *config.Config, l *applogger.Logger) (repository.PriceSource, func(), error) {
	switch cfg.Provider.Source {
	case "clickhouse":
		client, cleanup, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		l.Info("price source: clickhouse", applogger.String("table", cfg.Provider.Table))
		return ProvidePriceStore(client, cfg, l), cleanup, nil
	default:
		return ProvideYahooClient(cfg), func() {}, nil
	}
}

// ProvideAdapter wraps the configured source with breaker, rate limit and
// column resolution.
func ProvideAdapter(src repository.PriceSource, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *provider.Adapter {
	return newAdapter(src, cfg, m, l)
}

// ProvideYahooAdapter always reads from Yahoo, whatever source is configured.
func ProvideYahooAdapter(y *yahoo.Client, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *provider.Adapter {
	return newAdapter(y, cfg, m, l)
}

func newAdapter(src repository.PriceSource, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *provider.Adapter {
	p := cfg.Provider
	return provider.NewAdapter(src, l, m,
		provider.WithTimeout(p.RequestTimeout),
		provider.WithRateLimit(p.RateLimit, p.Burst),
		provider.WithPolicy(provider.MultiColumnPolicy(p.MultiColumnPolicy)),
		provider.WithBreaker(p.Breaker.MaxRequests, p.Breaker.Interval, p.Breaker.Timeout, p.Breaker.ConsecutiveFailures),
	)
}

// ProvideLoader creates the batch panel loader.
func ProvideLoader(adapter *provider.Adapter, lc *icache.LoadCache, cfg *config.Config, m repository.Metrics, l *applogger.Logger) *usecase.Loader {
	return usecase.NewLoader(adapter, lc, cfg.Provider.Concurrency, m, l)
}

// ProvideMetricsEngine creates the risk/return engine.
func ProvideMetricsEngine(cfg *config.Config) *analytics.MetricsEngine {
	return analytics.NewMetricsEngine(cfg.Analytics.MinObservations, cfg.Analytics.RiskFreeRate)
}

// ProvideReportPublisher publishes analysis events to Kafka when enabled.
func ProvideReportPublisher(cfg *config.Config, l *applogger.Logger) (repository.ReportPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return repository.NoopPublisher{}, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		BatchTimeout: cfg.Kafka.Producer.Linger,
		Async:        cfg.Kafka.Producer.Async,
		HashByKey:    true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic)
	l.Info("kafka: publishing analysis events", applogger.Strings("brokers", cfg.Kafka.Brokers), applogger.String("topic", cfg.Kafka.Topic))
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideAnalyzer creates the analysis use case.
func ProvideAnalyzer(loader *usecase.Loader, engine *analytics.MetricsEngine, pub repository.ReportPublisher, cfg *config.Config, l *applogger.Logger) *usecase.Analyzer {
	a := cfg.Analytics
	return usecase.NewAnalyzer(loader, engine, pub, usecase.Tuning{
		Window:       a.Window,
		WindowMin:    a.WindowMin,
		WindowMax:    a.WindowMax,
		Threshold:    a.Threshold,
		ThresholdMin: a.ThresholdMin,
		ThresholdMax: a.ThresholdMax,
	}, l)
}

// ProvideCatalog loads the configured categories, or the built-in ones.
func ProvideCatalog(cfg *config.Config) *catalog.Catalog {
	return catalog.New(cfg.Catalog)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// ProvideHealthChecks collects probes for the dependencies that have one.
func ProvideHealthChecks(src repository.PriceSource, svc pkgcache.Service) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{}
	if h, ok := src.(healthChecker); ok {
		checks[src.Name()] = h.Health
	}
	if h, ok := svc.(healthChecker); ok {
		checks["cache"] = h.Health
	}
	return checks
}

// ProvideHandler creates the analytics HTTP handler.
func ProvideHandler(l *applogger.Logger, analyzer *usecase.Analyzer, cat *catalog.Catalog, adapter *provider.Adapter, endpoints *imetrics.Endpoint, checks map[string]api.HealthCheck) *api.AnalyticsEchoHandler {
	return api.NewAnalyticsEchoHandler(l, analyzer, cat, adapter, endpoints, checks)
}

// ProvideRateLimiter creates the per-client request limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec, 10*time.Minute)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.AnalyticsEchoHandler, limiter *ratelimit.Limiter, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(xhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsPath:     metricsPath,
		AllowOrigins:    cfg.Server.AllowOrigins,
		APIMiddleware:   []echo.MiddlewareFunc{middleware.RateLimit(limiter)},
	}, l, h)
}

// ProvideWarmer schedules the cache warm-up. It returns nil when disabled.
func ProvideWarmer(cfg *config.Config, loader *usecase.Loader, cat *catalog.Catalog, svc pkgcache.Service, l *applogger.Logger) (*usecase.Warmer, error) {
	if !cfg.Warmup.Enabled {
		return nil, nil
	}
	w := usecase.NewWarmer(loader, cat, cfg.Warmup.Categories, cfg.Warmup.Lookback, svc, l)
	if err := w.Register(cfg.Warmup.Cron); err != nil {
		return nil, err
	}
	return w, nil
}

// ProvideIngester copies Yahoo series into the ClickHouse table.
func ProvideIngester(adapter *provider.Adapter, store *internalrepo.CHPriceStore, cfg *config.Config, l *applogger.Logger) *usecase.Ingester {
	return usecase.NewIngester(adapter, store, cfg.Provider.Concurrency, l)
}

// ProvideApp creates the application server.
func ProvideApp(srv *xhttp.Server, warmer *usecase.Warmer, l *applogger.Logger) *server.App {
	if warmer == nil {
		return server.New(srv, l)
	}
	return server.New(srv, l, warmer)
}
