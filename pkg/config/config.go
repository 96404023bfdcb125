package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		AllowOrigins    []string      `yaml:"allow_origins" default:"[\"*\"]"`
		RateLimit       struct {
			Capacity     float64 `yaml:"capacity" default:"30"`
			RefillPerSec float64 `yaml:"refill_per_sec" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
	} `yaml:"log"`
	Provider   ProviderConfig   `yaml:"provider"`
	Analytics  AnalyticsConfig  `yaml:"analytics"`
	Cache      CacheConfig      `yaml:"cache"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Kafka      struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"macrolens.analysis"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Warmup  WarmupConfig        `yaml:"warmup"`
	Catalog map[string][]string `yaml:"catalog"`
}

// ProviderConfig controls how raw daily bars are fetched and resolved.
type ProviderConfig struct {
	Source            string        `yaml:"source" default:"yahoo"`
	Concurrency       int           `yaml:"concurrency" default:"8"`
	RequestTimeout    time.Duration `yaml:"request_timeout" default:"20s"`
	RateLimit         float64       `yaml:"rate_limit" default:"5"`
	Burst             int           `yaml:"burst" default:"5"`
	MultiColumnPolicy string        `yaml:"multi_column_policy" default:"strict"`
	Breaker           struct {
		MaxRequests         uint32        `yaml:"max_requests" default:"1"`
		Interval            time.Duration `yaml:"interval" default:"60s"`
		Timeout             time.Duration `yaml:"timeout" default:"30s"`
		ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"5"`
	} `yaml:"breaker"`
	Yahoo struct {
		BaseURL       string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		UserAgent     string `yaml:"user_agent" default:"Mozilla/5.0"`
		Proxy         string `yaml:"proxy"`
		AutoAdjust    bool   `yaml:"auto_adjust" default:"true"`
		GroupByTicker bool   `yaml:"group_by_ticker"`
	} `yaml:"yahoo"`
	Table string `yaml:"table" default:"macrolens.daily_bars"`
}

// AnalyticsConfig holds the analysis defaults and the accepted parameter ranges.
type AnalyticsConfig struct {
	Window          int     `yaml:"window" default:"30"`
	Threshold       float64 `yaml:"threshold" default:"2.5"`
	MinObservations int     `yaml:"min_observations" default:"30"`
	RiskFreeRate    float64 `yaml:"risk_free_rate" default:"2"`
	WindowMin       int     `yaml:"window_min" default:"10"`
	WindowMax       int     `yaml:"window_max" default:"120"`
	ThresholdMin    float64 `yaml:"threshold_min" default:"1.5"`
	ThresholdMax    float64 `yaml:"threshold_max" default:"4"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" default:"1h"`
	MemorySize int           `yaml:"memory_size" default:"256"`
	Redis      struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"macrolens"`
	} `yaml:"redis"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"macrolens"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

// WarmupConfig schedules background loads of whole categories.
type WarmupConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Cron       string        `yaml:"cron" default:"0 0 * * * *"`
	Categories []string      `yaml:"categories"`
	Lookback   time.Duration `yaml:"lookback" default:"8760h"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file. Defaults are applied first
// so explicit zero values in the file win.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MACROLENS_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PROVIDER_SOURCE"); v != "" {
		c.Provider.Source = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && c.Provider.Yahoo.Proxy == "" {
		c.Provider.Yahoo.Proxy = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Provider.Source {
	case "yahoo", "clickhouse":
	default:
		return fmt.Errorf("provider.source must be 'yahoo' or 'clickhouse', got '%s'", c.Provider.Source)
	}
	switch c.Provider.MultiColumnPolicy {
	case "strict", "last":
	default:
		return fmt.Errorf("provider.multi_column_policy must be 'strict' or 'last', got '%s'", c.Provider.MultiColumnPolicy)
	}
	if c.Provider.Concurrency < 1 {
		return fmt.Errorf("provider.concurrency must be positive")
	}
	if c.Provider.RateLimit <= 0 || c.Provider.Burst < 1 {
		return fmt.Errorf("provider.rate_limit and provider.burst must be positive")
	}

	a := c.Analytics
	if a.WindowMin < 2 || a.WindowMin > a.WindowMax {
		return fmt.Errorf("analytics window bounds invalid: [%d, %d]", a.WindowMin, a.WindowMax)
	}
	if a.Window < a.WindowMin || a.Window > a.WindowMax {
		return fmt.Errorf("analytics.window %d outside [%d, %d]", a.Window, a.WindowMin, a.WindowMax)
	}
	if a.ThresholdMin <= 0 || a.ThresholdMin > a.ThresholdMax {
		return fmt.Errorf("analytics threshold bounds invalid: [%g, %g]", a.ThresholdMin, a.ThresholdMax)
	}
	if a.Threshold < a.ThresholdMin || a.Threshold > a.ThresholdMax {
		return fmt.Errorf("analytics.threshold %g outside [%g, %g]", a.Threshold, a.ThresholdMin, a.ThresholdMax)
	}
	if a.MinObservations < 2 {
		return fmt.Errorf("analytics.min_observations must be at least 2")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Warmup.Enabled {
		if len(c.Warmup.Categories) == 0 {
			return fmt.Errorf("warmup.categories cannot be empty when warmup is enabled")
		}
		for _, name := range c.Warmup.Categories {
			// An empty catalog means the built-in one, checked when resolving.
			if len(c.Catalog) == 0 {
				break
			}
			if _, ok := c.Catalog[name]; !ok {
				return fmt.Errorf("warmup category %q is not in the catalog", name)
			}
		}
	}
	return nil
}
