package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"auction-predictor/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the YAML file nor the environment sets a value.
const (
	DefaultName                = "auction-predictor"
	DefaultHost                = "0.0.0.0"
	DefaultPort                = 8000
	DefaultGrpcPort            = 50051
	DefaultLogLevel            = "INFO"
	DefaultDBType              = "sqlite"
	DefaultDBPath              = "data/auctions.db"
	DefaultRetentionDays       = 90
	DefaultDataSourceMode      = "demo"
	DefaultRequestTimeout      = 10
	DefaultMaxRetries          = 3
	DefaultUserAgent           = "auction-predictor/1.0"
	DefaultModelsDir           = "models"
	DefaultHistoryYears        = 3
	DefaultEWMSpan             = 7
	DefaultCopperWeight        = 0.6
	DefaultZincWeight          = 0.4
	DefaultCopperFallbackPrice = 800000
	DefaultZincFallbackPrice   = 300000
	DefaultExchangeMIC         = "XNSE"
	DefaultMaxStaleDays        = 5
	DefaultRefreshMinutes      = 60
	DefaultRecentCapacity      = 100
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig builds the configuration from an optional YAML file, optional
// .env files and the process environment, in that order of precedence (lowest first).
// An empty configPath yields defaults plus environment.
func NewConfig(configPath string, envFiles ...string) (*Config, error) {
	// 1. Load .env files; missing files are not an error
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load env file '%s': %w", f, err)
		}
	}

	// 2. Unmarshal YAML into the models struct
	var modelConfig models.MConfig
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
		}
		if err := yaml.Unmarshal(data, &modelConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	config := &Config{MConfig: &modelConfig}

	// 3. Environment and defaults
	if err := config.applyEnvOverrides(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.DataSource.Mode = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			c.Storage.DBType = "postgres"
			c.Storage.DBConnectionString = v
		} else {
			c.Storage.DBType = "sqlite"
			c.Storage.DBPath = strings.TrimPrefix(v, "sqlite://")
		}
	}
	if v := os.Getenv("MARKET_API_URL"); v != "" {
		c.MarketData.APIURL = v
	}
	if v := os.Getenv("MODELS_DIR"); v != "" {
		c.Models.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"COPPER_PRICE_DEF", &c.Features.CopperFallbackPrice},
		{"ZINC_PRICE_DEF", &c.Features.ZincFallbackPrice},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", f.key, v, err)
			}
			*f.dst = n
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"HISTORICAL_DATA_LMT", &c.Features.HistoryYears},
		{"PORT", &c.Port},
		{"GRPC_PORT", &c.GrpcPort},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", i.key, v, err)
			}
			*i.dst = n
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.GrpcHost == "" {
		c.GrpcHost = c.Host
	}
	if c.GrpcPort == 0 {
		c.GrpcPort = DefaultGrpcPort
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	if c.Storage.DBType == "" {
		c.Storage.DBType = DefaultDBType
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		c.Storage.DBPath = DefaultDBPath
	}
	if c.Storage.PredictionRetentionDays == 0 {
		c.Storage.PredictionRetentionDays = DefaultRetentionDays
	}
	if c.DataSource.Mode == "" {
		c.DataSource.Mode = DefaultDataSourceMode
	}

	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = DefaultRequestTimeout
	}
	if c.Network.MaxRetries == 0 {
		c.Network.MaxRetries = DefaultMaxRetries
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = DefaultUserAgent
	}

	if c.Models.Dir == "" {
		c.Models.Dir = DefaultModelsDir
	}
	if len(c.Models.Categories) == 0 {
		c.Models.Categories = []string{models.GroupCylinder, models.GroupValve}
	}
	if len(c.Models.Targets) == 0 {
		c.Models.Targets = []string{"proposed_rp", "lbp"}
	}
	if c.Models.LowerQuantile == "" {
		c.Models.LowerQuantile = "q5"
	}
	if c.Models.MedianQuantile == "" {
		c.Models.MedianQuantile = "q50"
	}
	if c.Models.UpperQuantile == "" {
		c.Models.UpperQuantile = "q90"
	}

	if c.Features.HistoryYears == 0 {
		c.Features.HistoryYears = DefaultHistoryYears
	}
	if c.Features.EWMSpan == 0 {
		c.Features.EWMSpan = DefaultEWMSpan
	}
	if c.Features.CopperWeight == 0 && c.Features.ZincWeight == 0 {
		c.Features.CopperWeight = DefaultCopperWeight
		c.Features.ZincWeight = DefaultZincWeight
	}
	if c.Features.CopperFallbackPrice == 0 {
		c.Features.CopperFallbackPrice = DefaultCopperFallbackPrice
	}
	if c.Features.ZincFallbackPrice == 0 {
		c.Features.ZincFallbackPrice = DefaultZincFallbackPrice
	}

	if c.MarketData.ExchangeMIC == "" {
		c.MarketData.ExchangeMIC = DefaultExchangeMIC
	}
	if c.MarketData.RefreshIntervalMinutes == 0 {
		c.MarketData.RefreshIntervalMinutes = DefaultRefreshMinutes
	}
	if c.MarketData.MaxStaleBusinessDays == 0 {
		c.MarketData.MaxStaleBusinessDays = DefaultMaxStaleDays
	}
	if c.Feed.RecentCapacity == 0 {
		c.Feed.RecentCapacity = DefaultRecentCapacity
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	switch c.DataSource.Mode {
	case "demo", "live":
	default:
		return fmt.Errorf("unsupported data source mode: %s", c.DataSource.Mode)
	}
	if c.DataSource.Mode == "live" && c.MarketData.APIURL == "" {
		return fmt.Errorf("market api url is required in live mode")
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Models
	if len(c.Models.Targets) == 0 {
		return fmt.Errorf("at least one target must be configured")
	}
	for _, q := range c.Models.Quantiles() {
		if q == "" {
			return fmt.Errorf("lower, median and upper quantiles must be set")
		}
	}

	// Features
	if c.Features.HistoryYears <= 0 {
		return fmt.Errorf("history years must be greater than 0")
	}
	if c.Features.EWMSpan < 1 {
		return fmt.Errorf("ewm span must be at least 1")
	}
	if c.Features.CopperFallbackPrice <= 0 || c.Features.ZincFallbackPrice <= 0 {
		return fmt.Errorf("fallback metal prices must be greater than 0")
	}

	if c.Feed.RecentCapacity <= 0 {
		return fmt.Errorf("recent capacity must be greater than 0")
	}
	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
