package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Storage    MStorageConfig    `yaml:"storage"`
	DataSource MDataSourceConfig `yaml:"data_source"`
	Network    MNetworkConfig    `yaml:"network"`
	Models     MModelsConfig     `yaml:"models"`
	Features   MFeatureConfig    `yaml:"features"`
	MarketData MMarketDataConfig `yaml:"market_data"`
	Feed       MFeedConfig       `yaml:"feed"`
}

type MStorageConfig struct {
	DBType                  string `yaml:"db_type"` // "sqlite" or "postgres"
	DBPath                  string `yaml:"db_path"`
	DBConnectionString      string `yaml:"db_connection_string"`
	PredictionRetentionDays int    `yaml:"prediction_retention_days"`
}

// MDataSourceConfig points at the workbooks used by the importer.
// Mode "demo" serves from imported files only, "live" also refreshes
// metal quotes from the market API.
type MDataSourceConfig struct {
	Mode        string `yaml:"mode"`
	AuctionFile string `yaml:"auction_file"`
	CopperFile  string `yaml:"copper_file"`
	ZincFile    string `yaml:"zinc_file"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

// MModelsConfig describes where artifacts live and which slots are expected.
type MModelsConfig struct {
	Dir            string   `yaml:"dir"`
	Categories     []string `yaml:"categories"`
	Targets        []string `yaml:"targets"`
	LowerQuantile  string   `yaml:"lower_quantile"`
	MedianQuantile string   `yaml:"median_quantile"`
	UpperQuantile  string   `yaml:"upper_quantile"`
}

type MFeatureConfig struct {
	HistoryYears        int     `yaml:"history_years"`
	EWMSpan             int     `yaml:"ewm_span"`
	CopperWeight        float64 `yaml:"copper_weight"`
	ZincWeight          float64 `yaml:"zinc_weight"`
	CopperFallbackPrice float64 `yaml:"copper_fallback_price"`
	ZincFallbackPrice   float64 `yaml:"zinc_fallback_price"`
}

type MMarketDataConfig struct {
	APIURL                 string `yaml:"api_url"`
	RefreshIntervalMinutes int    `yaml:"refresh_interval_minutes"`
	ExchangeMIC            string `yaml:"exchange_mic"`
	MaxStaleBusinessDays   int    `yaml:"max_stale_business_days"`
}

type MFeedConfig struct {
	RecentCapacity int `yaml:"recent_capacity"`
}

// Quantiles returns the configured quantile names ordered lower, median, upper.
func (m MModelsConfig) Quantiles() []string {
	return []string{m.LowerQuantile, m.MedianQuantile, m.UpperQuantile}
}
