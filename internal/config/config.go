// Package config loads the analyzer configuration file.
//
// Values are resolved in this order: built-in defaults, the YAML file, then
// environment variables (optionally read from a .env file).
package config

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/market-analyzer/internal/analyzer"
	"github.com/rxtech-lab/market-analyzer/internal/backtest"
	"github.com/rxtech-lab/market-analyzer/internal/backtest/commission_fee"
	"github.com/rxtech-lab/market-analyzer/internal/version"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvProvider       = "ANALYZER_PROVIDER"
	EnvTicker         = "ANALYZER_TICKER"
	EnvInterval       = "ANALYZER_INTERVAL"
	EnvDataPath       = "ANALYZER_DATA_PATH"
	EnvPolygonAPIKey  = "POLYGON_API_KEY"
	EnvRateLimit      = "ANALYZER_RATE_LIMIT"
	EnvRecorderPath   = "ANALYZER_RECORDER_PATH"
	EnvSchedule       = "ANALYZER_SCHEDULE"
	EnvServerAddress  = "ANALYZER_SERVER_ADDRESS"
	DefaultEnvFile    = ".env"
	DefaultLookback   = 200
	DefaultSchedule   = "0 */5 * * * *"
	DefaultAddress    = ":8080"
	DefaultDataPath   = "./data"
	DefaultRecordPath = "./analyzer.db"
)

// MarketDataConfig selects where analyzed bars come from.
type MarketDataConfig struct {
	Provider provider.ProviderType `yaml:"provider" json:"provider" jsonschema:"title=Provider,description=Market data provider,default=simulated" validate:"required,oneof=binance polygon simulated"`
	Ticker   string                `yaml:"ticker" json:"ticker" jsonschema:"title=Ticker,description=Symbol to analyze" validate:"required"`
	Interval string                `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Bar size,default=1d,enum=1s,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=3d,enum=1w,enum=1M" validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	// Start and End bound the fetched range. Without Start the range covers
	// Lookback bars before End.
	Start    optional.Option[time.Time] `yaml:"start" json:"start" jsonschema:"title=Start,description=Optional start of the fetched range"`
	End      optional.Option[time.Time] `yaml:"end" json:"end" jsonschema:"title=End,description=Optional end of the fetched range, defaults to now"`
	Lookback int                        `yaml:"lookback" json:"lookback" jsonschema:"title=Lookback,description=Bars fetched when start is not set,default=200" validate:"gte=1"`
	DataPath string                     `yaml:"data_path" json:"data_path" jsonschema:"title=Data Path,description=Directory for downloaded parquet files,default=./data" validate:"required"`
	APIKey   string                     `yaml:"api_key" json:"api_key" jsonschema:"title=API Key,description=Polygon.io API key" validate:"required_if=Provider polygon"`
	// RequestsPerSecond limits provider calls. Zero disables the limit.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" jsonschema:"title=Requests Per Second,default=5" validate:"gte=0"`
	Seed              int64   `yaml:"seed" json:"seed" jsonschema:"title=Seed,description=Seed of the simulated provider,default=42"`
}

// marketDataYAML is the on-disk form of MarketDataConfig. Unset start and end
// are omitted.
type marketDataYAML struct {
	Provider          provider.ProviderType `yaml:"provider"`
	Ticker            string                `yaml:"ticker"`
	Interval          string                `yaml:"interval"`
	Start             *time.Time            `yaml:"start,omitempty"`
	End               *time.Time            `yaml:"end,omitempty"`
	Lookback          int                   `yaml:"lookback"`
	DataPath          string                `yaml:"data_path"`
	APIKey            string                `yaml:"api_key"`
	RequestsPerSecond float64               `yaml:"requests_per_second"`
	Seed              int64                 `yaml:"seed"`
}

// MarshalYAML implements custom marshaling for MarketDataConfig
func (c MarketDataConfig) MarshalYAML() (any, error) {
	raw := marketDataYAML{
		Provider:          c.Provider,
		Ticker:            c.Ticker,
		Interval:          c.Interval,
		Lookback:          c.Lookback,
		DataPath:          c.DataPath,
		APIKey:            c.APIKey,
		RequestsPerSecond: c.RequestsPerSecond,
		Seed:              c.Seed,
	}

	if start, err := c.Start.Take(); err == nil {
		raw.Start = &start
	}

	if end, err := c.End.Take(); err == nil {
		raw.End = &end
	}

	return raw, nil
}

// UnmarshalYAML implements custom unmarshaling for MarketDataConfig
func (c *MarketDataConfig) UnmarshalYAML(value *yaml.Node) error {
	// start from the current values so omitted keys keep their defaults
	raw := marketDataYAML{
		Provider:          c.Provider,
		Ticker:            c.Ticker,
		Interval:          c.Interval,
		Lookback:          c.Lookback,
		DataPath:          c.DataPath,
		APIKey:            c.APIKey,
		RequestsPerSecond: c.RequestsPerSecond,
		Seed:              c.Seed,
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Provider = raw.Provider
	c.Ticker = raw.Ticker
	c.Interval = raw.Interval
	c.Lookback = raw.Lookback
	c.DataPath = raw.DataPath
	c.APIKey = raw.APIKey
	c.RequestsPerSecond = raw.RequestsPerSecond
	c.Seed = raw.Seed

	if raw.Start != nil {
		c.Start = optional.Some(*raw.Start)
	}

	if raw.End != nil {
		c.End = optional.Some(*raw.End)
	}

	return nil
}

// DownloadParams resolves the configured range against now.
func (c MarketDataConfig) DownloadParams(now time.Time) (marketdata.DownloadParams, error) {
	timespan, err := marketdata.ParseTimespan(c.Interval)
	if err != nil {
		return marketdata.DownloadParams{}, err
	}

	end := c.End.TakeOr(now).UTC()
	start := c.Start.TakeOr(end.Add(-time.Duration(c.Lookback) * timespan.Duration())).UTC()

	if !end.After(start) {
		return marketdata.DownloadParams{}, errors.New(errors.ErrCodeInvalidConfiguration, "market_data.end must be after market_data.start")
	}

	return marketdata.DownloadParams{
		Ticker:     c.Ticker,
		StartDate:  start,
		EndDate:    end,
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan.Timespan(),
	}, nil
}

// ClientConfig converts the section to a market data client config.
func (c MarketDataConfig) ClientConfig() marketdata.ClientConfig {
	config := marketdata.DefaultClientConfig(c.Provider, c.DataPath)
	config.PolygonApiKey = c.APIKey
	config.RequestsPerSecond = c.RequestsPerSecond
	config.Seed = c.Seed

	return config
}

// RecorderConfig configures the analysis history store.
type RecorderConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,description=Record analyses and backtests,default=false"`
	Path    string `yaml:"path" json:"path" jsonschema:"title=Path,description=SQLite database file,default=./analyzer.db" validate:"required_if=Enabled true"`
}

// SchedulerConfig configures the periodic analysis.
type SchedulerConfig struct {
	// Spec is a cron expression with a leading seconds field.
	Spec string `yaml:"spec" json:"spec" jsonschema:"title=Schedule,description=Cron expression with seconds,default=0 */5 * * * *" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `yaml:"address" json:"address" jsonschema:"title=Address,description=Listen address,default=:8080" validate:"required"`
}

// Config is the analyzer configuration file.
type Config struct {
	Version    string                  `yaml:"version" json:"version" jsonschema:"title=Version,description=Config format version,default=1.0.0"`
	Analysis   analyzer.AnalysisConfig `yaml:"analysis" json:"analysis" jsonschema:"title=Analysis"`
	Backtest   backtest.Config         `yaml:"backtest" json:"backtest" jsonschema:"title=Backtest"`
	MarketData MarketDataConfig        `yaml:"market_data" json:"market_data" jsonschema:"title=Market Data"`
	Recorder   RecorderConfig          `yaml:"recorder" json:"recorder" jsonschema:"title=Recorder"`
	Scheduler  SchedulerConfig         `yaml:"scheduler" json:"scheduler" jsonschema:"title=Scheduler"`
	Server     ServerConfig            `yaml:"server" json:"server" jsonschema:"title=Server"`
}

// Default returns a config that analyzes a simulated series.
func Default() Config {
	return Config{
		Version:  version.ConfigVersion,
		Analysis: analyzer.DefaultAnalysisConfig(),
		Backtest: backtest.DefaultConfig(),
		MarketData: MarketDataConfig{
			Provider:          provider.ProviderSimulated,
			Ticker:            "SIM",
			Interval:          string(marketdata.TimespanOneDay),
			Start:             optional.None[time.Time](),
			End:               optional.None[time.Time](),
			Lookback:          DefaultLookback,
			DataPath:          DefaultDataPath,
			RequestsPerSecond: provider.DefaultRequestsPerSecond,
			Seed:              provider.DefaultSimulationSeed,
		},
		Recorder: RecorderConfig{
			Enabled: false,
			Path:    DefaultRecordPath,
		},
		Scheduler: SchedulerConfig{Spec: DefaultSchedule},
		Server:    ServerConfig{Address: DefaultAddress},
	}
}

// Load reads the config file at path, applies environment overrides and
// validates the result. An empty path uses the defaults. envFile is loaded
// with godotenv when it exists; variables already set in the process win.
func Load(path string, envFile string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load env file %s", envFile)
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Parse decodes a YAML document over the defaults and validates it.
// Environment variables are not consulted.
func Parse(data []byte) (*Config, error) {
	config := Default()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvProvider); ok && v != "" {
		c.MarketData.Provider = provider.ProviderType(strings.ToLower(v))
	}

	if v, ok := lookup(EnvTicker); ok && v != "" {
		c.MarketData.Ticker = v
	}

	if v, ok := lookup(EnvInterval); ok && v != "" {
		c.MarketData.Interval = v
	}

	if v, ok := lookup(EnvDataPath); ok && v != "" {
		c.MarketData.DataPath = v
	}

	if v, ok := lookup(EnvPolygonAPIKey); ok && v != "" {
		c.MarketData.APIKey = v
	}

	if v, ok := lookup(EnvRateLimit); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid %s", EnvRateLimit)
		}

		c.MarketData.RequestsPerSecond = rps
	}

	if v, ok := lookup(EnvRecorderPath); ok && v != "" {
		c.Recorder.Enabled = true
		c.Recorder.Path = v
	}

	if v, ok := lookup(EnvSchedule); ok && v != "" {
		c.Scheduler.Spec = v
	}

	if v, ok := lookup(EnvServerAddress); ok && v != "" {
		c.Server.Address = v
	}

	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := version.CheckConfigCompatibility(version.ConfigVersion, c.Version); err != nil {
		return err
	}

	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	if err := c.Backtest.Validate(); err != nil {
		return err
	}

	validate := validator.New()

	for _, section := range []any{c.MarketData, c.Recorder, c.Scheduler, c.Server} {
		if err := validate.Struct(section); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
		}
	}

	if c.MarketData.Start.IsSome() && c.MarketData.End.IsSome() &&
		!c.MarketData.End.Unwrap().After(c.MarketData.Start.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidConfiguration, "market_data.end must be after market_data.start")
	}

	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).
		Parse(c.Scheduler.Spec); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid scheduler.spec %q", c.Scheduler.Spec)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(optional.Option[time.Time]{}) {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if t == reflect.TypeOf(commission_fee.Broker("")) {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			if t == reflect.TypeOf(provider.ProviderType("")) {
				enum := make([]any, 0, len(provider.AllProviderTypes))
				for _, p := range provider.AllProviderTypes {
					enum = append(enum, string(p))
				}

				return &jsonschema.Schema{
					Type: "string",
					Enum: enum,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "market-analyzer-config"
	schema.Description = "Configuration schema for the market analyzer"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(schemaBytes), nil
}
