package marketdata

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// WriterType defines the type of market data writer.
type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

// OnDownloadProgress is called after every written bar.
type OnDownloadProgress func(current float64, total float64, message string)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance simulated"`
	WriterType    WriterType            `validate:"required,oneof=duckdb"`
	DataPath      string                `validate:"required"`
	PolygonApiKey string                `validate:"required_if=ProviderType polygon"`
	// RequestsPerSecond limits provider calls. Zero disables the limit.
	RequestsPerSecond float64 `validate:"gte=0"`
	// Seed is used by the simulated provider.
	Seed int64
	// ProgressWriter receives the download progress bar. Nil hides it.
	ProgressWriter io.Writer
}

// DefaultClientConfig returns a DuckDB-backed config for the given provider.
func DefaultClientConfig(providerType provider.ProviderType, dataPath string) ClientConfig {
	return ClientConfig{
		ProviderType:      providerType,
		WriterType:        WriterDuckDB,
		DataPath:          dataPath,
		RequestsPerSecond: provider.DefaultRequestsPerSecond,
		Seed:              provider.DefaultSimulationSeed,
	}
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Ticker     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// ToFetchParams converts the download request to provider parameters.
func (p DownloadParams) ToFetchParams() provider.FetchParams {
	return provider.FetchParams{
		Ticker:     p.Ticker,
		Start:      p.StartDate,
		End:        p.EndDate,
		Multiplier: p.Multiplier,
		Timespan:   p.Timespan,
	}
}

// FileName is the parquet file name for the request: TICKER_START_END_MULTIPLIER_TIMESPAN.parquet
func (p DownloadParams) FileName() string {
	return fmt.Sprintf("%s_%s_%s_%d_%s.parquet",
		p.Ticker,
		p.StartDate.Format("2006-01-02"),
		p.EndDate.Format("2006-01-02"),
		p.Multiplier,
		p.Timespan)
}

// Client is the market data client responsible for fetching data from providers and storing it using writers.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	logger     *logger.Logger
	onProgress OnDownloadProgress
	newWriter  func(outputPath string) writer.MarketDataWriter
}

// NewClient creates a new market data client with the given configuration.
// Provider calls are rate limited and retried.
func NewClient(config ClientConfig, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	var marketProvider provider.Provider

	if config.ProviderType == provider.ProviderSimulated {
		marketProvider = provider.NewSimulatedProvider(config.Seed)
	} else {
		base, err := provider.NewProvider(config.ProviderType, config.PolygonApiKey)
		if err != nil {
			return nil, err
		}

		retryConfig := provider.DefaultRetryConfig()
		retryConfig.RequestsPerSecond = config.RequestsPerSecond
		marketProvider = provider.NewRetryProvider(base, retryConfig, log)
	}

	return NewClientWithProvider(config, marketProvider, log)
}

// NewClientWithProvider creates a client around an existing provider.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	clientLogger := log.Named("marketdata")

	return &Client{
		provider: marketProvider,
		config:   config,
		validate: validate,
		logger:   clientLogger,
		newWriter: func(outputPath string) writer.MarketDataWriter {
			return writer.NewDuckDBWriter(outputPath, clientLogger)
		},
	}, nil
}

// OnProgress registers a progress callback for Download.
func (c *Client) OnProgress(onProgress OnDownloadProgress) {
	c.onProgress = onProgress
}

// Provider returns the provider used by the client.
func (c *Client) Provider() provider.Provider {
	return c.provider
}

// Fetch returns the bars for params without persisting them.
func (c *Client) Fetch(ctx context.Context, params DownloadParams) ([]types.MarketData, error) {
	if err := c.validate.Struct(params); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	data, err := c.provider.Fetch(ctx, params.ToFetchParams())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched market data",
		zap.String("provider", string(c.provider.Type())),
		zap.String("ticker", params.Ticker),
		zap.Int("bars", len(data)),
	)

	return data, nil
}

// Download fetches the bars for params and writes them to a parquet file
// under the configured data path. It returns the path of the file.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (path string, err error) {
	data, err := c.Fetch(ctx, params)
	if err != nil {
		return "", err
	}

	if len(data) == 0 {
		return "", errors.Newf(errors.ErrCodeNoDataFound, "no data returned for %s between %s and %s",
			params.Ticker, params.StartDate.Format(time.RFC3339), params.EndDate.Format(time.RFC3339))
	}

	marketWriter, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	defer func() {
		if cerr := marketWriter.Close(); cerr != nil {
			if err == nil {
				err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "error closing writer", cerr)
			} else {
				c.logger.Warn("Failed to close writer after another error", zap.Error(cerr))
			}
		}
	}()

	progressWriter := c.config.ProgressWriter
	if progressWriter == nil {
		progressWriter = io.Discard
	}

	description := fmt.Sprintf("Downloading %s", params.Ticker)
	bar := progressbar.NewOptions(len(data),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(progressWriter),
	)

	for i, d := range data {
		if err := ctx.Err(); err != nil {
			c.removeOutput(marketWriter.GetOutputPath())

			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", err)
		}

		if err := marketWriter.Write(d); err != nil {
			c.removeOutput(marketWriter.GetOutputPath())

			return "", err
		}

		_ = bar.Add(1)

		if c.onProgress != nil {
			c.onProgress(float64(i+1), float64(len(data)), description)
		}
	}

	_ = bar.Finish()

	path, err = marketWriter.Finalize()
	if err != nil {
		return "", err
	}

	c.logger.Info("Market data downloaded",
		zap.String("ticker", params.Ticker),
		zap.String("path", path),
		zap.Int("bars", len(data)),
		zap.String("source", string(types.SeriesSource(data))),
	)

	return path, nil
}

// Close releases the client. The client holds no connections between calls.
func (c *Client) Close() error {
	return nil
}

// setupWriter initializes the appropriate market data writer based on configuration.
func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		outputPath := filepath.Join(c.config.DataPath, params.FileName())

		if err := os.MkdirAll(c.config.DataPath, 0o755); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create data path %s", c.config.DataPath)
		}

		marketWriter := c.newWriter(outputPath)

		if err := marketWriter.Initialize(); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to initialize writer at %s", outputPath)
		}

		return marketWriter, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}

func (c *Client) removeOutput(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.Warn("Failed to remove partial output", zap.String("path", path), zap.Error(err))
	}
}
