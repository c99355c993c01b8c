package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/market-analyzer/internal/config"
	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/recorder"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/internal/version"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorStyle for error messages.
var ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

// application holds what the Before hook resolves for every command.
type application struct {
	out    io.Writer
	errOut io.Writer
	config *config.Config
	logger *logger.Logger
	now    func() time.Time
}

func newApp(out io.Writer, errOut io.Writer) *cli.Command {
	app := &application{out: out, errOut: errOut, now: time.Now}

	return &cli.Command{
		Name:      "analyzer",
		Usage:     "Technical analysis, backtesting and sentiment aggregation for market data",
		Version:   version.GetVersion(),
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "config",
				Aliases:   []string{"c"},
				Usage:     "Path to the YAML config file",
				Sources:   cli.EnvVars("ANALYZER_CONFIG"),
				TakesFile: true,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file with overrides",
				Value: config.DefaultEnvFile,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON instead of a report",
			},
			&cli.StringFlag{
				Name:  "recorder",
				Usage: "SQLite file to record results in, overrides the config",
			},
		},
		Before: app.before,
		After:  app.after,
		Commands: []*cli.Command{
			app.analyzeCommand(),
			app.backtestCommand(),
			app.sentimentCommand(),
			app.indicatorsCommand(),
			app.downloadCommand(),
			app.schemaCommand(),
			app.watchCommand(),
			app.serveCommand(),
		},
	}
}

func (a *application) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := zapcore.InfoLevel
	if cmd.Bool("debug") {
		level = zapcore.DebugLevel
	}

	log, err := logger.NewStderrLogger(level)
	if err != nil {
		return ctx, fmt.Errorf("failed to create logger: %w", err)
	}

	a.logger = log

	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return ctx, err
	}

	if path := cmd.String("recorder"); path != "" {
		cfg.Recorder.Enabled = true
		cfg.Recorder.Path = path
	}

	a.config = cfg

	return ctx, nil
}

func (a *application) after(_ context.Context, _ *cli.Command) error {
	if a.logger != nil {
		// stderr cannot always be synced, the error carries no information
		_ = a.logger.Sync()
	}

	return nil
}

// marketFlags select and override the market data section of the config.
func marketFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Aliases: []string{"p"},
			Usage:   fmt.Sprintf("Market data provider (%s, %s, %s)", provider.ProviderBinance, provider.ProviderPolygon, provider.ProviderSimulated),
		},
		&cli.StringFlag{
			Name:    "ticker",
			Aliases: []string{"t"},
			Usage:   "Symbol to fetch",
		},
		&cli.StringFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "Bar size, e.g. 1m, 1h, 1d",
		},
		&cli.IntFlag{
			Name:  "lookback",
			Usage: "Bars to fetch when no start is given",
		},
		&cli.TimestampFlag{
			Name:  "start",
			Usage: "Start of the range in `YYYY-MM-DD` format",
			Config: cli.TimestampConfig{
				Layouts: []string{"2006-01-02", time.RFC3339},
			},
		},
		&cli.TimestampFlag{
			Name:  "end",
			Usage: "End of the range in `YYYY-MM-DD` format, defaults to now",
			Config: cli.TimestampConfig{
				Layouts: []string{"2006-01-02", time.RFC3339},
			},
		},
		&cli.StringFlag{
			Name:      "data",
			Aliases:   []string{"d"},
			Usage:     "Read bars from a parquet file instead of a provider",
			TakesFile: true,
		},
	}
}

// marketConfig applies the market flags of cmd over the config file.
func (a *application) marketConfig(cmd *cli.Command) config.MarketDataConfig {
	market := a.config.MarketData

	if cmd.IsSet("provider") {
		market.Provider = provider.ProviderType(cmd.String("provider"))
	}

	if cmd.IsSet("ticker") {
		market.Ticker = cmd.String("ticker")
	}

	if cmd.IsSet("interval") {
		market.Interval = cmd.String("interval")
	}

	if cmd.IsSet("lookback") {
		market.Lookback = cmd.Int("lookback")
	}

	if cmd.IsSet("start") {
		market.Start = optional.Some(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		market.End = optional.Some(cmd.Timestamp("end"))
	}

	return market, nil
}

// loadSeries reads the bars a command works on, from --data when given and
// from the configured provider otherwise.
func (a *application) loadSeries(ctx context.Context, cmd *cli.Command) ([]types.MarketData, error) {
	if path := cmd.String("data"); path != "" {
		return readParquet(path, cmd.String("ticker"), a.logger)
	}

	market := a.marketConfig(cmd)

	client, err := marketdata.NewClient(market.ClientConfig(), a.logger)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	params, err := market.DownloadParams(a.now())
	if err != nil {
		return nil, err
	}

	return client.Fetch(ctx, params)
}

// readParquet loads a file written by the download command. A non-empty
// symbol keeps only that symbol's bars.
func readParquet(path string, symbol string, log *logger.Logger) ([]types.MarketData, error) {
	source, err := datasource.NewDuckDBDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := source.Initialize(path); err != nil {
		return nil, err
	}

	data := []types.MarketData{}

	for bar, err := range source.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		if err != nil {
			return nil, err
		}

		if symbol != "" && bar.Symbol != symbol {
			continue
		}

		data = append(data, bar)
	}

	if len(data) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars in %s", path)
	}

	log.Debug("Loaded parquet file", zap.String("path", path), zap.Int("bars", len(data)))

	return data, nil
}

func (a *application) openRecorder() (recorder.Recorder, error) {
	if !a.config.Recorder.Enabled {
		return recorder.NewNoopRecorder(), nil
	}

	return recorder.NewSQLiteRecorder(a.config.Recorder.Path, a.logger)
}

// print writes v as indented JSON when --json is set and the rendered report otherwise.
func (a *application) print(cmd *cli.Command, v any, rendered func() string) error {
	if !cmd.Bool("json") {
		_, err := fmt.Fprint(a.out, rendered())

		return err
	}

	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
