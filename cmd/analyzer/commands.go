package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/market-analyzer/internal/analyzer"
	"github.com/rxtech-lab/market-analyzer/internal/backtest"
	"github.com/rxtech-lab/market-analyzer/internal/indicator"
	"github.com/rxtech-lab/market-analyzer/internal/report"
	"github.com/rxtech-lab/market-analyzer/internal/scheduler"
	"github.com/rxtech-lab/market-analyzer/internal/sentiment"
	"github.com/rxtech-lab/market-analyzer/internal/server"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func (a *application) analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Blend MA, RSI, MACD and Bollinger signals into a trend verdict",
		Flags: append(marketFlags(),
			&cli.IntFlag{
				Name:    "window",
				Aliases: []string{"w"},
				Usage:   "Moving average window, defaults to the config",
			},
		),
		Action: a.analyze,
	}
}

func (a *application) analyze(ctx context.Context, cmd *cli.Command) error {
	data, err := a.loadSeries(ctx, cmd)
	if err != nil {
		return err
	}

	trendAnalyzer, err := analyzer.NewAnalyzer(a.config.Analysis, a.logger)
	if err != nil {
		return err
	}

	window := a.config.Analysis.WindowSize
	if cmd.IsSet("window") {
		window = cmd.Int("window")
	}

	result, err := trendAnalyzer.AnalyzeWithWindow(data, window)
	if err != nil {
		return err
	}

	rec, err := a.openRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	if err := rec.RecordAnalysis(ctx, result); err != nil {
		a.logger.Warn("Failed to record analysis", zap.Error(err))
	}

	return a.print(cmd, result, func() string { return report.Analysis(result) })
}

func (a *application) backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay a built-in strategy over a series",
		Flags: append(marketFlags(),
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Strategy name, one of: " + fmt.Sprint(backtest.AvailableStrategies()),
			},
			&cli.FloatFlag{
				Name:  "capital",
				Usage: "Initial capital, defaults to the config",
			},
			&cli.FloatFlag{
				Name:  "fee",
				Usage: "Fee in percent of the traded notional, defaults to the config",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the result as YAML to this file",
			},
		),
		Action: a.backtest,
	}
}

func (a *application) backtest(ctx context.Context, cmd *cli.Command) error {
	btConfig := a.config.Backtest

	if cmd.IsSet("capital") {
		btConfig.InitialCapital = cmd.Float("capital")
	}

	if cmd.IsSet("fee") {
		btConfig.FeePercent = cmd.Float("fee")
	}

	if cmd.IsSet("strategy") {
		btConfig.Strategy = cmd.String("strategy")
		btConfig.StrategyParams = nil
	}

	backtester, err := backtest.NewBacktester(btConfig, a.logger)
	if err != nil {
		return err
	}

	data, err := a.loadSeries(ctx, cmd)
	if err != nil {
		return err
	}

	result, err := backtester.RunNamed(data, btConfig.Strategy, btConfig.StrategyParams)
	if err != nil {
		return err
	}

	rec, err := a.openRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	if err := rec.RecordBacktest(ctx, result); err != nil {
		a.logger.Warn("Failed to record backtest", zap.Error(err))
	}

	if path := cmd.String("output"); path != "" {
		if err := types.WriteBacktestResult(path, result); err != nil {
			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to write backtest result", err)
		}

		a.logger.Info("Backtest result written", zap.String("path", path))
	}

	return a.print(cmd, result, func() string { return report.Backtest(result) })
}

func (a *application) sentimentCommand() *cli.Command {
	return &cli.Command{
		Name:  "sentiment",
		Usage: "Aggregate weighted sentiment scores from a YAML or JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "input",
				Aliases:   []string{"f"},
				Usage:     "File holding a list of {source, score, weight} or {inputs: [...]}",
				Required:  true,
				TakesFile: true,
			},
		},
		Action: a.sentiment,
	}
}

func (a *application) sentiment(_ context.Context, cmd *cli.Command) error {
	inputs, err := readSentimentInputs(cmd.String("input"))
	if err != nil {
		return err
	}

	result, err := sentiment.NewAggregator(a.logger).Analyze(inputs)
	if err != nil {
		return err
	}

	return a.print(cmd, result, func() string { return report.Sentiment(result) })
}

// readSentimentInputs accepts a bare list or a document with an inputs key.
// JSON is read as YAML.
func readSentimentInputs(path string) ([]types.SentimentInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to read %s", path)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to parse %s", path)
	}

	var inputs []types.SentimentInput

	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = node.Decode(&inputs)
	} else {
		var doc struct {
			Inputs []types.SentimentInput `yaml:"inputs"`
		}

		err = node.Decode(&doc)
		inputs = doc.Inputs
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to decode sentiment inputs in %s", path)
	}

	return inputs, nil
}

func (a *application) indicatorsCommand() *cli.Command {
	return &cli.Command{
		Name:   "indicators",
		Usage:  "Print the latest value and signal of every registered indicator",
		Flags:  marketFlags(),
		Action: a.indicators,
	}
}

func (a *application) indicators(ctx context.Context, cmd *cli.Command) error {
	data, err := a.loadSeries(ctx, cmd)
	if err != nil {
		return err
	}

	readings, err := indicator.LatestReadings(indicator.NewDefaultRegistry(), data)
	if err != nil {
		return err
	}

	symbol := types.SeriesSymbol(data)
	source := types.SeriesSource(data)

	return a.print(cmd, readings, func() string { return report.Indicators(symbol, source, readings) })
}

func (a *application) downloadCommand() *cli.Command {
	return &cli.Command{
		Name:   "download",
		Usage:  "Fetch bars from a provider into a parquet file",
		Flags:  marketFlags(),
		Action: a.download,
	}
}

func (a *application) download(ctx context.Context, cmd *cli.Command) error {
	market := a.marketConfig(cmd)

	clientConfig := market.ClientConfig()
	clientConfig.ProgressWriter = a.errOut

	client, err := marketdata.NewClient(clientConfig, a.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	params, err := market.DownloadParams(a.now())
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, params)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(a.out, path)

	return err
}

func (a *application) schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the config file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Print the download config schema of this provider instead",
			},
		},
		Action: a.schema,
	}
}

func (a *application) schema(_ context.Context, cmd *cli.Command) error {
	var (
		out string
		err error
	)

	if name := cmd.String("provider"); name != "" {
		out, err = marketdata.GetDownloadConfigSchema(name)
	} else {
		out, err = a.config.GenerateSchemaJSON()
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(a.out, out)

	return err
}

func (a *application) watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Analyze on the configured cron schedule until interrupted",
		Flags: append(marketFlags(),
			&cli.StringFlag{
				Name:  "schedule",
				Usage: "Cron expression with seconds, overrides the config",
			},
			&cli.BoolFlag{
				Name:  "now",
				Usage: "Run once immediately before waiting for the schedule",
			},
		),
		Action: a.watch,
	}
}

func (a *application) watch(ctx context.Context, cmd *cli.Command) error {
	market := a.marketConfig(cmd)

	spec := a.config.Scheduler.Spec
	if cmd.IsSet("schedule") {
		spec = cmd.String("schedule")
	}

	client, err := marketdata.NewClient(market.ClientConfig(), a.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	trendAnalyzer, err := analyzer.NewAnalyzer(a.config.Analysis, a.logger)
	if err != nil {
		return err
	}

	rec, err := a.openRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	sched, err := scheduler.NewScheduler(spec, market, client, trendAnalyzer, rec, a.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("now") {
		result, err := sched.RunOnce(ctx)
		if err != nil {
			a.logger.Error("Initial analysis failed", zap.Error(err))
		} else if err := a.print(cmd, result, func() string { return report.Analysis(result) }); err != nil {
			return err
		}
	}

	sched.Start()
	<-ctx.Done()

	return sched.Stop(context.Background())
}

func (a *application) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON HTTP API until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "Listen address, overrides the config",
			},
		},
		Action: a.serve,
	}
}

func (a *application) serve(ctx context.Context, cmd *cli.Command) error {
	address := a.config.Server.Address
	if cmd.IsSet("address") {
		address = cmd.String("address")
	}

	rec, err := a.openRecorder()
	if err != nil {
		return err
	}
	defer rec.Close()

	srv, err := server.NewServer(server.Config{
		Address:  address,
		Analysis: a.config.Analysis,
		Backtest: a.config.Backtest,
	}, rec, a.logger)
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	return srv.Shutdown(context.Background())
}
