// Package scheduler runs the fetch, analyze and record cycle on a cron schedule.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/market-analyzer/internal/analyzer"
	"github.com/rxtech-lab/market-analyzer/internal/config"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/recorder"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata"
	"go.uber.org/zap"
)

// Fetcher loads the bars analyzed on every tick. *marketdata.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, params marketdata.DownloadParams) ([]types.MarketData, error)
}

// Scheduler manages the periodic analysis task.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	market   config.MarketDataConfig
	fetcher  Fetcher
	analyzer *analyzer.Analyzer
	recorder recorder.Recorder
	logger   *logger.Logger
	now      func() time.Time

	mu sync.Mutex
	// ctx is the context of scheduled runs. Start creates it and Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	last *types.MarketAnalysisResult
	runs int
}

// NewScheduler registers the analysis task on spec, a cron expression with a
// leading seconds field. A nil recorder disables recording.
func NewScheduler(
	spec string,
	market config.MarketDataConfig,
	fetcher Fetcher,
	trendAnalyzer *analyzer.Analyzer,
	rec recorder.Recorder,
	log *logger.Logger,
) (*Scheduler, error) {
	if fetcher == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "fetcher is required")
	}

	if trendAnalyzer == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "analyzer is required")
	}

	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	schedulerLogger := log.Named("scheduler")
	cronLogger := &cronLogger{logger: schedulerLogger}

	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		spec:     spec,
		market:   market,
		fetcher:  fetcher,
		analyzer: trendAnalyzer,
		recorder: rec,
		logger:   schedulerLogger,
		now:      time.Now,
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule %q", spec)
	}

	return s, nil
}

// Start starts the cron scheduler in its own goroutine. A stopped scheduler
// can be started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.ctx == nil || s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("spec", s.spec), zap.String("ticker", s.market.Ticker))
}

// Stop stops the scheduler and cancels running tasks. It waits for them to
// return or for ctx to be done, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce runs a single fetch, analyze and record cycle.
// A recording failure is logged and does not fail the cycle.
func (s *Scheduler) RunOnce(ctx context.Context) (types.MarketAnalysisResult, error) {
	params, err := s.market.DownloadParams(s.now())
	if err != nil {
		return types.MarketAnalysisResult{}, err
	}

	data, err := s.fetcher.Fetch(ctx, params)
	if err != nil {
		return types.MarketAnalysisResult{}, err
	}

	if len(data) == 0 {
		return types.MarketAnalysisResult{}, errors.Newf(errors.ErrCodeNoDataFound, "no data for %s", params.Ticker)
	}

	result, err := s.analyzer.Analyze(data)
	if err != nil {
		return types.MarketAnalysisResult{}, err
	}

	if result.Symbol == "" {
		result.Symbol = params.Ticker
	}

	if err := s.recorder.RecordAnalysis(ctx, result); err != nil {
		s.logger.Error("Failed to record analysis", zap.String("symbol", result.Symbol), zap.Error(err))
	}

	s.mu.Lock()
	s.last = &result
	s.runs++
	s.mu.Unlock()

	s.logger.Info("Analysis completed",
		zap.String("symbol", result.Symbol),
		zap.String("trend", string(result.Trend)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("bars", len(data)),
	)

	return result, nil
}

// Last returns the most recent successful analysis.
func (s *Scheduler) Last() (types.MarketAnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return types.MarketAnalysisResult{}, false
	}

	return *s.last, true
}

// Runs returns the number of successful cycles.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runs
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil {
		return context.Background()
	}

	return s.ctx
}

func (s *Scheduler) tick() {
	if _, err := s.RunOnce(s.runContext()); err != nil {
		s.logger.Error("Scheduled analysis failed", zap.String("ticker", s.market.Ticker), zap.Error(err))
	}
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	logger *logger.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
