// Package analyzer blends moving averages, RSI, MACD and Bollinger Bands into
// a single trend verdict with a signed confidence score.
package analyzer

import (
	"math"
	"time"

	"github.com/rxtech-lab/market-analyzer/internal/indicator"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"go.uber.org/zap"
)

// Analyzer runs trend analyses with a fixed configuration. It holds no
// per-call state and is safe for concurrent use.
type Analyzer struct {
	config AnalysisConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewAnalyzer validates config and returns an Analyzer. A nil logger discards output.
func NewAnalyzer(config AnalysisConfig, log *logger.Logger) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Analyzer{
		config: config,
		logger: log.Named("analyzer"),
		now:    time.Now,
	}, nil
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() AnalysisConfig {
	return a.config
}

// AnalyzeMarketTrend analyzes data with the default configuration and the given window.
func AnalyzeMarketTrend(data []types.MarketData, windowSize int) (types.MarketAnalysisResult, error) {
	analyzer, err := NewAnalyzer(DefaultAnalysisConfig(), nil)
	if err != nil {
		return types.MarketAnalysisResult{}, err
	}

	return analyzer.AnalyzeWithWindow(data, windowSize)
}

// Analyze analyzes data with the configured window size.
func (a *Analyzer) Analyze(data []types.MarketData) (types.MarketAnalysisResult, error) {
	return a.AnalyzeWithWindow(data, a.config.WindowSize)
}

// AnalyzeWithWindow compares the moving average of the last windowSize closes
// with the one before it and adds RSI, MACD and Bollinger signals when the
// series is long enough for them. data must hold at least 2*windowSize bars.
func (a *Analyzer) AnalyzeWithWindow(data []types.MarketData, windowSize int) (types.MarketAnalysisResult, error) {
	if windowSize <= 0 {
		return types.MarketAnalysisResult{}, errors.Newf(errors.ErrCodeInvalidPeriod, "window size must be positive, got %d", windowSize)
	}

	symbol := types.SeriesSymbol(data)

	if len(data) < 2*windowSize {
		return types.MarketAnalysisResult{}, errors.NewInsufficientDataErrorf(2*windowSize, len(data), symbol,
			"trend analysis with window %d needs two full windows", windowSize)
	}

	prices := types.ClosePrices(data)

	currentMA, err := indicator.CalculateMA(prices, windowSize)
	if err != nil {
		return types.MarketAnalysisResult{}, err
	}

	previousMA, err := indicator.CalculateMA(prices[:len(prices)-windowSize], windowSize)
	if err != nil {
		return types.MarketAnalysisResult{}, err
	}

	difference := currentMA - previousMA
	total := maPoints(difference, previousMA)
	computed := 1

	var snapshot types.IndicatorSnapshot

	rsi, err := indicator.CalculateRSI(prices, a.config.RSIPeriod)
	switch {
	case err == nil:
		snapshot.RSI = &rsi
		total += a.rsiPoints(rsi)
		computed++
	case !errors.IsInsufficientDataError(err):
		return types.MarketAnalysisResult{}, err
	}

	macd, err := indicator.CalculateMACD(prices, a.config.MACDFast, a.config.MACDSlow, a.config.MACDSignal)
	switch {
	case err == nil:
		snapshot.MACD = &macd
		total += macdPoints(macd)
		computed++
	case !errors.IsInsufficientDataError(err):
		return types.MarketAnalysisResult{}, err
	}

	bands, err := indicator.CalculateBollingerBands(prices, a.config.BollingerPeriod, a.config.BollingerMultiplier)
	switch {
	case err == nil:
		snapshot.BollingerBands = &bands
		total += bollingerPoints(prices[len(prices)-1], bands)
		computed++
	case !errors.IsInsufficientDataError(err):
		return types.MarketAnalysisResult{}, err
	}

	confidence := math.Round(total/float64(computed)*100) / 100

	result := types.MarketAnalysisResult{
		Symbol:     symbol,
		Trend:      a.classify(confidence),
		CurrentMA:  currentMA,
		PreviousMA: previousMA,
		Difference: difference,
		WindowSize: windowSize,
		Indicators: snapshot,
		Confidence: confidence,
		Source:     types.SeriesSource(data),
		AnalyzedAt: a.now(),
	}

	a.logger.Debug("Trend analyzed",
		zap.String("symbol", symbol),
		zap.String("trend", string(result.Trend)),
		zap.Float64("confidence", confidence),
		zap.Int("signals", computed),
		zap.String("source", string(result.Source)),
	)

	return result, nil
}

func (a *Analyzer) classify(confidence float64) types.Trend {
	switch {
	case math.Abs(confidence) < a.config.NeutralThreshold:
		return types.TrendNeutral
	case confidence > 0:
		return types.TrendRising
	default:
		return types.TrendFalling
	}
}

// maPoints scores the moving average move. The base applies to any move and
// grows with the relative size of the move up to the cap.
func maPoints(difference float64, previousMA float64) float64 {
	if difference == 0 {
		return 0
	}

	points := MABase
	if previousMA != 0 {
		points = math.Min(MACap, MABase+math.Abs(difference/previousMA)*100*MAScale)
	}

	if difference < 0 {
		return -points
	}

	return points
}

// rsiPoints leans against the move: an overbought market scores negative.
func (a *Analyzer) rsiPoints(rsi float64) float64 {
	switch {
	case rsi > a.config.RSIOverbought:
		return -RSIPoints
	case rsi < a.config.RSIOversold:
		return RSIPoints
	default:
		return 0
	}
}

func macdPoints(macd types.MACDResult) float64 {
	switch {
	case macd.MACD > 0 && macd.Histogram > 0:
		return MACDPoints
	case macd.MACD < 0 && macd.Histogram < 0:
		return -MACDPoints
	default:
		return 0
	}
}

// bollingerPoints follows breakouts: a close above the upper band scores positive.
func bollingerPoints(lastClose float64, bands types.BollingerBandsResult) float64 {
	switch {
	case lastClose > bands.Upper:
		return BollingerPoints
	case lastClose < bands.Lower:
		return -BollingerPoints
	default:
		return 0
	}
}
