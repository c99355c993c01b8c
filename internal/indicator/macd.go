package indicator

import (
	"fmt"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

const (
	DefaultMACDFastPeriod   = 12
	DefaultMACDSlowPeriod   = 26
	DefaultMACDSignalPeriod = 9
)

// CalculateMACDSeries returns fastEMA - slowEMA for every index from slow-1 onward.
// Element i equals recomputing both EMAs over prices[:slow+i], but the whole
// series is built from two EMA passes.
func CalculateMACDSeries(prices []float64, fast int, slow int) ([]float64, error) {
	if err := validatePeriod("MACD fast", fast); err != nil {
		return nil, err
	}

	if err := validatePeriod("MACD slow", slow); err != nil {
		return nil, err
	}

	if fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "MACD fast period (%d) must be shorter than slow period (%d)", fast, slow)
	}

	if len(prices) < slow {
		return nil, errors.NewInsufficientDataErrorf(slow, len(prices), "", "insufficient data for MACD(%d,%d)", fast, slow)
	}

	fastSeries, err := CalculateEMASeries(prices, fast)
	if err != nil {
		return nil, err
	}

	slowSeries, err := CalculateEMASeries(prices, slow)
	if err != nil {
		return nil, err
	}

	// fastSeries starts at index fast-1 and slowSeries at slow-1
	offset := slow - fast
	macd := make([]float64, len(slowSeries))

	for i := range slowSeries {
		macd[i] = fastSeries[i+offset] - slowSeries[i]
	}

	return macd, nil
}

// CalculateMACD returns the latest MACD line, its signal EMA and the histogram.
func CalculateMACD(prices []float64, fast int, slow int, signal int) (types.MACDResult, error) {
	if err := validatePeriod("MACD signal", signal); err != nil {
		return types.MACDResult{}, err
	}

	macdSeries, err := CalculateMACDSeries(prices, fast, slow)
	if err != nil {
		return types.MACDResult{}, err
	}

	if len(macdSeries) < signal {
		required := slow + signal - 1

		return types.MACDResult{}, errors.NewInsufficientDataErrorf(required, len(prices), "", "insufficient data for MACD(%d,%d,%d) signal line", fast, slow, signal)
	}

	signalLine, err := CalculateEMA(macdSeries, signal)
	if err != nil {
		return types.MACDResult{}, err
	}

	macdLine := macdSeries[len(macdSeries)-1]

	return types.MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}, nil
}

// MACD is the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	history      int
}

// NewMACD creates a new MACD indicator with the 12/26/9 configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   DefaultMACDFastPeriod,
		slowPeriod:   DefaultMACDSlowPeriod,
		signalPeriod: DefaultMACDSignalPeriod,
		history:      (DefaultMACDSlowPeriod + DefaultMACDSignalPeriod) * 3,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator. Expected parameters: fast (int), slow (int), signal (int).
func (m *MACD) Config(params ...any) error {
	if len(params) < 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fast (int), slow (int), signal (int)")
	}

	fast, _, err := intParam(params, 0, "fast period")
	if err != nil {
		return err
	}

	slow, _, err := intParam(params, 1, "slow period")
	if err != nil {
		return err
	}

	signal, _, err := intParam(params, 2, "signal period")
	if err != nil {
		return err
	}

	if fast >= slow {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "MACD fast period (%d) must be shorter than slow period (%d)", fast, slow)
	}

	m.fastPeriod = fast
	m.slowPeriod = slow
	m.signalPeriod = signal
	m.history = (slow + signal) * 3

	return nil
}

func (m *MACD) calculate(params ...any) (types.MACDResult, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return types.MACDResult{}, err
	}

	data, err := lookback(ctx, symbol, currentTime, m.history, m.slowPeriod+m.signalPeriod-1)
	if err != nil {
		return types.MACDResult{}, err
	}

	return CalculateMACD(types.ClosePrices(data), m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

// RawValue returns the MACD line.
func (m *MACD) RawValue(params ...any) (float64, error) {
	result, err := m.calculate(params...)
	if err != nil {
		return 0, err
	}

	return result.MACD, nil
}

// GetSignal signals when the MACD line and the histogram agree in sign.
func (m *MACD) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	result, err := m.calculate(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "MACD and histogram disagree"

	if result.MACD > 0 && result.Histogram > 0 {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("MACD bullish (macd=%.4f, histogram=%.4f)", result.MACD, result.Histogram)
	} else if result.MACD < 0 && result.Histogram < 0 {
		signalType = types.SignalTypeSellLong
		reason = fmt.Sprintf("MACD bearish (macd=%.4f, histogram=%.4f)", result.MACD, result.Histogram)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(m.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"macd":      result.MACD,
			"signal":    result.Signal,
			"histogram": result.Histogram,
		},
		Symbol:    marketData.Symbol,
		Indicator: m.Name(),
	}, nil
}
