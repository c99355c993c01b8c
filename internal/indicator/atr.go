package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// DefaultATRPeriod is the Wilder lookback used by ATR and ADX.
const DefaultATRPeriod = 14

func trueRange(current types.MarketData, previousClose float64) float64 {
	return math.Max(current.High-current.Low,
		math.Max(math.Abs(current.High-previousClose), math.Abs(current.Low-previousClose)))
}

// atrSeries returns a slice aligned with data where index i >= period holds the
// Wilder smoothed ATR after bar i. Earlier entries are zero.
func atrSeries(data []types.MarketData, period int) ([]float64, error) {
	if err := validatePeriod("ATR", period); err != nil {
		return nil, err
	}

	if len(data) < period+1 {
		return nil, errors.NewInsufficientDataErrorf(period+1, len(data), types.SeriesSymbol(data), "insufficient data for %d period ATR", period)
	}

	series := make([]float64, len(data))

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += trueRange(data[i], data[i-1].Close)
	}

	atr := sum / float64(period)
	series[period] = atr

	for i := period + 1; i < len(data); i++ {
		atr = (atr*float64(period-1) + trueRange(data[i], data[i-1].Close)) / float64(period)
		series[i] = atr
	}

	return series, nil
}

// CalculateATR returns the Wilder smoothed average true range. It needs period+1 bars.
func CalculateATR(data []types.MarketData, period int) (float64, error) {
	series, err := atrSeries(data, period)
	if err != nil {
		return 0, err
	}

	return series[len(series)-1], nil
}

// ATR is the Average True Range volatility indicator. It never signals a direction.
type ATR struct {
	period  int
	history int
}

// NewATR creates a new ATR indicator with a 14 bar period.
func NewATR() Indicator {
	return &ATR{
		period:  DefaultATRPeriod,
		history: DefaultATRPeriod * 4,
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, _, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	a.period = period
	a.history = period * 4

	return nil
}

// RawValue implements the Indicator interface.
func (a *ATR) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return 0, err
	}

	data, err := lookback(ctx, symbol, currentTime, a.history, a.period+1)
	if err != nil {
		return 0, err
	}

	return CalculateATR(data, a.period)
}

// GetSignal reports the ATR without a trade direction.
func (a *ATR) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	atr, err := a.RawValue(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   types.SignalTypeNoAction,
		Name:   string(a.Name()),
		Reason: fmt.Sprintf("ATR(%d)=%.4f", a.period, atr),
		RawValue: map[string]float64{
			"atr": atr,
		},
		Symbol:    marketData.Symbol,
		Indicator: a.Name(),
	}, nil
}
