package indicator

import (
	"fmt"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// CalculateEMASeries seeds with the SMA of the first window prices and then applies
// k = 2/(window+1) forward. Element i of the result is the EMA after price window-1+i,
// so the last element is the EMA of the whole series.
func CalculateEMASeries(prices []float64, window int) ([]float64, error) {
	if err := validatePeriod("exponential moving average", window); err != nil {
		return nil, err
	}

	if len(prices) < window {
		return nil, errors.NewInsufficientDataErrorf(window, len(prices), "", "insufficient data for %d period exponential moving average", window)
	}

	k := 2.0 / float64(window+1)

	seed := 0.0
	for _, p := range prices[:window] {
		seed += p
	}

	ema := seed / float64(window)

	series := make([]float64, 0, len(prices)-window+1)
	series = append(series, ema)

	for _, p := range prices[window:] {
		ema = p*k + ema*(1-k)
		series = append(series, ema)
	}

	return series, nil
}

// CalculateEMA returns the exponential moving average of the whole series.
func CalculateEMA(prices []float64, window int) (float64, error) {
	series, err := CalculateEMASeries(prices, window)
	if err != nil {
		return 0, err
	}

	return series[len(series)-1], nil
}

// EMA is the exponential moving average indicator.
type EMA struct {
	period int
	// history is how many bars are read to let the seed decay
	history int
}

// NewEMA creates a new EMA indicator with a 20 bar period.
func NewEMA() Indicator {
	return &EMA{
		period:  20,
		history: 80,
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int), optional history (int).
func (e *EMA) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, _, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	e.period = period
	e.history = period * 4

	history, ok, err := intParam(params, 1, "history")
	if err != nil {
		return err
	}

	if ok {
		if history < period {
			return errors.Newf(errors.ErrCodeInvalidParameter, "history (%d) must be at least the period (%d)", history, period)
		}

		e.history = history
	}

	return nil
}

// RawValue implements the Indicator interface.
func (e *EMA) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return 0, err
	}

	data, err := lookback(ctx, symbol, currentTime, e.history, e.period)
	if err != nil {
		return 0, err
	}

	return CalculateEMA(types.ClosePrices(data), e.period)
}

// GetSignal compares the close with the exponential moving average.
func (e *EMA) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	ema, err := e.RawValue(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "Close equals EMA"

	if marketData.Close > ema {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("Close above EMA(%d) (close=%.4f, ema=%.4f)", e.period, marketData.Close, ema)
	} else if marketData.Close < ema {
		signalType = types.SignalTypeSellLong
		reason = fmt.Sprintf("Close below EMA(%d) (close=%.4f, ema=%.4f)", e.period, marketData.Close, ema)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(e.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"ema": ema,
		},
		Symbol:    marketData.Symbol,
		Indicator: e.Name(),
	}, nil
}
