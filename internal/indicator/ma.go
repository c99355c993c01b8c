package indicator

import (
	"fmt"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// CalculateMA returns the arithmetic mean of the last window prices.
func CalculateMA(prices []float64, window int) (float64, error) {
	if err := validatePeriod("moving average", window); err != nil {
		return 0, err
	}

	if len(prices) < window {
		return 0, errors.NewInsufficientDataErrorf(window, len(prices), "", "insufficient data for %d period moving average", window)
	}

	sum := 0.0
	for _, p := range prices[len(prices)-window:] {
		sum += p
	}

	return sum / float64(window), nil
}

// MA is the simple moving average indicator. It signals a long entry when the
// close is above the average and an exit when it is below.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with a 20 bar period.
func NewMA() Indicator {
	return &MA{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Config configures the MA indicator. Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, _, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	m.period = period

	return nil
}

// RawValue implements the Indicator interface.
func (m *MA) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return 0, err
	}

	data, err := lookback(ctx, symbol, currentTime, m.period, m.period)
	if err != nil {
		return 0, err
	}

	return CalculateMA(types.ClosePrices(data), m.period)
}

// GetSignal compares the close with the moving average.
func (m *MA) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	ma, err := m.RawValue(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "Close equals moving average"

	if marketData.Close > ma {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("Close above MA(%d) (close=%.4f, ma=%.4f)", m.period, marketData.Close, ma)
	} else if marketData.Close < ma {
		signalType = types.SignalTypeSellLong
		reason = fmt.Sprintf("Close below MA(%d) (close=%.4f, ma=%.4f)", m.period, marketData.Close, ma)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(m.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"ma": ma,
		},
		Symbol:    marketData.Symbol,
		Indicator: m.Name(),
	}, nil
}
