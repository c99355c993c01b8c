package indicator

import (
	"fmt"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// DefaultRSIPeriod is the lookback used when no period is configured.
const DefaultRSIPeriod = 14

// CalculateRSI averages gains and losses over the last period price changes.
// It returns 100 when there were no losses, 0 when there were no gains,
// and 100 - 100/(1+avgGain/avgLoss) otherwise.
func CalculateRSI(prices []float64, period int) (float64, error) {
	if err := validatePeriod("RSI", period); err != nil {
		return 0, err
	}

	if len(prices) <= period {
		return 0, errors.NewInsufficientDataErrorf(period+1, len(prices), "", "insufficient data for %d period RSI", period)
	}

	gains := 0.0
	losses := 0.0

	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100, nil
	}

	if avgGain == 0 {
		return 0, nil
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period            int
	rsiLowerThreshold float64
	rsiUpperThreshold float64
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period:            DefaultRSIPeriod,
		rsiLowerThreshold: 30,
		rsiUpperThreshold: 70,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator.
// Expected parameters: period (int), optional lower threshold (float64), optional upper threshold (float64).
func (r *RSI) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, _, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	lower, hasLower, err := floatParam(params, 1, "lower threshold")
	if err != nil {
		return err
	}

	upper, hasUpper, err := floatParam(params, 2, "upper threshold")
	if err != nil {
		return err
	}

	if !hasLower {
		lower = r.rsiLowerThreshold
	}

	if !hasUpper {
		upper = r.rsiUpperThreshold
	}

	if lower < 0 || upper > 100 || lower >= upper {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "RSI thresholds must satisfy 0 <= lower < upper <= 100, got %.2f and %.2f", lower, upper)
	}

	r.period = period
	r.rsiLowerThreshold = lower
	r.rsiUpperThreshold = upper

	return nil
}

// GetSignal calculates the RSI signal.
func (r *RSI) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	rsiValue, err := r.RawValue(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "No signal"

	if rsiValue < r.rsiLowerThreshold {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("RSI oversold (value=%.2f)", rsiValue)
	} else if rsiValue > r.rsiUpperThreshold {
		signalType = types.SignalTypeSellShort
		reason = fmt.Sprintf("RSI overbought (value=%.2f)", rsiValue)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(r.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"rsi": rsiValue,
		},
		Symbol:    marketData.Symbol,
		Indicator: r.Name(),
	}, nil
}

// RawValue implements the Indicator interface.
func (r *RSI) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return 0, err
	}

	data, err := lookback(ctx, symbol, currentTime, r.period+1, r.period+1)
	if err != nil {
		return 0, err
	}

	return CalculateRSI(types.ClosePrices(data), r.period)
}
