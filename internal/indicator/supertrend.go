package indicator

import (
	"fmt"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

const (
	DefaultSuperTrendPeriod     = 10
	DefaultSuperTrendMultiplier = 3.0
)

// CalculateSuperTrend places ATR bands around the bar midpoint and carries the
// final bands forward: the upper band only moves down and the lower band only
// moves up until price closes through them. It needs period+1 bars.
func CalculateSuperTrend(data []types.MarketData, period int, multiplier float64) (types.SuperTrendResult, error) {
	if multiplier <= 0 {
		return types.SuperTrendResult{}, errors.Newf(errors.ErrCodeInvalidMultiplier, "SuperTrend multiplier must be positive, got %f", multiplier)
	}

	atr, err := atrSeries(data, period)
	if err != nil {
		return types.SuperTrendResult{}, err
	}

	var finalUpper, finalLower float64

	direction := 1

	for i := period; i < len(data); i++ {
		mid := (data[i].High + data[i].Low) / 2
		basicUpper := mid + multiplier*atr[i]
		basicLower := mid - multiplier*atr[i]

		if i == period {
			finalUpper = basicUpper
			finalLower = basicLower

			if data[i].Close < mid {
				direction = -1
			}

			continue
		}

		previousClose := data[i-1].Close

		if basicUpper < finalUpper || previousClose > finalUpper {
			finalUpper = basicUpper
		}

		if basicLower > finalLower || previousClose < finalLower {
			finalLower = basicLower
		}

		switch {
		case direction == -1 && data[i].Close > finalUpper:
			direction = 1
		case direction == 1 && data[i].Close < finalLower:
			direction = -1
		}
	}

	value := finalLower
	if direction == -1 {
		value = finalUpper
	}

	return types.SuperTrendResult{
		Value:     value,
		Direction: direction,
	}, nil
}

// SuperTrend follows the SuperTrend direction: long in an uptrend, flat in a downtrend.
type SuperTrend struct {
	period     int
	multiplier float64
	history    int
}

// NewSuperTrend creates a new SuperTrend indicator with period 10 and multiplier 3.
func NewSuperTrend() Indicator {
	return &SuperTrend{
		period:     DefaultSuperTrendPeriod,
		multiplier: DefaultSuperTrendMultiplier,
		history:    DefaultSuperTrendPeriod * 5,
	}
}

// Name returns the name of the indicator.
func (s *SuperTrend) Name() types.IndicatorType {
	return types.IndicatorTypeSuperTrend
}

// Config configures the indicator. Expected parameters: period (int), multiplier (float64).
func (s *SuperTrend) Config(params ...any) error {
	if len(params) < 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), multiplier (float64)")
	}

	period, _, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	multiplier, _, err := floatParam(params, 1, "multiplier")
	if err != nil {
		return err
	}

	if multiplier <= 0 {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "multiplier must be positive, got %f", multiplier)
	}

	s.period = period
	s.multiplier = multiplier
	s.history = period * 5

	return nil
}

func (s *SuperTrend) calculate(params ...any) (types.SuperTrendResult, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return types.SuperTrendResult{}, err
	}

	data, err := lookback(ctx, symbol, currentTime, s.history, s.period+1)
	if err != nil {
		return types.SuperTrendResult{}, err
	}

	return CalculateSuperTrend(data, s.period, s.multiplier)
}

// RawValue returns the active SuperTrend line.
func (s *SuperTrend) RawValue(params ...any) (float64, error) {
	result, err := s.calculate(params...)
	if err != nil {
		return 0, err
	}

	return result.Value, nil
}

// GetSignal implements Indicator.
func (s *SuperTrend) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	result, err := s.calculate(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeBuyLong
	reason := fmt.Sprintf("SuperTrend up (line=%.4f)", result.Value)

	if result.Direction < 0 {
		signalType = types.SignalTypeSellLong
		reason = fmt.Sprintf("SuperTrend down (line=%.4f)", result.Value)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(s.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"supertrend": result.Value,
			"direction":  float64(result.Direction),
		},
		Symbol:    marketData.Symbol,
		Indicator: s.Name(),
	}, nil
}
