package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

const (
	DefaultBollingerPeriod     = 20
	DefaultBollingerMultiplier = 2.0
)

// CalculateBollingerBands returns the SMA of the last period prices with bands at
// multiplier population standard deviations. Bandwidth is (upper-lower)/|middle|
// and zero when the middle band is zero.
func CalculateBollingerBands(prices []float64, period int, multiplier float64) (types.BollingerBandsResult, error) {
	if err := validatePeriod("Bollinger Bands", period); err != nil {
		return types.BollingerBandsResult{}, err
	}

	if multiplier < 0 || math.IsNaN(multiplier) {
		return types.BollingerBandsResult{}, errors.Newf(errors.ErrCodeInvalidMultiplier, "Bollinger Bands multiplier must not be negative, got %f", multiplier)
	}

	if len(prices) < period {
		return types.BollingerBandsResult{}, errors.NewInsufficientDataErrorf(period, len(prices), "", "insufficient data for %d period Bollinger Bands", period)
	}

	window := prices[len(prices)-period:]

	middle, err := CalculateMA(window, period)
	if err != nil {
		return types.BollingerBandsResult{}, err
	}

	variance := 0.0
	for _, p := range window {
		variance += (p - middle) * (p - middle)
	}

	stdDev := math.Sqrt(variance / float64(period))
	upper := middle + multiplier*stdDev
	lower := middle - multiplier*stdDev

	bandwidth := 0.0
	if middle != 0 {
		bandwidth = (upper - lower) / math.Abs(middle)
	}

	return types.BollingerBandsResult{
		Middle:    middle,
		Upper:     upper,
		Lower:     lower,
		Bandwidth: bandwidth,
	}, nil
}

// BollingerBands signals a long entry below the lower band and an exit above the upper band.
type BollingerBands struct {
	period     int
	multiplier float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with period 20 and multiplier 2.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period:     DefaultBollingerPeriod,
		multiplier: DefaultBollingerMultiplier,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the indicator. Expected parameters: period (int), multiplier (float64).
func (bb *BollingerBands) Config(params ...any) error {
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

	if multiplier < 0 {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "multiplier must not be negative, got %f", multiplier)
	}

	bb.period = period
	bb.multiplier = multiplier

	return nil
}

func (bb *BollingerBands) calculate(params ...any) (types.BollingerBandsResult, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return types.BollingerBandsResult{}, err
	}

	data, err := lookback(ctx, symbol, currentTime, bb.period, bb.period)
	if err != nil {
		return types.BollingerBandsResult{}, err
	}

	return CalculateBollingerBands(types.ClosePrices(data), bb.period, bb.multiplier)
}

// RawValue returns the bandwidth.
func (bb *BollingerBands) RawValue(params ...any) (float64, error) {
	result, err := bb.calculate(params...)
	if err != nil {
		return 0, err
	}

	return result.Bandwidth, nil
}

// GetSignal implements Indicator.
func (bb *BollingerBands) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	bands, err := bb.calculate(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "Price inside the bands"

	if marketData.Close < bands.Lower {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("Price below lower band (close=%.4f, lower=%.4f)", marketData.Close, bands.Lower)
	} else if marketData.Close > bands.Upper {
		signalType = types.SignalTypeSellLong
		reason = fmt.Sprintf("Price above upper band (close=%.4f, upper=%.4f)", marketData.Close, bands.Upper)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(bb.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"upper":     bands.Upper,
			"middle":    bands.Middle,
			"lower":     bands.Lower,
			"bandwidth": bands.Bandwidth,
		},
		Symbol:    marketData.Symbol,
		Indicator: bb.Name(),
	}, nil
}
