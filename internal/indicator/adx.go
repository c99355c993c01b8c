package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// adxTrendThreshold is the ADX level above which a trend is considered established.
const adxTrendThreshold = 25.0

// CalculateADX returns Wilder's average directional index with +DI and -DI.
// It needs 2*period bars: period to seed the smoothed directional movement and
// period more to seed the ADX average.
func CalculateADX(data []types.MarketData, period int) (types.ADXResult, error) {
	if err := validatePeriod("ADX", period); err != nil {
		return types.ADXResult{}, err
	}

	required := 2 * period
	if len(data) < required {
		return types.ADXResult{}, errors.NewInsufficientDataErrorf(required, len(data), types.SeriesSymbol(data), "insufficient data for %d period ADX", period)
	}

	var (
		smoothedTR, smoothedPlusDM, smoothedMinusDM float64
		plusDI, minusDI                             float64
		dxSum, adx                                  float64
	)

	p := float64(period)

	for i := 1; i < len(data); i++ {
		upMove := data[i].High - data[i-1].High
		downMove := data[i-1].Low - data[i].Low

		plusDM := 0.0
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}

		minusDM := 0.0
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}

		tr := trueRange(data[i], data[i-1].Close)

		if i <= period {
			smoothedTR += tr
			smoothedPlusDM += plusDM
			smoothedMinusDM += minusDM

			if i < period {
				continue
			}
		} else {
			smoothedTR = smoothedTR - smoothedTR/p + tr
			smoothedPlusDM = smoothedPlusDM - smoothedPlusDM/p + plusDM
			smoothedMinusDM = smoothedMinusDM - smoothedMinusDM/p + minusDM
		}

		plusDI, minusDI = 0, 0
		if smoothedTR != 0 {
			plusDI = 100 * smoothedPlusDM / smoothedTR
			minusDI = 100 * smoothedMinusDM / smoothedTR
		}

		dx := 0.0
		if diSum := plusDI + minusDI; diSum != 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / diSum
		}

		// DX values start at index period; the first ADX is their mean over period bars
		switch {
		case i < required-1:
			dxSum += dx
		case i == required-1:
			dxSum += dx
			adx = dxSum / p
		default:
			adx = (adx*(p-1) + dx) / p
		}
	}

	return types.ADXResult{
		ADX:     adx,
		PlusDI:  plusDI,
		MinusDI: minusDI,
	}, nil
}

// ADX signals in the direction of the dominant directional indicator once the
// trend strength passes 25.
type ADX struct {
	period  int
	history int
}

// NewADX creates a new ADX indicator with a 14 bar period.
func NewADX() Indicator {
	return &ADX{
		period:  DefaultATRPeriod,
		history: DefaultATRPeriod * 6,
	}
}

// Name returns the name of the indicator.
func (a *ADX) Name() types.IndicatorType {
	return types.IndicatorTypeADX
}

// Config configures the ADX indicator. Expected parameters: period (int).
func (a *ADX) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, _, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	a.period = period
	a.history = period * 6

	return nil
}

func (a *ADX) calculate(params ...any) (types.ADXResult, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return types.ADXResult{}, err
	}

	data, err := lookback(ctx, symbol, currentTime, a.history, 2*a.period)
	if err != nil {
		return types.ADXResult{}, err
	}

	return CalculateADX(data, a.period)
}

// RawValue returns the ADX.
func (a *ADX) RawValue(params ...any) (float64, error) {
	result, err := a.calculate(params...)
	if err != nil {
		return 0, err
	}

	return result.ADX, nil
}

// GetSignal implements Indicator.
func (a *ADX) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	result, err := a.calculate(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := fmt.Sprintf("No established trend (adx=%.2f)", result.ADX)

	if result.ADX > adxTrendThreshold {
		if result.PlusDI > result.MinusDI {
			signalType = types.SignalTypeBuyLong
			reason = fmt.Sprintf("Strong uptrend (adx=%.2f, +di=%.2f, -di=%.2f)", result.ADX, result.PlusDI, result.MinusDI)
		} else if result.MinusDI > result.PlusDI {
			signalType = types.SignalTypeSellLong
			reason = fmt.Sprintf("Strong downtrend (adx=%.2f, +di=%.2f, -di=%.2f)", result.ADX, result.PlusDI, result.MinusDI)
		}
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(a.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"adx":      result.ADX,
			"plus_di":  result.PlusDI,
			"minus_di": result.MinusDI,
		},
		Symbol:    marketData.Symbol,
		Indicator: a.Name(),
	}, nil
}
