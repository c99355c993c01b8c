package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

const (
	DefaultRangeFilterPeriod     = 50
	DefaultRangeFilterMultiplier = 3.0
)

// rangeFilterRequired is the number of prices CalculateRangeFilter needs: one
// extra for the first change, period for the average range and 2*period-1 for
// its smoothing.
func rangeFilterRequired(period int) int {
	return 3*period - 1
}

// CalculateRangeFilter smooths the absolute bar to bar change with an EMA of
// period and then an EMA of 2*period-1, scales it by multiplier and lets the
// filter follow the close only when it moves further than that range.
// The whole history is replayed, so the result does not depend on earlier calls.
func CalculateRangeFilter(prices []float64, period int, multiplier float64) (types.RangeFilterResult, error) {
	if err := validatePeriod("range filter", period); err != nil {
		return types.RangeFilterResult{}, err
	}

	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return types.RangeFilterResult{}, errors.Newf(errors.ErrCodeInvalidMultiplier, "range filter multiplier must be positive, got %f", multiplier)
	}

	required := rangeFilterRequired(period)
	if len(prices) < required {
		return types.RangeFilterResult{}, errors.NewInsufficientDataErrorf(required, len(prices), "", "insufficient data for %d period range filter", period)
	}

	changes := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		changes[i-1] = math.Abs(prices[i] - prices[i-1])
	}

	averageRange, err := CalculateEMASeries(changes, period)
	if err != nil {
		return types.RangeFilterResult{}, err
	}

	smoothRange, err := CalculateEMASeries(averageRange, 2*period-1)
	if err != nil {
		return types.RangeFilterResult{}, err
	}

	// smoothRange[0] belongs to the price at index required-1
	first := len(prices) - len(smoothRange)
	filter := prices[first-1]
	result := types.RangeFilterResult{}

	for j, rng := range smoothRange {
		rng *= multiplier
		previous := filter
		filter = nextRangeFilter(prices[first+j], previous, rng)

		switch {
		case filter > previous:
			result.Upward++
			result.Downward = 0
		case filter < previous:
			result.Upward = 0
			result.Downward++
		}

		result.SmoothRange = rng
	}

	result.Filter = filter

	return result, nil
}

func nextRangeFilter(price float64, previous float64, rng float64) float64 {
	if price > previous {
		if price-rng < previous {
			return previous
		}

		return price - rng
	}

	if price+rng > previous {
		return previous
	}

	return price + rng
}

// RangeFilter follows the direction of the range filter line.
type RangeFilter struct {
	period     int
	multiplier float64
	history    int
}

// NewRangeFilter creates a new Range Filter indicator with period 50 and multiplier 3.
func NewRangeFilter() Indicator {
	return &RangeFilter{
		period:     DefaultRangeFilterPeriod,
		multiplier: DefaultRangeFilterMultiplier,
		history:    DefaultRangeFilterPeriod * 4,
	}
}

// Name returns the name of the indicator.
func (rf *RangeFilter) Name() types.IndicatorType {
	return types.IndicatorTypeRangeFilter
}

// Config configures the Range Filter indicator. Expected parameters: period (int), multiplier (float64).
func (rf *RangeFilter) Config(params ...any) error {
	if len(params) != 2 {
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
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "multiplier must be a positive number, got %f", multiplier)
	}

	rf.period = period
	rf.multiplier = multiplier
	rf.history = period * 4

	return nil
}

func (rf *RangeFilter) calculate(params ...any) (types.RangeFilterResult, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return types.RangeFilterResult{}, err
	}

	data, err := lookback(ctx, symbol, currentTime, rf.history, rangeFilterRequired(rf.period))
	if err != nil {
		return types.RangeFilterResult{}, err
	}

	return CalculateRangeFilter(types.ClosePrices(data), rf.period, rf.multiplier)
}

// RawValue returns the range filter line.
func (rf *RangeFilter) RawValue(params ...any) (float64, error) {
	result, err := rf.calculate(params...)
	if err != nil {
		return 0, err
	}

	return result.Filter, nil
}

// GetSignal buys while the filter is rising and sells while it is falling.
func (rf *RangeFilter) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	result, err := rf.calculate(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "No trend detected"

	if result.Upward > 0 {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("Range Filter upward trend for %d bars (filter=%.4f)", result.Upward, result.Filter)
	} else if result.Downward > 0 {
		signalType = types.SignalTypeSellShort
		reason = fmt.Sprintf("Range Filter downward trend for %d bars (filter=%.4f)", result.Downward, result.Filter)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(rf.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"filter":         result.Filter,
			"smooth_range":   result.SmoothRange,
			"upward_count":   float64(result.Upward),
			"downward_count": float64(result.Downward),
		},
		Symbol:    marketData.Symbol,
		Indicator: rf.Name(),
	}, nil
}
