package indicator

import (
	"time"

	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// IndicatorContext carries what an indicator needs to look back over history.
type IndicatorContext struct {
	DataSource datasource.DataSource
}

// Indicator interface defines methods that any technical indicator must implement
type Indicator interface {
	// GetSignal evaluates the indicator at marketData.Time and returns a trading signal
	GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error)
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// RawValue returns the raw value of the indicator.
	// Expected parameters: symbol (string), currentTime (time.Time), ctx (IndicatorContext)
	RawValue(params ...any) (float64, error)
	// Config overrides the default parameters of the indicator
	Config(params ...any) error
}

// parseRawValueParams unpacks the (symbol, currentTime, ctx) triple shared by every RawValue.
func parseRawValueParams(params []any) (string, time.Time, IndicatorContext, error) {
	if len(params) < 3 {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeMissingParameter,
			"RawValue requires 3 parameters: symbol (string), currentTime (time.Time), ctx (IndicatorContext)")
	}

	symbol, ok := params[0].(string)
	if !ok {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeInvalidParameter, "first parameter must be of type string (symbol)")
	}

	currentTime, ok := params[1].(time.Time)
	if !ok {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeInvalidParameter, "second parameter must be of type time.Time")
	}

	ctx, ok := params[2].(IndicatorContext)
	if !ok {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeInvalidParameter, "third parameter must be of type IndicatorContext")
	}

	return symbol, currentTime, ctx, nil
}

// lookback asks for want bars ending at currentTime and accepts a partial answer
// as long as at least need bars came back.
func lookback(ctx IndicatorContext, symbol string, currentTime time.Time, want int, need int) ([]types.MarketData, error) {
	if ctx.DataSource == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "indicator context has no data source")
	}

	data, err := ctx.DataSource.GetPreviousNumberOfDataPoints(currentTime, symbol, want)
	if err == nil {
		return data, nil
	}

	if errors.IsInsufficientDataError(err) && len(data) >= need {
		return data, nil
	}

	if errors.IsInsufficientDataError(err) {
		return nil, errors.NewInsufficientDataErrorf(need, len(data), symbol, "insufficient historical data for symbol %s", symbol)
	}

	return nil, errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to get historical data for symbol %s", symbol)
}

func intParam(params []any, index int, name string) (int, bool, error) {
	if len(params) <= index {
		return 0, false, nil
	}

	value, ok := params[index].(int)
	if !ok {
		return 0, false, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for %s parameter, expected int", name)
	}

	if value <= 0 {
		return 0, false, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, value)
	}

	return value, true, nil
}

func floatParam(params []any, index int, name string) (float64, bool, error) {
	if len(params) <= index {
		return 0, false, nil
	}

	switch value := params[index].(type) {
	case float64:
		return value, true, nil
	case int:
		return float64(value), true, nil
	default:
		return 0, false, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for %s parameter, expected float64", name)
	}
}

func validatePeriod(name string, period int) error {
	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s period must be positive, got %d", name, period)
	}

	return nil
}
