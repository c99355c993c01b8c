package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

const (
	DefaultWaddahAttarFastPeriod   = 20
	DefaultWaddahAttarSlowPeriod   = 40
	DefaultWaddahAttarSignalPeriod = 9
	DefaultWaddahAttarATRPeriod    = 14
	DefaultWaddahAttarMultiplier   = 150.0
	// waddahAttarDeadZoneFactor scales the ATR into the noise threshold.
	waddahAttarDeadZoneFactor = 3.7
)

// WaddahAttarConfig holds the periods of a Waddah Attar Explosion calculation.
// The fast period is also the Bollinger window of the explosion line.
type WaddahAttarConfig struct {
	FastPeriod   int
	SlowPeriod   int
	SignalPeriod int
	ATRPeriod    int
	Multiplier   float64
}

// DefaultWaddahAttarConfig returns the 20/40/9 configuration with a 14 bar ATR.
func DefaultWaddahAttarConfig() WaddahAttarConfig {
	return WaddahAttarConfig{
		FastPeriod:   DefaultWaddahAttarFastPeriod,
		SlowPeriod:   DefaultWaddahAttarSlowPeriod,
		SignalPeriod: DefaultWaddahAttarSignalPeriod,
		ATRPeriod:    DefaultWaddahAttarATRPeriod,
		Multiplier:   DefaultWaddahAttarMultiplier,
	}
}

func (c WaddahAttarConfig) required() int {
	return max(c.SlowPeriod+c.SignalPeriod-1, c.SlowPeriod+1, c.ATRPeriod+1, c.FastPeriod)
}

// CalculateWaddahAttar computes the Waddah Attar Explosion at the last bar of data.
// Trend is the change of the MACD line scaled by the multiplier, Explosion is
// the width of the Bollinger Bands over the fast period and DeadZone is the
// ATR scaled by 3.7.
func CalculateWaddahAttar(data []types.MarketData, config WaddahAttarConfig) (types.WaddahAttarResult, error) {
	if config.Multiplier <= 0 || math.IsNaN(config.Multiplier) || math.IsInf(config.Multiplier, 0) {
		return types.WaddahAttarResult{}, errors.Newf(errors.ErrCodeInvalidMultiplier, "Waddah Attar multiplier must be positive, got %f", config.Multiplier)
	}

	if err := validatePeriod("Waddah Attar ATR", config.ATRPeriod); err != nil {
		return types.WaddahAttarResult{}, err
	}

	prices := types.ClosePrices(data)

	macd, err := CalculateMACD(prices, config.FastPeriod, config.SlowPeriod, config.SignalPeriod)
	if err != nil {
		return types.WaddahAttarResult{}, err
	}

	macdSeries, err := CalculateMACDSeries(prices, config.FastPeriod, config.SlowPeriod)
	if err != nil {
		return types.WaddahAttarResult{}, err
	}

	if len(macdSeries) < 2 {
		return types.WaddahAttarResult{}, errors.NewInsufficientDataErrorf(config.required(), len(data), types.SeriesSymbol(data),
			"insufficient data for Waddah Attar(%d,%d)", config.FastPeriod, config.SlowPeriod)
	}

	bands, err := CalculateBollingerBands(prices, config.FastPeriod, DefaultBollingerMultiplier)
	if err != nil {
		return types.WaddahAttarResult{}, err
	}

	atr, err := CalculateATR(data, config.ATRPeriod)
	if err != nil {
		return types.WaddahAttarResult{}, err
	}

	last := len(macdSeries) - 1

	return types.WaddahAttarResult{
		MACD:      macd.MACD,
		Signal:    macd.Signal,
		Histogram: macd.Histogram,
		ATR:       atr,
		Trend:     (macdSeries[last] - macdSeries[last-1]) * config.Multiplier,
		Explosion: bands.Upper - bands.Lower,
		DeadZone:  atr * waddahAttarDeadZoneFactor,
	}, nil
}

// WaddahAttar is the Waddah Attar Explosion indicator. It signals only when
// the trend outgrows the explosion line and the explosion clears the dead zone.
type WaddahAttar struct {
	config  WaddahAttarConfig
	history int
}

// NewWaddahAttar creates a new Waddah Attar Explosion indicator with default configuration.
func NewWaddahAttar() Indicator {
	return &WaddahAttar{
		config:  DefaultWaddahAttarConfig(),
		history: DefaultWaddahAttarSlowPeriod * 4,
	}
}

// Name returns the name of the indicator.
func (wa *WaddahAttar) Name() types.IndicatorType {
	return types.IndicatorTypeWaddahAttar
}

// Config configures the Waddah Attar indicator.
// Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int), atrPeriod (int), multiplier (float64).
func (wa *WaddahAttar) Config(params ...any) error {
	if len(params) != 5 {
		return errors.New(errors.ErrCodeMissingParameter,
			"Config expects 5 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int), atrPeriod (int), multiplier (float64)")
	}

	config := WaddahAttarConfig{}
	names := []string{"fastPeriod", "slowPeriod", "signalPeriod", "atrPeriod"}

	for i, target := range []*int{&config.FastPeriod, &config.SlowPeriod, &config.SignalPeriod, &config.ATRPeriod} {
		value, _, err := intParam(params, i, names[i])
		if err != nil {
			return err
		}

		*target = value
	}

	if config.FastPeriod >= config.SlowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fastPeriod (%d) must be shorter than slowPeriod (%d)", config.FastPeriod, config.SlowPeriod)
	}

	multiplier, _, err := floatParam(params, 4, "multiplier")
	if err != nil {
		return err
	}

	if multiplier <= 0 {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "multiplier must be a positive number, got %f", multiplier)
	}

	config.Multiplier = multiplier

	wa.config = config
	wa.history = config.SlowPeriod * 4

	return nil
}

func (wa *WaddahAttar) calculate(params ...any) (types.WaddahAttarResult, error) {
	symbol, currentTime, ctx, err := parseRawValueParams(params)
	if err != nil {
		return types.WaddahAttarResult{}, err
	}

	data, err := lookback(ctx, symbol, currentTime, max(wa.history, wa.config.required()), wa.config.required())
	if err != nil {
		return types.WaddahAttarResult{}, err
	}

	return CalculateWaddahAttar(data, wa.config)
}

// RawValue returns the explosion line.
func (wa *WaddahAttar) RawValue(params ...any) (float64, error) {
	result, err := wa.calculate(params...)
	if err != nil {
		return 0, err
	}

	return result.Explosion, nil
}

// GetSignal implements Indicator.
func (wa *WaddahAttar) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	result, err := wa.calculate(marketData.Symbol, marketData.Time, ctx)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "No explosion"

	if result.Explosion > result.DeadZone {
		reason = fmt.Sprintf("Explosion without trend (explosion=%.4f, trend=%.4f)", result.Explosion, result.Trend)

		if result.Trend > result.Explosion {
			signalType = types.SignalTypeBuyLong
			reason = fmt.Sprintf("Waddah Attar bullish explosion (explosion=%.4f, trend=%.4f)", result.Explosion, result.Trend)
		} else if -result.Trend > result.Explosion {
			signalType = types.SignalTypeSellShort
			reason = fmt.Sprintf("Waddah Attar bearish explosion (explosion=%.4f, trend=%.4f)", result.Explosion, result.Trend)
		}
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(wa.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"macd":      result.MACD,
			"signal":    result.Signal,
			"histogram": result.Histogram,
			"atr":       result.ATR,
			"trend":     result.Trend,
			"explosion": result.Explosion,
			"dead_zone": result.DeadZone,
		},
		Symbol:    marketData.Symbol,
		Indicator: wa.Name(),
	}, nil
}
