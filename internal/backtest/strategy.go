package backtest

import (
	"sort"
	"time"

	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/indicator"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// Strategy decides the action at data[index]. It may look at data[:index+1]
// and must not read past index.
type Strategy func(data []types.MarketData, index int) types.StrategyAction

const (
	StrategyMACrossover = "ma_crossover"
	StrategyRSI         = "rsi"
	StrategyBuyAndHold  = "buy_and_hold"
)

// MACrossoverStrategy buys when the fast moving average crosses above the slow
// one and sells on the opposite cross.
func MACrossoverStrategy(fast int, slow int) Strategy {
	return func(data []types.MarketData, index int) types.StrategyAction {
		if index < slow {
			return types.ActionHold
		}

		prices := types.ClosePrices(data[:index+1])

		fastNow, errFast := indicator.CalculateMA(prices, fast)
		slowNow, errSlow := indicator.CalculateMA(prices, slow)
		fastPrev, errFastPrev := indicator.CalculateMA(prices[:index], fast)
		slowPrev, errSlowPrev := indicator.CalculateMA(prices[:index], slow)

		if errFast != nil || errSlow != nil || errFastPrev != nil || errSlowPrev != nil {
			return types.ActionHold
		}

		switch {
		case fastPrev <= slowPrev && fastNow > slowNow:
			return types.ActionBuy
		case fastPrev >= slowPrev && fastNow < slowNow:
			return types.ActionSell
		default:
			return types.ActionHold
		}
	}
}

// RSIStrategy buys when RSI drops below oversold and sells when it rises above overbought.
func RSIStrategy(period int, oversold float64, overbought float64) Strategy {
	return func(data []types.MarketData, index int) types.StrategyAction {
		rsi, err := indicator.CalculateRSI(types.ClosePrices(data[:index+1]), period)
		if err != nil {
			return types.ActionHold
		}

		switch {
		case rsi < oversold:
			return types.ActionBuy
		case rsi > overbought:
			return types.ActionSell
		default:
			return types.ActionHold
		}
	}
}

// BuyAndHoldStrategy buys on the first bar and never sells.
func BuyAndHoldStrategy() Strategy {
	return func(_ []types.MarketData, _ int) types.StrategyAction {
		return types.ActionBuy
	}
}

// IndicatorStrategy trades on the signals of ind. The indicator reads its
// history through an in-memory data source where every bar is stamped with
// its position in the series, so the lookback at index never reaches past it
// whatever the bar times are. Bars where the indicator cannot be evaluated hold.
func IndicatorStrategy(ind indicator.Indicator) Strategy {
	var (
		source   *datasource.InMemoryDataSource
		timeline []types.MarketData
		first    *types.MarketData
		length   int
	)

	return func(data []types.MarketData, index int) types.StrategyAction {
		if index < 0 || index >= len(data) {
			return types.ActionHold
		}

		if source == nil || first != &data[0] || length != len(data) {
			timeline = positionalTimeline(data)
			source = datasource.NewInMemoryDataSource(timeline)
			first = &data[0]
			length = len(data)
		}

		signal, err := ind.GetSignal(timeline[index], indicator.IndicatorContext{DataSource: source})
		if err != nil {
			return types.ActionHold
		}

		return signal.Type.Action()
	}
}

// positionalTimeline copies data and replaces each bar's time with one second
// per index, keeping the series order.
func positionalTimeline(data []types.MarketData) []types.MarketData {
	timeline := make([]types.MarketData, len(data))
	for i, bar := range data {
		bar.Time = time.Unix(int64(i), 0).UTC()
		timeline[i] = bar
	}

	return timeline
}

// StrategyByName builds a built-in strategy. ma_crossover reads the "fast" and
// "slow" params, rsi reads "period", "oversold" and "overbought". Any indicator
// name yields an IndicatorStrategy with default parameters.
func StrategyByName(name string, params map[string]float64) (Strategy, error) {
	switch name {
	case "":
		return nil, errors.New(errors.ErrCodeStrategyRequired, "strategy name is required")
	case StrategyMACrossover:
		fast := int(param(params, "fast", 10))
		slow := int(param(params, "slow", 30))

		if fast <= 0 || slow <= 0 || fast >= slow {
			return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "ma_crossover needs 0 < fast < slow, got fast=%d slow=%d", fast, slow)
		}

		return MACrossoverStrategy(fast, slow), nil
	case StrategyRSI:
		period := int(param(params, "period", float64(indicator.DefaultRSIPeriod)))
		oversold := param(params, "oversold", 30)
		overbought := param(params, "overbought", 70)

		if period <= 0 || oversold < 0 || overbought > 100 || oversold >= overbought {
			return nil, errors.Newf(errors.ErrCodeStrategyConfigError,
				"rsi strategy needs period > 0 and 0 <= oversold < overbought <= 100, got %d, %.2f, %.2f", period, oversold, overbought)
		}

		return RSIStrategy(period, oversold, overbought), nil
	case StrategyBuyAndHold:
		return BuyAndHoldStrategy(), nil
	}

	ind, err := indicator.NewIndicator(types.IndicatorType(name))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeUnsupportedStrategy, err, "unsupported strategy: %s", name)
	}

	return IndicatorStrategy(ind), nil
}

// AvailableStrategies lists every name StrategyByName accepts, sorted.
func AvailableStrategies() []string {
	names := []string{StrategyMACrossover, StrategyBuyAndHold}

	for _, name := range indicator.NewDefaultRegistry().ListIndicators() {
		names = append(names, string(name))
	}

	sort.Strings(names)

	return names
}

func param(params map[string]float64, key string, fallback float64) float64 {
	if value, ok := params[key]; ok {
		return value
	}

	return fallback
}
