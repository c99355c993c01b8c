package types

import "time"

type SignalType string

const (
	// SignalTypeBuyLong is a signal that tells the strategy to buy
	SignalTypeBuyLong SignalType = "buy_long"
	// SignalTypeSellLong is a signal that tells the strategy to sell
	SignalTypeSellLong SignalType = "sell_long"
	// SignalTypeSellShort is a signal that tells the strategy to open a short, treated as an exit for long-only backtests
	SignalTypeSellShort SignalType = "sell_short"
	// SignalTypeNoAction is a signal that tells the strategy to take no action
	SignalTypeNoAction SignalType = "no_action"
)

// Action maps a signal to the long-only backtest vocabulary.
func (s SignalType) Action() StrategyAction {
	switch s {
	case SignalTypeBuyLong:
		return ActionBuy
	case SignalTypeSellLong, SignalTypeSellShort:
		return ActionSell
	default:
		return ActionHold
	}
}

type Signal struct {
	// Time is the time of the signal
	Time time.Time `json:"time"`
	// Type is the type of the signal
	Type SignalType `json:"type"`
	// Name is the name of the signal
	Name string `json:"name"`
	// Reason is the reason for the signal
	Reason string `json:"reason"`
	// RawValue is the raw value of the signal
	RawValue any `json:"rawValue"`
	// Symbol is the symbol of the signal
	Symbol string `json:"symbol"`
	// Indicator is the indicator that generated the signal
	Indicator IndicatorType `json:"indicator"`
}
