package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StrategyAction is what a backtest strategy asks for at a given bar.
type StrategyAction string

const (
	ActionBuy  StrategyAction = "buy"
	ActionSell StrategyAction = "sell"
	ActionHold StrategyAction = "hold"
)

// TradeAction is the action recorded on an executed backtest trade.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "buy"
	TradeActionSell TradeAction = "sell"
	// TradeActionSellEnd is the forced liquidation at the final bar.
	TradeActionSellEnd TradeAction = "sell (end)"
)

// BacktestTrade is a single executed trade.
type BacktestTrade struct {
	Action    TradeAction `yaml:"action" json:"action"`
	Price     float64     `yaml:"price" json:"price"`
	Timestamp time.Time   `yaml:"timestamp" json:"timestamp"`
	// Profit is zero for entries and the net round-trip result for exits,
	// fees included.
	Profit float64 `yaml:"profit" json:"profit"`
	// Fee paid on this trade.
	Fee float64 `yaml:"fee" json:"fee"`
}

type BacktestResult struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the backtested series.
	Symbol string `yaml:"symbol" json:"symbol"`
	// Strategy is the name of the strategy, empty for anonymous callbacks.
	Strategy       string  `yaml:"strategy" json:"strategy"`
	InitialCapital float64 `yaml:"initial_capital" json:"initialCapital"`
	FinalCapital   float64 `yaml:"final_capital" json:"finalCapital"`
	// TotalReturn in percent of the initial capital.
	TotalReturn float64 `yaml:"total_return" json:"totalReturn"`
	// Count of closed round trips.
	TotalTrades int `yaml:"total_trades" json:"totalTrades"`
	// Count of round trips with positive profit.
	WinningTrades int `yaml:"winning_trades" json:"winningTrades"`
	LosingTrades  int `yaml:"losing_trades" json:"losingTrades"`
	// Win rate in percent.
	WinRate float64 `yaml:"win_rate" json:"winRate"`
	// Maximum peak-to-trough equity decline in percent.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"maxDrawdown"`
	// Total fees.
	TotalFees float64         `yaml:"total_fees" json:"totalFees"`
	Trades    []BacktestTrade `yaml:"trades" json:"trades"`
	// Source is the provenance of the backtested series.
	Source DataSource `yaml:"source" json:"source"`
}

func WriteBacktestResult(path string, result BacktestResult) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}

// ReadBacktestResult loads a result written by WriteBacktestResult.
func ReadBacktestResult(path string) (BacktestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BacktestResult{}, fmt.Errorf("failed to read backtest result: %w", err)
	}

	var result BacktestResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		return BacktestResult{}, fmt.Errorf("failed to parse backtest result: %w", err)
	}

	return result, nil
}
