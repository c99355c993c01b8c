// Package backtest replays a price series through a strategy holding at most
// one long position and reports the resulting performance.
package backtest

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/market-analyzer/internal/backtest/commission_fee"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MinDataPoints is the number of bars a backtest needs. The first
// MinDataPoints bars only serve as history for the strategy.
const MinDataPoints = 10

// Backtester runs strategies against a fixed account configuration.
type Backtester struct {
	config     Config
	commission commission_fee.CommissionFee
	logger     *logger.Logger
	now        func() time.Time
}

// NewBacktester validates config and returns a Backtester. A nil logger discards output.
func NewBacktester(config Config, log *logger.Logger) (*Backtester, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Backtester{
		config:     config,
		commission: commission_fee.GetCommissionFeeHandler(config.Broker, config.FeePercent),
		logger:     log.Named("backtest"),
		now:        time.Now,
	}, nil
}

// BacktestStrategy runs strategy over data with the percentage fee model.
func BacktestStrategy(data []types.MarketData, strategy Strategy, initialCapital float64, feePercent float64) (types.BacktestResult, error) {
	backtester, err := NewBacktester(Config{
		InitialCapital: initialCapital,
		FeePercent:     feePercent,
		Broker:         commission_fee.BrokerPercentage,
	}, nil)
	if err != nil {
		return types.BacktestResult{}, err
	}

	return backtester.Run(data, strategy)
}

// RunNamed resolves a built-in strategy and runs it.
func (b *Backtester) RunNamed(data []types.MarketData, name string, params map[string]float64) (types.BacktestResult, error) {
	strategy, err := StrategyByName(name, params)
	if err != nil {
		return types.BacktestResult{}, err
	}

	result, err := b.Run(data, strategy)
	if err != nil {
		return types.BacktestResult{}, err
	}

	result.Strategy = name

	return result, nil
}

// position is the open long, if any.
type position struct {
	quantity decimal.Decimal
	// entryCapital is the capital before the entry fee was paid
	entryCapital decimal.Decimal
}

type run struct {
	commission commission_fee.CommissionFee
	capital    decimal.Decimal
	position   *position
	totalFees  decimal.Decimal
	peak       decimal.Decimal
	drawdown   decimal.Decimal
	wins       int
	losses     int
	trades     []types.BacktestTrade
}

// Run calls strategy for every index from MinDataPoints on. A buy while flat
// invests all capital, a sell while long closes the position, and any other
// action is ignored. An open position is closed at the last close.
func (b *Backtester) Run(data []types.MarketData, strategy Strategy) (types.BacktestResult, error) {
	if strategy == nil {
		return types.BacktestResult{}, errors.New(errors.ErrCodeStrategyRequired, "a strategy is required")
	}

	symbol := types.SeriesSymbol(data)

	if len(data) < MinDataPoints {
		return types.BacktestResult{}, errors.NewInsufficientDataErrorf(MinDataPoints, len(data), symbol,
			"backtest needs at least %d data points", MinDataPoints)
	}

	if err := validateCloses(data); err != nil {
		return types.BacktestResult{}, err
	}

	initial := decimal.NewFromFloat(b.config.InitialCapital)
	r := &run{
		commission: b.commission,
		capital:    initial,
		totalFees:  decimal.Zero,
		peak:       initial,
		drawdown:   decimal.Zero,
	}

	for i := MinDataPoints; i < len(data); i++ {
		bar := data[i]

		var err error

		switch strategy(data, i) {
		case types.ActionBuy:
			if r.position == nil {
				err = r.enter(bar)
			}
		case types.ActionSell:
			if r.position != nil {
				err = r.exit(bar, types.TradeActionSell)
			}
		case types.ActionHold:
		}

		if err != nil {
			return types.BacktestResult{}, err
		}

		r.markToMarket(bar.Close)
	}

	if r.position != nil {
		last := data[len(data)-1]
		if err := r.exit(last, types.TradeActionSellEnd); err != nil {
			return types.BacktestResult{}, err
		}

		r.markToMarket(last.Close)
	}

	result := r.result(initial)
	result.ID = uuid.New().String()
	result.Timestamp = b.now()
	result.Symbol = symbol
	result.Source = types.SeriesSource(data)

	b.logger.Info("Backtest finished",
		zap.String("id", result.ID),
		zap.String("symbol", symbol),
		zap.Int("bars", len(data)),
		zap.Int("trades", result.TotalTrades),
		zap.Float64("total_return", result.TotalReturn),
		zap.Float64("max_drawdown", result.MaxDrawdown),
		zap.String("source", string(result.Source)),
	)

	return result, nil
}

// validateCloses rejects closes that cannot be used as prices.
func validateCloses(data []types.MarketData) error {
	for i, bar := range data {
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) {
			return errors.Newf(errors.ErrCodeInvalidParameter, "close at index %d is not a finite number: %v", i, bar.Close)
		}
	}

	return nil
}

// fee prices the commission for quantity at price.
func (r *run) fee(quantity decimal.Decimal, price float64) (decimal.Decimal, error) {
	fee := r.commission.Calculate(quantity.InexactFloat64(), price)
	if math.IsNaN(fee) || math.IsInf(fee, 0) {
		return decimal.Zero, errors.Newf(errors.ErrCodeInvalidParameter, "commission for %s at %v is not a finite number", quantity.String(), price)
	}

	return decimal.NewFromFloat(fee), nil
}

func (r *run) enter(bar types.MarketData) error {
	if bar.Close <= 0 || !r.capital.IsPositive() {
		return nil
	}

	price := decimal.NewFromFloat(bar.Close)
	gross := r.capital.Div(price)

	fee, err := r.fee(gross, bar.Close)
	if err != nil {
		return err
	}

	if fee.GreaterThan(r.capital) {
		fee = r.capital
	}

	r.position = &position{
		quantity:     r.capital.Sub(fee).Div(price),
		entryCapital: r.capital,
	}
	r.capital = decimal.Zero
	r.totalFees = r.totalFees.Add(fee)

	r.trades = append(r.trades, types.BacktestTrade{
		Action:    types.TradeActionBuy,
		Price:     bar.Close,
		Timestamp: bar.Time,
		Profit:    0,
		Fee:       fee.InexactFloat64(),
	})

	return nil
}

func (r *run) exit(bar types.MarketData, action types.TradeAction) error {
	price := decimal.NewFromFloat(bar.Close)
	proceeds := r.position.quantity.Mul(price)

	fee, err := r.fee(r.position.quantity, bar.Close)
	if err != nil {
		return err
	}

	if fee.GreaterThan(proceeds) {
		fee = proceeds
	}

	r.capital = proceeds.Sub(fee)
	r.totalFees = r.totalFees.Add(fee)

	profit := r.capital.Sub(r.position.entryCapital)
	if profit.IsPositive() {
		r.wins++
	} else {
		r.losses++
	}

	r.position = nil

	r.trades = append(r.trades, types.BacktestTrade{
		Action:    action,
		Price:     bar.Close,
		Timestamp: bar.Time,
		Profit:    profit.InexactFloat64(),
		Fee:       fee.InexactFloat64(),
	})

	return nil
}

func (r *run) equity(price float64) decimal.Decimal {
	if r.position == nil {
		return r.capital
	}

	return r.position.quantity.Mul(decimal.NewFromFloat(price))
}

// markToMarket tracks the running peak and the deepest relative decline from it.
func (r *run) markToMarket(price float64) {
	equity := r.equity(price)

	if equity.GreaterThan(r.peak) {
		r.peak = equity

		return
	}

	if !r.peak.IsPositive() {
		return
	}

	drawdown := r.peak.Sub(equity).Div(r.peak)
	if drawdown.GreaterThan(r.drawdown) {
		r.drawdown = drawdown
	}
}

func (r *run) result(initial decimal.Decimal) types.BacktestResult {
	hundred := decimal.NewFromInt(100)
	totalTrades := r.wins + r.losses

	winRate := decimal.Zero
	if totalTrades > 0 {
		winRate = decimal.NewFromInt(int64(r.wins)).Div(decimal.NewFromInt(int64(totalTrades))).Mul(hundred)
	}

	trades := r.trades
	if trades == nil {
		trades = []types.BacktestTrade{}
	}

	return types.BacktestResult{
		InitialCapital: initial.InexactFloat64(),
		FinalCapital:   r.capital.InexactFloat64(),
		TotalReturn:    r.capital.Sub(initial).Div(initial).Mul(hundred).InexactFloat64(),
		TotalTrades:    totalTrades,
		WinningTrades:  r.wins,
		LosingTrades:   r.losses,
		WinRate:        winRate.InexactFloat64(),
		MaxDrawdown:    r.drawdown.Mul(hundred).InexactFloat64(),
		TotalFees:      r.totalFees.InexactFloat64(),
		Trades:         trades,
	}
}
