package backtest

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/market-analyzer/internal/backtest/commission_fee"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// Config is the account setup of a backtest run.
type Config struct {
	InitialCapital float64               `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital in quote currency,default=10000" validate:"gt=0"`
	FeePercent     float64               `yaml:"fee_percent" json:"fee_percent" jsonschema:"title=Fee Percent,description=Commission in percent of the traded notional for the percentage broker,default=0.1" validate:"gte=0,lt=100"`
	Broker         commission_fee.Broker `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=The broker to use for commission calculations" validate:"omitempty,oneof=percentage interactive_broker zero_commission"`
	// Strategy is resolved with StrategyByName.
	Strategy       string             `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Name of the built-in strategy,default=ma_crossover"`
	StrategyParams map[string]float64 `yaml:"strategy_params,omitempty" json:"strategy_params,omitempty" jsonschema:"title=Strategy Parameters"`
}

// DefaultConfig returns 10000 of capital with a 0.1% fee.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 10000,
		FeePercent:     0.1,
		Broker:         commission_fee.BrokerPercentage,
		Strategy:       StrategyMACrossover,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	for name, value := range map[string]float64{"initial_capital": c.InitialCapital, "fee_percent": c.FeePercent} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return errors.Newf(errors.ErrCodeBacktestConfigError, "invalid backtest configuration: %s must be a finite number, got %v", name, value)
		}
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest configuration", err)
	}

	return nil
}
