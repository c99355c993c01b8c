package provider

import (
	"context"
	"hash/fnv"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/simulation"
)

const (
	// DefaultSimulationSeed seeds providers built by NewProvider.
	DefaultSimulationSeed int64 = 42
	// MaxSimulatedBars caps the length of a generated series.
	MaxSimulatedBars = 100000
)

// SimulatedProvider generates a GBM series for any ticker. The same seed,
// ticker and range always produce the same bars.
type SimulatedProvider struct {
	seed   int64
	config simulation.Config
}

// NewSimulatedProvider creates a simulated provider with the default generator settings.
func NewSimulatedProvider(seed int64) *SimulatedProvider {
	return &SimulatedProvider{
		seed:   seed,
		config: simulation.DefaultConfig(),
	}
}

// WithConfig overrides the generator settings. Symbol, StartTime, Interval and
// Count are always taken from the fetch parameters.
func (p *SimulatedProvider) WithConfig(config simulation.Config) *SimulatedProvider {
	p.config = config

	return p
}

func (p *SimulatedProvider) Type() ProviderType {
	return ProviderSimulated
}

// Fetch generates one bar per interval between params.Start and params.End inclusive.
func (p *SimulatedProvider) Fetch(ctx context.Context, params FetchParams) ([]types.MarketData, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "simulated fetch cancelled", err)
	}

	interval, err := params.Interval()
	if err != nil {
		return nil, err
	}

	count := int(params.End.Sub(params.Start)/interval) + 1
	if count > MaxSimulatedBars {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "simulated range too large: %d bars, maximum is %d", count, MaxSimulatedBars)
	}

	config := p.config
	config.Symbol = params.Ticker
	config.StartTime = params.Start.UTC()
	config.Interval = interval
	config.Count = count

	return simulation.NewGenerator(p.tickerSeed(params.Ticker)).Generate(config), nil
}

func (p *SimulatedProvider) tickerSeed(ticker string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))

	//nolint:gosec // wrapping is fine for a seed
	return p.seed ^ int64(h.Sum64())
}
