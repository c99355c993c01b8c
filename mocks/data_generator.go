package mocks

import (
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/simulation"
)

// DataGenerator is the seeded series generator used by the simulated provider.
type DataGenerator = simulation.Generator

// GeneratorConfig configures how market data is generated.
type GeneratorConfig = simulation.Config

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return simulation.NewGenerator(seed)
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return simulation.DefaultConfig()
}

// GeneratorConfigWithCount returns the default configuration trimmed to count bars.
func GeneratorConfigWithCount(count int) GeneratorConfig {
	config := simulation.DefaultConfig()
	config.Count = count

	return config
}

// Generate10K is a convenience function to generate 10,000 data points
// with default settings for benchmarking.
func Generate10K(symbol string) []types.MarketData {
	config := GeneratorConfigWithCount(10000)
	config.Symbol = symbol

	return NewDataGenerator(42).Generate(config)
}
