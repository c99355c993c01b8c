package types

import "time"

// DataSource tags where a price series came from.
type DataSource string

const (
	// DataSourceReal marks data fetched from an exchange or market data vendor.
	DataSourceReal DataSource = "real"
	// DataSourceSimulated marks generated data.
	DataSourceSimulated DataSource = "simulated"
)

// AllDataSources lists every DataSource value, used for schema enums.
var AllDataSources = []any{
	DataSourceReal,
	DataSourceSimulated,
}

// IsSimulated reports whether the data was generated rather than fetched.
func (s DataSource) IsSimulated() bool {
	return s == DataSourceSimulated
}

// MarketData is a single OHLCV bar. Close is the price used by every
// single-series calculation.
type MarketData struct {
	Id     string     `yaml:"id" json:"id" csv:"id"`
	Symbol string     `yaml:"symbol" json:"symbol" csv:"symbol"`
	Time   time.Time  `yaml:"time" json:"time" csv:"time"`
	Open   float64    `yaml:"open" json:"open" csv:"open"`
	High   float64    `yaml:"high" json:"high" csv:"high"`
	Low    float64    `yaml:"low" json:"low" csv:"low"`
	Close  float64    `yaml:"close" json:"close" csv:"close"`
	Volume float64    `yaml:"volume" json:"volume" csv:"volume"`
	Source DataSource `yaml:"source" json:"source" csv:"source"`
}

// ClosePrices extracts the close price of every bar, preserving order.
func ClosePrices(data []MarketData) []float64 {
	prices := make([]float64, len(data))
	for i, d := range data {
		prices[i] = d.Close
	}

	return prices
}

// SeriesSource returns the provenance of a whole series. A single simulated
// bar makes the series simulated; untagged bars count as real.
func SeriesSource(data []MarketData) DataSource {
	for _, d := range data {
		if d.Source.IsSimulated() {
			return DataSourceSimulated
		}
	}

	return DataSourceReal
}

// SeriesSymbol returns the symbol of the last bar, or an empty string.
func SeriesSymbol(data []MarketData) string {
	if len(data) == 0 {
		return ""
	}

	return data[len(data)-1].Symbol
}
