package indicator

import (
	"time"

	"github.com/rxtech-lab/market-analyzer/internal/types"
)

var testStart = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

// rampBars builds n bars whose close moves by step each bar, with a high/low
// range of two around the close.
func rampBars(n int, start float64, step float64) []types.MarketData {
	data := make([]types.MarketData, n)
	for i := range data {
		price := start + step*float64(i)
		data[i] = types.MarketData{
			Symbol: "TEST",
			Time:   testStart.Add(time.Duration(i) * time.Minute),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
			Source: types.DataSourceSimulated,
		}
	}

	return data
}

func barsFromCloses(closes []float64) []types.MarketData {
	data := make([]types.MarketData, len(closes))
	for i, c := range closes {
		data[i] = types.MarketData{
			Symbol: "TEST",
			Time:   testStart.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
		}
	}

	return data
}

func ramp(n int, start float64, step float64) []float64 {
	return types.ClosePrices(rampBars(n, start, step))
}
