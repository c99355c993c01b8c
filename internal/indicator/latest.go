package indicator

import (
	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// Reading is the value and signal of one indicator at the last bar of a series.
type Reading struct {
	Indicator types.IndicatorType `yaml:"indicator" json:"indicator"`
	Value     float64             `yaml:"value" json:"value"`
	Signal    types.SignalType    `yaml:"signal" json:"signal"`
	Reason    string              `yaml:"reason,omitempty" json:"reason,omitempty"`
	// Error is set when the indicator could not be evaluated, usually
	// because the series is too short for its period.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// LatestReadings evaluates every indicator of registry at the last bar of data.
// A failing indicator is reported in its Reading and does not stop the others.
func LatestReadings(registry IndicatorRegistry, data []types.MarketData) ([]Reading, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeMarketDataRequired, "market data is required")
	}

	source := datasource.NewInMemoryDataSource(data)
	defer source.Close()

	ctx := IndicatorContext{DataSource: source}
	last := data[len(data)-1]

	// the data source orders bars by time, the input slice may not be sorted
	if latest, err := source.ReadLastData(last.Symbol); err == nil {
		last = latest
	}

	names := registry.ListIndicators()
	readings := make([]Reading, 0, len(names))

	for _, name := range names {
		reading := Reading{Indicator: name}

		ind, err := registry.GetIndicator(name)
		if err != nil {
			return nil, err
		}

		value, err := ind.RawValue(last.Symbol, last.Time, ctx)
		if err != nil {
			reading.Error = err.Error()
			readings = append(readings, reading)

			continue
		}

		reading.Value = value

		signal, err := ind.GetSignal(last, ctx)
		if err != nil {
			reading.Error = err.Error()
		} else {
			reading.Signal = signal.Type
			reading.Reason = signal.Reason
		}

		readings = append(readings, reading)
	}

	return readings, nil
}
