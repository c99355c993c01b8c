package datasource

import (
	"iter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/market-analyzer/internal/types"
)

// DataSource is read access to a time ordered OHLCV series.
type DataSource interface {
	// ReadAll yields every bar between start and end (inclusive) in chronological order.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error]
	// GetPreviousNumberOfDataPoints returns up to count bars for symbol ending at end (inclusive),
	// oldest first. When fewer are available the partial slice is returned together with an
	// InsufficientDataError.
	GetPreviousNumberOfDataPoints(end time.Time, symbol string, count int) ([]types.MarketData, error)
	// ReadLastData reads the most recent bar for symbol.
	ReadLastData(symbol string) (types.MarketData, error)
	// Count returns the number of bars between start and end.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the data source.
	Close() error
}

func inRange(t time.Time, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if start.IsSome() && t.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && t.After(end.Unwrap()) {
		return false
	}

	return true
}
