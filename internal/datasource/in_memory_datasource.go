package datasource

import (
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// InMemoryDataSource serves a preloaded series. Bars are indexed by symbol and kept
// in chronological order so lookback queries are a binary search plus a slice.
type InMemoryDataSource struct {
	// data[symbol] is sorted by time
	data map[string][]types.MarketData
	// allData in chronological order for ReadAll
	allData []types.MarketData
	mu      sync.RWMutex
}

// NewInMemoryDataSource copies and indexes data. The input slice is not modified.
func NewInMemoryDataSource(data []types.MarketData) *InMemoryDataSource {
	allData := make([]types.MarketData, len(data))
	copy(allData, data)

	sort.SliceStable(allData, func(i, j int) bool {
		return allData[i].Time.Before(allData[j].Time)
	})

	bySymbol := make(map[string][]types.MarketData)
	for _, d := range allData {
		bySymbol[d.Symbol] = append(bySymbol[d.Symbol], d)
	}

	return &InMemoryDataSource{
		data:    bySymbol,
		allData: allData,
		mu:      sync.RWMutex{},
	}
}

// ReadAll implements DataSource.
func (ds *InMemoryDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		ds.mu.RLock()
		defer ds.mu.RUnlock()

		for _, d := range ds.allData {
			if !inRange(d.Time, start, end) {
				continue
			}

			if !yield(d, nil) {
				return
			}
		}
	}
}

// GetPreviousNumberOfDataPoints implements DataSource.
func (ds *InMemoryDataSource) GetPreviousNumberOfDataPoints(end time.Time, symbol string, count int) ([]types.MarketData, error) {
	if count <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "count must be positive, got %d", count)
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	series, ok := ds.data[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	// first index strictly after end
	upper := sort.Search(len(series), func(i int) bool {
		return series[i].Time.After(end)
	})

	lower := max(upper-count, 0)

	result := make([]types.MarketData, upper-lower)
	copy(result, series[lower:upper])

	if len(result) < count {
		return result, errors.NewInsufficientDataErrorf(count, len(result), symbol, "insufficient data points for symbol %s: requested %d, got %d", symbol, count, len(result))
	}

	return result, nil
}

// ReadLastData implements DataSource.
func (ds *InMemoryDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	series := ds.data[symbol]
	if len(series) == 0 {
		return types.MarketData{}, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	return series[len(series)-1], nil
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	count := 0

	for _, d := range ds.allData {
		if inRange(d.Time, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.data = map[string][]types.MarketData{}
	ds.allData = nil

	return nil
}
