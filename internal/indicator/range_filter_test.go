package indicator

import (
	"testing"

	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RangeFilterTestSuite struct {
	suite.Suite
}

func TestRangeFilterSuite(t *testing.T) {
	suite.Run(t, new(RangeFilterTestSuite))
}

func (suite *RangeFilterTestSuite) TestUptrend() {
	prices := ramp(80, 100, 1)

	result, err := CalculateRangeFilter(prices, 20, 3)
	suite.Require().NoError(err)
	// every change is one, so the smoothed range is three and the filter trails the close by it
	suite.InDelta(3, result.SmoothRange, 1e-9)
	suite.InDelta(prices[len(prices)-1]-3, result.Filter, 1e-9)
	suite.Positive(result.Upward)
	suite.Zero(result.Downward)
}

func (suite *RangeFilterTestSuite) TestDowntrend() {
	prices := ramp(80, 200, -1)

	result, err := CalculateRangeFilter(prices, 20, 3)
	suite.Require().NoError(err)
	suite.InDelta(prices[len(prices)-1]+3, result.Filter, 1e-9)
	suite.Positive(result.Downward)
	suite.Zero(result.Upward)
}

func (suite *RangeFilterTestSuite) TestSmallMovesDoNotMoveFilter() {
	// alternating one point moves never escape a three point range
	prices := make([]float64, 80)
	for i := range prices {
		prices[i] = 100 + float64(i%2)
	}

	result, err := CalculateRangeFilter(prices, 20, 3)
	suite.Require().NoError(err)
	suite.Zero(result.Upward)
	suite.Zero(result.Downward)
}

func (suite *RangeFilterTestSuite) TestRepeatableAcrossCalls() {
	prices := ramp(80, 100, 1)

	first, err := CalculateRangeFilter(prices, 20, 3)
	suite.Require().NoError(err)

	second, err := CalculateRangeFilter(prices, 20, 3)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *RangeFilterTestSuite) TestErrors() {
	_, err := CalculateRangeFilter(ramp(58, 100, 1), 20, 3)
	suite.True(errors.IsInsufficientDataError(err))

	_, err = CalculateRangeFilter(ramp(59, 100, 1), 20, 3)
	suite.NoError(err)

	_, err = CalculateRangeFilter(ramp(80, 100, 1), 20, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidMultiplier))

	_, err = CalculateRangeFilter(ramp(80, 100, 1), 0, 3)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *RangeFilterTestSuite) TestSignal() {
	tests := []struct {
		name     string
		data     []types.MarketData
		expected types.SignalType
	}{
		{"uptrend", rampBars(200, 100, 1), types.SignalTypeBuyLong},
		{"downtrend", rampBars(200, 400, -1), types.SignalTypeSellShort},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			ctx := IndicatorContext{DataSource: datasource.NewInMemoryDataSource(tc.data)}

			signal, err := NewRangeFilter().GetSignal(tc.data[len(tc.data)-1], ctx)
			suite.Require().NoError(err)
			suite.Equal(tc.expected, signal.Type)
			suite.Equal(types.IndicatorTypeRangeFilter, signal.Indicator)
			suite.Contains(signal.RawValue, "filter")
		})
	}
}

func (suite *RangeFilterTestSuite) TestSignalWithoutEnoughHistory() {
	data := rampBars(100, 100, 1)
	ctx := IndicatorContext{DataSource: datasource.NewInMemoryDataSource(data)}

	_, err := NewRangeFilter().GetSignal(data[len(data)-1], ctx)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *RangeFilterTestSuite) TestConfig() {
	rf := NewRangeFilter()
	suite.True(errors.HasCode(rf.Config(10), errors.ErrCodeMissingParameter))
	suite.True(errors.HasCode(rf.Config(10, 0.0), errors.ErrCodeInvalidMultiplier))
	suite.True(errors.HasCode(rf.Config("10", 2.0), errors.ErrCodeInvalidParameter))
	suite.Require().NoError(rf.Config(10, 2.5))

	data := rampBars(40, 100, 1)
	value, err := rf.RawValue("TEST", data[len(data)-1].Time, IndicatorContext{DataSource: datasource.NewInMemoryDataSource(data)})
	suite.Require().NoError(err)
	// the filter trails the close by 2.5 times the unit change
	suite.InDelta(data[len(data)-1].Close-2.5, value, 1e-9)
}
