package datasource

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type InMemoryDataSourceTestSuite struct {
	suite.Suite
	start time.Time
	ds    *InMemoryDataSource
}

func TestInMemoryDataSourceSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDataSourceTestSuite))
}

func (suite *InMemoryDataSourceTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	data := make([]types.MarketData, 0, 20)
	// insert out of order to exercise sorting
	for i := 9; i >= 0; i-- {
		data = append(data, types.MarketData{Symbol: "BTC", Time: suite.start.Add(time.Duration(i) * time.Hour), Close: float64(100 + i)})
		data = append(data, types.MarketData{Symbol: "ETH", Time: suite.start.Add(time.Duration(i) * time.Hour), Close: float64(10 + i)})
	}

	suite.ds = NewInMemoryDataSource(data)
}

func (suite *InMemoryDataSourceTestSuite) TestReadAllIsChronological() {
	var previous time.Time

	count := 0

	for d, err := range suite.ds.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)
		suite.False(d.Time.Before(previous))
		previous = d.Time
		count++
	}

	suite.Equal(20, count)
}

func (suite *InMemoryDataSourceTestSuite) TestReadAllRange() {
	count := 0

	for d, err := range suite.ds.ReadAll(optional.Some(suite.start.Add(2*time.Hour)), optional.Some(suite.start.Add(4*time.Hour))) {
		suite.Require().NoError(err)
		suite.False(d.Time.Before(suite.start.Add(2 * time.Hour)))
		count++
	}

	suite.Equal(6, count)
}

func (suite *InMemoryDataSourceTestSuite) TestReadAllEarlyStop() {
	count := 0

	for range suite.ds.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		count++
		if count == 3 {
			break
		}
	}

	suite.Equal(3, count)
}

func (suite *InMemoryDataSourceTestSuite) TestGetPreviousNumberOfDataPoints() {
	tests := []struct {
		name          string
		end           time.Time
		symbol        string
		count         int
		expectedLen   int
		expectedFirst float64
		expectedLast  float64
		insufficient  bool
	}{
		{"last three", suite.start.Add(9 * time.Hour), "BTC", 3, 3, 107, 109, false},
		{"end in the middle", suite.start.Add(5 * time.Hour), "ETH", 2, 2, 14, 15, false},
		{"end between bars", suite.start.Add(5*time.Hour + 30*time.Minute), "BTC", 1, 1, 105, 105, false},
		{"not enough history", suite.start.Add(1 * time.Hour), "BTC", 5, 2, 100, 101, true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result, err := suite.ds.GetPreviousNumberOfDataPoints(tc.end, tc.symbol, tc.count)
			if tc.insufficient {
				suite.True(errors.IsInsufficientDataError(err))
			} else {
				suite.NoError(err)
			}

			suite.Require().Len(result, tc.expectedLen)
			suite.Equal(tc.expectedFirst, result[0].Close)
			suite.Equal(tc.expectedLast, result[len(result)-1].Close)
		})
	}
}

func (suite *InMemoryDataSourceTestSuite) TestGetPreviousNumberOfDataPointsErrors() {
	_, err := suite.ds.GetPreviousNumberOfDataPoints(suite.start, "DOGE", 3)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))

	_, err = suite.ds.GetPreviousNumberOfDataPoints(suite.start, "BTC", 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *InMemoryDataSourceTestSuite) TestReadLastData() {
	last, err := suite.ds.ReadLastData("ETH")
	suite.NoError(err)
	suite.Equal(19.0, last.Close)

	_, err = suite.ds.ReadLastData("DOGE")
	suite.Error(err)
}

func (suite *InMemoryDataSourceTestSuite) TestCount() {
	count, err := suite.ds.Count(optional.None[time.Time](), optional.Some(suite.start.Add(time.Hour)))
	suite.NoError(err)
	suite.Equal(4, count)
}

func (suite *InMemoryDataSourceTestSuite) TestClose() {
	suite.NoError(suite.ds.Close())

	count, err := suite.ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(0, count)
}
