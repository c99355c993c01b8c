package datasource

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	start time.Time
	ds    *DuckDBDataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(suite.T().TempDir(), "bars.parquet")

	w := writer.NewDuckDBWriter(path, nil)
	suite.Require().NoError(w.Initialize())

	for i := 0; i < 30; i++ {
		suite.Require().NoError(w.Write(types.MarketData{
			Symbol: "SPY",
			Time:   suite.start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   float64(400 + i),
			High:   float64(401 + i),
			Low:    float64(399 + i),
			Close:  float64(400 + i),
			Volume: 1000,
			Source: types.DataSourceSimulated,
		}))
	}

	_, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Require().NoError(w.Close())

	ds, err := NewDuckDBDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(ds.Initialize(path))
	suite.ds = ds
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	suite.NoError(suite.ds.Close())
}

func (suite *DuckDBDataSourceTestSuite) TestCount() {
	count, err := suite.ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(30, count)

	count, err = suite.ds.Count(optional.Some(suite.start.Add(10*24*time.Hour)), optional.Some(suite.start.Add(19*24*time.Hour)))
	suite.NoError(err)
	suite.Equal(10, count)
}

func (suite *DuckDBDataSourceTestSuite) TestReadAll() {
	bars := make([]types.MarketData, 0, 30)

	for d, err := range suite.ds.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)
		bars = append(bars, d)
	}

	suite.Require().Len(bars, 30)
	suite.Equal(400.0, bars[0].Close)
	suite.Equal(429.0, bars[29].Close)
	suite.Equal(types.DataSourceSimulated, bars[0].Source)
}

func (suite *DuckDBDataSourceTestSuite) TestGetPreviousNumberOfDataPoints() {
	bars, err := suite.ds.GetPreviousNumberOfDataPoints(suite.start.Add(29*24*time.Hour), "SPY", 5)
	suite.Require().NoError(err)
	suite.Require().Len(bars, 5)
	suite.Equal(425.0, bars[0].Close)
	suite.Equal(429.0, bars[4].Close)

	bars, err = suite.ds.GetPreviousNumberOfDataPoints(suite.start.Add(2*24*time.Hour), "SPY", 5)
	suite.True(errors.IsInsufficientDataError(err))
	suite.Len(bars, 3)
}

func (suite *DuckDBDataSourceTestSuite) TestReadLastData() {
	last, err := suite.ds.ReadLastData("SPY")
	suite.NoError(err)
	suite.Equal(429.0, last.Close)

	_, err = suite.ds.ReadLastData("QQQ")
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeMissingFile() {
	ds, err := NewDuckDBDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer ds.Close()

	err = ds.Initialize(filepath.Join(suite.T().TempDir(), "missing.parquet"))
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}
