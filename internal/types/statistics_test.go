package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) TestWriteBacktestResult() {
	ts := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	result := BacktestResult{
		ID:             "run-1",
		Symbol:         "BTCUSDT",
		Strategy:       "ma_crossover",
		InitialCapital: 10000,
		FinalCapital:   10250,
		TotalReturn:    2.5,
		TotalTrades:    1,
		WinningTrades:  1,
		WinRate:        100,
		MaxDrawdown:    1.2,
		TotalFees:      20.5,
		Trades: []BacktestTrade{
			{Action: TradeActionBuy, Price: 100, Timestamp: ts, Profit: 0, Fee: 10},
			{Action: TradeActionSellEnd, Price: 103, Timestamp: ts.Add(time.Hour), Profit: 250, Fee: 10.5},
		},
		Source: DataSourceSimulated,
	}

	path := filepath.Join(suite.tempDir, "result.yaml")
	suite.Require().NoError(WriteBacktestResult(path, result))

	raw, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var generic map[string]any
	suite.Require().NoError(yaml.Unmarshal(raw, &generic))
	suite.Equal("simulated", generic["source"])
	suite.Equal(1, generic["total_trades"])

	loaded, err := ReadBacktestResult(path)
	suite.Require().NoError(err)
	suite.Equal(result.FinalCapital, loaded.FinalCapital)
	suite.Len(loaded.Trades, 2)
	suite.Equal(TradeActionSellEnd, loaded.Trades[1].Action)
}

func (suite *StatisticsTestSuite) TestWriteBacktestResultInvalidPath() {
	err := WriteBacktestResult(filepath.Join(suite.tempDir, "missing", "dir", "result.yaml"), BacktestResult{})
	suite.Error(err)
}

func (suite *StatisticsTestSuite) TestReadBacktestResultMissingFile() {
	_, err := ReadBacktestResult(filepath.Join(suite.tempDir, "nope.yaml"))
	suite.Error(err)
}
