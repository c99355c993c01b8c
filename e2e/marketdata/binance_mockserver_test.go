package marketdata_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/e2e/marketdata/mockserver"
	"github.com/rxtech-lab/market-analyzer/internal/analyzer"
	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type BinanceMockServerTestSuite struct {
	suite.Suite
	server *mockserver.MockBinanceServer
	start  time.Time
}

func TestBinanceMockServerTestSuite(t *testing.T) {
	suite.Run(t, new(BinanceMockServerTestSuite))
}

func (s *BinanceMockServerTestSuite) SetupTest() {
	s.server = mockserver.NewMockBinanceServer(mockserver.ServerConfig{
		InitialPrices: map[string]float64{"BTCUSDT": 42000},
		Seed:          7,
	})
	s.Require().NoError(s.server.Start(""))

	s.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BinanceMockServerTestSuite) TearDownTest() {
	s.Require().NoError(s.server.Stop())
}

func (s *BinanceMockServerTestSuite) params(bars int) provider.FetchParams {
	return provider.FetchParams{
		Ticker:     "BTCUSDT",
		Start:      s.start,
		End:        s.start.Add(time.Duration(bars-1) * time.Minute),
		Multiplier: 1,
		Timespan:   models.Minute,
	}
}

func (s *BinanceMockServerTestSuite) TestFetchPaginates() {
	client := provider.NewBinanceClientWithBaseURL(s.server.BaseURL())

	data, err := client.Fetch(context.Background(), s.params(2500))
	s.Require().NoError(err)
	s.Require().Len(data, 2500)

	s.Equal(s.start, data[0].Time)
	s.InDelta(42000, data[0].Open, 1e-6)

	for i := 1; i < len(data); i++ {
		s.Equal(time.Minute, data[i].Time.Sub(data[i-1].Time), "bar %d", i)
	}

	for _, bar := range data {
		s.Equal("BTCUSDT", bar.Symbol)
		s.Equal(types.DataSourceReal, bar.Source)
	}

	requests := s.server.Requests()
	s.Require().Len(requests, 3)
	s.Equal("1m", requests[0].Interval)
	s.Equal(1000, requests[0].Limit)
	s.Equal(s.start.Add(1000*time.Minute), requests[1].StartTime)
	s.Equal(s.start.Add(2000*time.Minute), requests[2].StartTime)
}

func (s *BinanceMockServerTestSuite) TestFetchIsReproducible() {
	client := provider.NewBinanceClientWithBaseURL(s.server.BaseURL())

	first, err := client.Fetch(context.Background(), s.params(120))
	s.Require().NoError(err)

	second, err := client.Fetch(context.Background(), s.params(120))
	s.Require().NoError(err)

	s.Equal(first, second)
}

func (s *BinanceMockServerTestSuite) TestFetchServerError() {
	server := mockserver.NewMockBinanceServer(mockserver.ServerConfig{FailRequests: 1})
	s.Require().NoError(server.Start(""))
	defer server.Stop()

	client := provider.NewBinanceClientWithBaseURL(server.BaseURL())

	_, err := client.Fetch(context.Background(), s.params(10))
	s.Require().Error(err)
	s.Equal(errors.ErrCodeMarketDataFetchFailed, errors.GetCode(err))
}

func (s *BinanceMockServerTestSuite) TestRetryRecoversFromServerError() {
	server := mockserver.NewMockBinanceServer(mockserver.ServerConfig{FailRequests: 2})
	s.Require().NoError(server.Start(""))
	defer server.Stop()

	config := provider.DefaultRetryConfig()
	config.RequestsPerSecond = 0
	config.InitialInterval = 10 * time.Millisecond

	client := provider.NewRetryProvider(provider.NewBinanceClientWithBaseURL(server.BaseURL()), config, logger.NewNopLogger())

	data, err := client.Fetch(context.Background(), s.params(10))
	s.Require().NoError(err)
	s.Len(data, 10)
	s.Len(server.Requests(), 3)
}

func (s *BinanceMockServerTestSuite) TestUnsupportedIntervalNeverReachesServer() {
	client := provider.NewBinanceClientWithBaseURL(s.server.BaseURL())

	params := s.params(10)
	params.Multiplier = 7

	_, err := client.Fetch(context.Background(), params)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidTimespan, errors.GetCode(err))
	s.Empty(s.server.Requests())
}

func (s *BinanceMockServerTestSuite) TestDownloadAndAnalyze() {
	dataPath := s.T().TempDir()

	client, err := marketdata.NewClientWithProvider(
		marketdata.DefaultClientConfig(provider.ProviderBinance, dataPath),
		provider.NewBinanceClientWithBaseURL(s.server.BaseURL()),
		logger.NewNopLogger(),
	)
	s.Require().NoError(err)
	defer client.Close()

	params := marketdata.DownloadParams{
		Ticker:     "BTCUSDT",
		StartDate:  s.start,
		EndDate:    s.start.Add(299 * time.Minute),
		Multiplier: 1,
		Timespan:   models.Minute,
	}

	path, err := client.Download(context.Background(), params)
	s.Require().NoError(err)
	s.Equal(filepath.Join(dataPath, params.FileName()), path)

	_, err = os.Stat(path)
	s.Require().NoError(err)

	source, err := datasource.NewDuckDBDataSource(":memory:", logger.NewNopLogger())
	s.Require().NoError(err)
	defer source.Close()

	s.Require().NoError(source.Initialize(path))

	var bars []types.MarketData
	for bar, err := range source.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		s.Require().NoError(err)
		bars = append(bars, bar)
	}

	s.Require().Len(bars, 300)

	result, err := analyzer.AnalyzeMarketTrend(bars, 20)
	s.Require().NoError(err)
	s.Equal("BTCUSDT", result.Symbol)
	s.Equal(types.DataSourceReal, result.Source)
	s.Contains([]types.Trend{types.TrendRising, types.TrendFalling, types.TrendNeutral}, result.Trend)
}
