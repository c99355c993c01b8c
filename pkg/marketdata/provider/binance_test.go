package provider

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	klines    []*binance.Kline
	klinesErr error
	// For pagination testing - returns different results on subsequent calls
	callCount     int
	klinesPerCall [][]*binance.Kline
	errorsPerCall []error
	// requests records every service that was executed
	requests []*mockBinanceKlinesService
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockBinanceKlinesService{client: m}
}

type mockBinanceKlinesService struct {
	client   *mockBinanceAPIClient
	symbol   string
	interval string
	start    int64
	end      int64
	limit    int
}

func (m *mockBinanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	m.symbol = symbol
	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.interval = interval
	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.start = startTime
	return m
}

func (m *mockBinanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	m.end = endTime
	return m
}

func (m *mockBinanceKlinesService) Limit(limit int) BinanceKlinesService {
	m.limit = limit
	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	m.client.requests = append(m.client.requests, m)

	// If we have per-call data, use it
	if len(m.client.klinesPerCall) > 0 {
		idx := m.client.callCount
		m.client.callCount++
		if idx < len(m.client.klinesPerCall) {
			var err error
			if idx < len(m.client.errorsPerCall) {
				err = m.client.errorsPerCall[idx]
			}
			return m.client.klinesPerCall[idx], err
		}
		return nil, nil
	}
	// Otherwise use single response
	return m.client.klines, m.client.klinesErr
}

// makeKlines builds n one-minute klines starting at start.
func makeKlines(start time.Time, n int) []*binance.Kline {
	klines := make([]*binance.Kline, n)
	for i := 0; i < n; i++ {
		open := start.Add(time.Duration(i) * time.Minute)
		price := strconv.FormatFloat(100+float64(i), 'f', 2, 64)
		klines[i] = &binance.Kline{
			OpenTime:  open.UnixMilli(),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    "10",
			CloseTime: open.Add(time.Minute).UnixMilli() - 1,
		}
	}

	return klines
}

type BinanceClientTestSuite struct {
	suite.Suite
	start  time.Time
	params FetchParams
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.params = FetchParams{
		Ticker:     "BTCUSDT",
		Start:      suite.start,
		End:        suite.start.Add(24 * time.Hour),
		Multiplier: 1,
		Timespan:   models.Minute,
	}
}

func (suite *BinanceClientTestSuite) TestNewBinanceClient() {
	client, err := NewBinanceClient()
	suite.NoError(err)
	suite.NotNil(client)
	suite.Equal(ProviderBinance, client.Type())

	binanceClient, ok := client.(*BinanceClient)
	suite.True(ok)
	suite.NotNil(binanceClient.apiClient)
}

func (suite *BinanceClientTestSuite) TestNewBinanceClientWithAPI() {
	mockAPI := &mockBinanceAPIClient{}
	client := NewBinanceClientWithAPI(mockAPI)
	suite.NotNil(client)
	suite.Equal(mockAPI, client.apiClient)
}

func (suite *BinanceClientTestSuite) TestFetchSuccess() {
	mockAPI := &mockBinanceAPIClient{
		klines: []*binance.Kline{
			{
				OpenTime:  suite.start.UnixMilli(),
				Open:      "42000.50",
				High:      "42100.00",
				Low:       "41900.25",
				Close:     "42050.75",
				Volume:    "12.5",
				CloseTime: suite.start.Add(time.Minute).UnixMilli() - 1,
			},
		},
	}
	client := NewBinanceClientWithAPI(mockAPI)

	data, err := client.Fetch(context.Background(), suite.params)
	suite.Require().NoError(err)
	suite.Require().Len(data, 1)

	bar := data[0]
	suite.Equal("BTCUSDT", bar.Symbol)
	suite.True(bar.Time.Equal(suite.start))
	suite.Equal(time.UTC, bar.Time.Location())
	suite.Equal(42000.50, bar.Open)
	suite.Equal(42100.00, bar.High)
	suite.Equal(41900.25, bar.Low)
	suite.Equal(42050.75, bar.Close)
	suite.Equal(12.5, bar.Volume)
	suite.Equal(types.DataSourceReal, bar.Source)

	suite.Require().Len(mockAPI.requests, 1)
	request := mockAPI.requests[0]
	suite.Equal("BTCUSDT", request.symbol)
	suite.Equal("1m", request.interval)
	suite.Equal(suite.params.Start.UnixMilli(), request.start)
	suite.Equal(suite.params.End.UnixMilli(), request.end)
	suite.Equal(binancePageSize, request.limit)
}

func (suite *BinanceClientTestSuite) TestFetchEmptyKlines() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klines: []*binance.Kline{}})

	data, err := client.Fetch(context.Background(), suite.params)
	suite.NoError(err)
	suite.NotNil(data)
	suite.Empty(data)
}

func (suite *BinanceClientTestSuite) TestFetchAPIError() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{klinesErr: stderrors.New("api unavailable")})

	_, err := client.Fetch(context.Background(), suite.params)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.Contains(err.Error(), "api unavailable")
}

func (suite *BinanceClientTestSuite) TestFetchInvalidParams() {
	tests := []struct {
		name   string
		modify func(p *FetchParams)
	}{
		{name: "missing ticker", modify: func(p *FetchParams) { p.Ticker = "" }},
		{name: "end before start", modify: func(p *FetchParams) { p.End = p.Start.Add(-time.Hour) }},
		{name: "zero multiplier", modify: func(p *FetchParams) { p.Multiplier = 0 }},
		{name: "unknown timespan", modify: func(p *FetchParams) { p.Timespan = models.Timespan("fortnight") }},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			mockAPI := &mockBinanceAPIClient{}
			client := NewBinanceClientWithAPI(mockAPI)

			params := suite.params
			tc.modify(&params)

			_, err := client.Fetch(context.Background(), params)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
			suite.Empty(mockAPI.requests)
		})
	}
}

func (suite *BinanceClientTestSuite) TestFetchUnsupportedInterval() {
	client := NewBinanceClientWithAPI(&mockBinanceAPIClient{})

	params := suite.params
	params.Timespan = models.Quarter

	_, err := client.Fetch(context.Background(), params)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimespan))
}

func (suite *BinanceClientTestSuite) TestFetchPagination() {
	firstPage := makeKlines(suite.start, binancePageSize)
	secondStart := suite.start.Add(binancePageSize * time.Minute)
	secondPage := makeKlines(secondStart, 5)

	mockAPI := &mockBinanceAPIClient{
		klinesPerCall: [][]*binance.Kline{firstPage, secondPage},
	}
	client := NewBinanceClientWithAPI(mockAPI)

	data, err := client.Fetch(context.Background(), suite.params)
	suite.Require().NoError(err)
	suite.Len(data, binancePageSize+5)
	suite.Equal(2, mockAPI.callCount)

	// the second page starts right after the close time of the first
	suite.Require().Len(mockAPI.requests, 2)
	suite.Equal(firstPage[len(firstPage)-1].CloseTime+1, mockAPI.requests[1].start)
	suite.True(data[binancePageSize].Time.Equal(secondStart))

	for i := 1; i < len(data); i++ {
		suite.True(data[i].Time.After(data[i-1].Time))
	}
}

func (suite *BinanceClientTestSuite) TestFetchPaginationWithAPIErrorOnSecondPage() {
	mockAPI := &mockBinanceAPIClient{
		klinesPerCall: [][]*binance.Kline{makeKlines(suite.start, binancePageSize), nil},
		errorsPerCall: []error{nil, stderrors.New("rate limited")},
	}
	client := NewBinanceClientWithAPI(mockAPI)

	data, err := client.Fetch(context.Background(), suite.params)
	suite.Error(err)
	suite.Nil(data)
	suite.Contains(err.Error(), "rate limited")
}

func (suite *BinanceClientTestSuite) TestFetchCancelledContext() {
	mockAPI := &mockBinanceAPIClient{klines: makeKlines(suite.start, 3)}
	client := NewBinanceClientWithAPI(mockAPI)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, suite.params)
	suite.Error(err)
	suite.ErrorIs(err, context.Canceled)
	suite.Empty(mockAPI.requests)
}

func (suite *BinanceClientTestSuite) TestConvertKlinesWithInvalidNumbers() {
	tests := []struct {
		name  string
		kline binance.Kline
	}{
		{name: "invalid open", kline: binance.Kline{Open: "abc", High: "1", Low: "1", Close: "1", Volume: "1"}},
		{name: "invalid high", kline: binance.Kline{Open: "1", High: "", Low: "1", Close: "1", Volume: "1"}},
		{name: "invalid low", kline: binance.Kline{Open: "1", High: "1", Low: "x", Close: "1", Volume: "1"}},
		{name: "invalid close", kline: binance.Kline{Open: "1", High: "1", Low: "1", Close: "1.2.3", Volume: "1"}},
		{name: "invalid volume", kline: binance.Kline{Open: "1", High: "1", Low: "1", Close: "1", Volume: "many"}},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			kline := tc.kline
			_, err := convertKlines("BTCUSDT", []*binance.Kline{&kline})
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeMarketDataParseFailed))
		})
	}
}

// TestConvertTimespanToBinanceInterval tests the conversion of timespan to Binance interval strings.
func (suite *BinanceClientTestSuite) TestConvertTimespanToBinanceInterval() {
	tests := []struct {
		name       string
		timespan   models.Timespan
		multiplier int
		want       string
		wantErr    bool
	}{
		{name: "1 second", timespan: models.Second, multiplier: 1, want: "1s"},
		{name: "1 minute", timespan: models.Minute, multiplier: 1, want: "1m"},
		{name: "3 minutes", timespan: models.Minute, multiplier: 3, want: "3m"},
		{name: "5 minutes", timespan: models.Minute, multiplier: 5, want: "5m"},
		{name: "15 minutes", timespan: models.Minute, multiplier: 15, want: "15m"},
		{name: "30 minutes", timespan: models.Minute, multiplier: 30, want: "30m"},
		{name: "1 hour", timespan: models.Hour, multiplier: 1, want: "1h"},
		{name: "4 hours", timespan: models.Hour, multiplier: 4, want: "4h"},
		{name: "12 hours", timespan: models.Hour, multiplier: 12, want: "12h"},
		{name: "1 day", timespan: models.Day, multiplier: 1, want: "1d"},
		{name: "3 days", timespan: models.Day, multiplier: 3, want: "3d"},
		{name: "1 week", timespan: models.Week, multiplier: 1, want: "1w"},
		{name: "1 month", timespan: models.Month, multiplier: 1, want: "1M"},
		{name: "2 seconds - unsupported", timespan: models.Second, multiplier: 2, wantErr: true},
		{name: "7 minutes - unsupported", timespan: models.Minute, multiplier: 7, wantErr: true},
		{name: "2 weeks - unsupported", timespan: models.Week, multiplier: 2, wantErr: true},
		{name: "quarter - unsupported", timespan: models.Quarter, multiplier: 1, wantErr: true},
		{name: "year - unsupported", timespan: models.Year, multiplier: 1, wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			got, err := convertTimespanToBinanceInterval(tc.timespan, tc.multiplier)
			if tc.wantErr {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimespan))
				return
			}

			suite.NoError(err)
			suite.Equal(tc.want, got)
		})
	}
}
