package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// binancePageSize is the maximum number of klines Binance returns per request.
const binancePageSize = 1000

// BinanceKlinesService is the subset of the go-binance klines service used here.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient creates klines services.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIClient struct {
	client *binance.Client
}

func (c *binanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesService{service: c.client.NewKlinesService()}
}

type binanceKlinesService struct {
	service *binance.KlinesService
}

func (s *binanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service.Symbol(symbol)

	return s
}

func (s *binanceKlinesService) Interval(interval string) BinanceKlinesService {
	s.service.Interval(interval)

	return s
}

func (s *binanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.service.StartTime(startTime)

	return s
}

func (s *binanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.service.EndTime(endTime)

	return s
}

func (s *binanceKlinesService) Limit(limit int) BinanceKlinesService {
	s.service.Limit(limit)

	return s
}

func (s *binanceKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
}

// NewBinanceClient creates a provider for the public Binance spot klines API.
func NewBinanceClient() (Provider, error) {
	client := binance.NewClient("", "")

	return &BinanceClient{
		apiClient: &binanceAPIClient{client: client},
	}, nil
}

// NewBinanceClientWithBaseURL creates a provider that talks to a Binance
// compatible API at baseURL, such as a testnet or a local mock.
func NewBinanceClientWithBaseURL(baseURL string) *BinanceClient {
	client := binance.NewClient("", "")
	client.BaseURL = baseURL

	return &BinanceClient{
		apiClient: &binanceAPIClient{client: client},
	}
}

// NewBinanceClientWithAPI creates a provider on top of the given API client.
func NewBinanceClientWithAPI(client BinanceAPIClient) *BinanceClient {
	return &BinanceClient{apiClient: client}
}

func (c *BinanceClient) Type() ProviderType {
	return ProviderBinance
}

// Fetch pages through the klines between params.Start and params.End and
// converts them to MarketData tagged as real.
func (c *BinanceClient) Fetch(ctx context.Context, params FetchParams) ([]types.MarketData, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	interval, err := convertTimespanToBinanceInterval(params.Timespan, params.Multiplier)
	if err != nil {
		return nil, err
	}

	endTimeMillis := params.End.UnixMilli()
	currentStartTime := params.Start.UnixMilli()

	var result []types.MarketData

	for currentStartTime <= endTimeMillis {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "binance fetch cancelled", err)
		}

		klines, err := c.apiClient.NewKlinesService().
			Symbol(params.Ticker).
			Interval(interval).
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch klines for %s from Binance", params.Ticker)
		}

		page, err := convertKlines(params.Ticker, klines)
		if err != nil {
			return nil, err
		}

		result = append(result, page...)

		// a short page is the last one
		if len(klines) < binancePageSize {
			break
		}

		// continue after the close time of the last kline to avoid duplicates
		currentStartTime = klines[len(klines)-1].CloseTime + 1
	}

	if result == nil {
		result = []types.MarketData{}
	}

	return result, nil
}

// convertKlines converts Binance kline data to MarketData.
func convertKlines(ticker string, klines []*binance.Kline) ([]types.MarketData, error) {
	result := make([]types.MarketData, 0, len(klines))

	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q for %s at %d", raw, ticker, k.OpenTime)
			}

			values[i] = value
		}

		result = append(result, types.MarketData{
			Symbol: ticker,
			// the bar is stamped with its open time
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
			Source: types.DataSourceReal,
		})
	}

	return result, nil
}

// convertTimespanToBinanceInterval converts the polygon timespan and multiplier to a Binance interval string.
// Binance intervals: 1s, 1m, 3m, 5m, 15m, 30m, 1h, 2h, 4h, 6h, 8h, 12h, 1d, 3d, 1w, 1M
// Ref: https://binance-docs.github.io/apidocs/spot/en/#kline-candlestick-data
func convertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	supported := map[models.Timespan][]int{
		models.Second: {1},
		models.Minute: {1, 3, 5, 15, 30},
		models.Hour:   {1, 2, 4, 6, 8, 12},
		models.Day:    {1, 3},
		models.Week:   {1},
		models.Month:  {1},
	}

	suffix := map[models.Timespan]string{
		models.Second: "s",
		models.Minute: "m",
		models.Hour:   "h",
		models.Day:    "d",
		models.Week:   "w",
		models.Month:  "M",
	}

	for _, allowed := range supported[timespan] {
		if allowed == multiplier {
			return strconv.Itoa(multiplier) + suffix[timespan], nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported Binance interval: %d %s", multiplier, timespan)
}
