package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/iter"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// polygonPageSize is the aggregate page size requested from Polygon.
const polygonPageSize = 50000

// PolygonAggsIterator walks the aggregates returned by ListAggs.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the Polygon REST client used here.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams) PolygonAggsIterator
}

type polygonAPIClient struct {
	client *polygon.Client
}

func (c *polygonAPIClient) ListAggs(ctx context.Context, params *models.ListAggsParams) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params)
}

var _ PolygonAggsIterator = (*iter.Iter[models.Agg])(nil)

type PolygonClient struct {
	apiClient PolygonAPIClient
}

// NewPolygonClient creates a Polygon provider. An API key is required.
func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon api key is required")
	}

	return &PolygonClient{
		apiClient: &polygonAPIClient{client: polygon.New(apiKey)},
	}, nil
}

// NewPolygonClientWithAPI creates a provider on top of the given API client.
func NewPolygonClientWithAPI(client PolygonAPIClient) *PolygonClient {
	return &PolygonClient{apiClient: client}
}

func (c *PolygonClient) Type() ProviderType {
	return ProviderPolygon
}

// Fetch lists the aggregates for params and converts them to MarketData tagged as real.
func (c *PolygonClient) Fetch(ctx context.Context, params FetchParams) ([]types.MarketData, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	listParams := models.ListAggsParams{
		Ticker:     params.Ticker,
		Multiplier: params.Multiplier,
		Timespan:   params.Timespan,
		From:       models.Millis(params.Start),
		To:         models.Millis(params.End),
	}.WithLimit(polygonPageSize)

	it := c.apiClient.ListAggs(ctx, listParams)

	result := []types.MarketData{}

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "polygon fetch cancelled", err)
		}

		agg := it.Item()

		result = append(result, types.MarketData{
			Symbol: params.Ticker,
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
			Source: types.DataSourceReal,
		})
	}

	if err := it.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch aggregates for %s from Polygon", params.Ticker)
	}

	return result, nil
}
