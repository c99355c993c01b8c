package provider

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon   ProviderType = "polygon"
	ProviderBinance   ProviderType = "binance"
	ProviderSimulated ProviderType = "simulated"
)

// AllProviderTypes lists every supported provider.
var AllProviderTypes = []ProviderType{ProviderBinance, ProviderPolygon, ProviderSimulated}

// FetchParams selects the bars to fetch. Start and End are inclusive.
type FetchParams struct {
	Ticker     string          `validate:"required"`
	Start      time.Time       `validate:"required"`
	End        time.Time       `validate:"required,gtfield=Start"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required,oneof=second minute hour day week month quarter year"`
}

// Validate checks the parameters.
func (p FetchParams) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid fetch parameters", err)
	}

	return nil
}

// Interval is the duration of one bar. Months count as 30 days, quarters as
// 91 and years as 365.
func (p FetchParams) Interval() (time.Duration, error) {
	var unit time.Duration

	switch p.Timespan {
	case models.Second:
		unit = time.Second
	case models.Minute:
		unit = time.Minute
	case models.Hour:
		unit = time.Hour
	case models.Day:
		unit = 24 * time.Hour
	case models.Week:
		unit = 7 * 24 * time.Hour
	case models.Month:
		unit = 30 * 24 * time.Hour
	case models.Quarter:
		unit = 91 * 24 * time.Hour
	case models.Year:
		unit = 365 * 24 * time.Hour
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan: %s", p.Timespan)
	}

	return unit * time.Duration(p.Multiplier), nil
}

// Provider fetches historical OHLCV bars. Bars come back oldest first and are
// tagged with their provenance.
type Provider interface {
	// Fetch returns the bars for params. The context can be used to cancel the fetch.
	// example:
	// Fetch(ctx, FetchParams{Ticker: "AAPL", Start: start, End: end, Multiplier: 1, Timespan: models.Day})
	Fetch(ctx context.Context, params FetchParams) ([]types.MarketData, error)
	// Type returns the provider type.
	Type() ProviderType
}

// NewProvider creates a market data provider. apiKey is only used by Polygon.
func NewProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(apiKey)
	case ProviderSimulated:
		return NewSimulatedProvider(DefaultSimulationSeed), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}
