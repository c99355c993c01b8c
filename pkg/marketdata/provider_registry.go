package marketdata

import (
	"sort"

	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider"
	"github.com/rxtech-lab/market-analyzer/pkg/schema"
)

// ProviderInfo contains metadata about a market data provider.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	// Simulated providers tag their bars as simulated.
	Simulated bool `json:"simulated"`
}

// providerRegistry holds metadata about all supported providers.
var providerRegistry = map[provider.ProviderType]ProviderInfo{
	provider.ProviderPolygon: {
		Name:         string(provider.ProviderPolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market data provider with real-time and historical OHLCV data",
		RequiresAuth: true,
	},
	provider.ProviderBinance: {
		Name:         string(provider.ProviderBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange with extensive market data for crypto trading pairs",
		RequiresAuth: false,
	},
	provider.ProviderSimulated: {
		Name:         string(provider.ProviderSimulated),
		DisplayName:  "Simulated",
		Description:  "Seeded geometric Brownian motion series for offline analysis and tests",
		RequiresAuth: false,
		Simulated:    true,
	},
}

// GetSupportedProviders returns the names of all supported providers, sorted.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetAllProviderInfo returns the metadata of every provider ordered by name.
func GetAllProviderInfo() []ProviderInfo {
	names := GetSupportedProviders()
	infos := make([]ProviderInfo, 0, len(names))

	for _, name := range names {
		infos = append(infos, providerRegistry[provider.ProviderType(name)])
	}

	return infos
}

// GetDownloadConfigSchema returns the JSON schema for a provider's download configuration.
func GetDownloadConfigSchema(providerName string) (string, error) {
	switch provider.ProviderType(providerName) {
	case provider.ProviderPolygon:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return schema.ToJSONSchema(PolygonDownloadConfig{})
	case provider.ProviderBinance:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return schema.ToJSONSchema(BinanceDownloadConfig{})
	case provider.ProviderSimulated:
		//nolint:exhaustruct // Empty struct is intentional for schema generation
		return schema.ToJSONSchema(SimulatedDownloadConfig{})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}
}

// DownloadConfig is implemented by every provider download configuration.
type DownloadConfig interface {
	Validate() error
	ToDownloadParams() (DownloadParams, error)
	ToClientConfig(dataPath string) ClientConfig
}

// ParseDownloadConfig parses a JSON configuration string for the given provider.
func ParseDownloadConfig(providerName string, jsonConfig string) (DownloadConfig, error) {
	var (
		config DownloadConfig
		err    error
	)

	switch provider.ProviderType(providerName) {
	case provider.ProviderPolygon:
		config, err = unwrapConfig(ParsePolygonConfig(jsonConfig))
	case provider.ProviderBinance:
		config, err = unwrapConfig(ParseBinanceConfig(jsonConfig))
	case provider.ProviderSimulated:
		config, err = unwrapConfig(ParseSimulatedConfig(jsonConfig))
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return config, err
}

// unwrapConfig keeps a typed nil pointer out of the DownloadConfig interface.
func unwrapConfig[T DownloadConfig](config T, err error) (DownloadConfig, error) {
	if err != nil {
		return nil, err
	}

	return config, nil
}
