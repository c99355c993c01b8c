package marketdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func validBase() BaseDownloadConfig {
	return BaseDownloadConfig{
		Ticker:    "SPY",
		StartDate: "2024-01-01T00:00:00Z",
		EndDate:   "2024-12-31T23:59:59Z",
		Interval:  "1d",
	}
}

func (suite *DownloadConfigTestSuite) TestPolygonConfigValidation() {
	tests := []struct {
		name          string
		modify        func(c *PolygonDownloadConfig)
		expectError   bool
		errorContains string
	}{
		{name: "valid", modify: func(c *PolygonDownloadConfig) {}},
		{name: "missing ticker", modify: func(c *PolygonDownloadConfig) { c.Ticker = "" }, expectError: true, errorContains: "Ticker"},
		{name: "missing api key", modify: func(c *PolygonDownloadConfig) { c.ApiKey = "" }, expectError: true, errorContains: "ApiKey"},
		{name: "invalid interval", modify: func(c *PolygonDownloadConfig) { c.Interval = "7m" }, expectError: true, errorContains: "Interval"},
		{name: "invalid start date", modify: func(c *PolygonDownloadConfig) { c.StartDate = "2024-01-01" }, expectError: true, errorContains: "startDate"},
		{name: "end before start", modify: func(c *PolygonDownloadConfig) { c.EndDate = "2023-12-31T00:00:00Z" }, expectError: true, errorContains: "endDate must be after startDate"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := &PolygonDownloadConfig{BaseDownloadConfig: validBase(), ApiKey: "test-api-key"}
			tc.modify(config)

			err := config.Validate()
			if tc.expectError {
				suite.Error(err)
				suite.Contains(err.Error(), tc.errorContains)
				suite.True(errors.IsValidation(err))
				return
			}

			suite.NoError(err)
		})
	}
}

func (suite *DownloadConfigTestSuite) TestBinanceConfigValidation() {
	config := &BinanceDownloadConfig{BaseDownloadConfig: validBase()}
	suite.NoError(config.Validate())

	config = &BinanceDownloadConfig{}
	suite.Error(config.Validate())
}

func (suite *DownloadConfigTestSuite) TestParsePolygonConfig() {
	config, err := ParsePolygonConfig(`{"ticker":"SPY","startDate":"2024-01-01T00:00:00Z","endDate":"2024-12-31T23:59:59Z","interval":"1d","apiKey":"key"}`)
	suite.Require().NoError(err)
	suite.Equal("SPY", config.Ticker)
	suite.Equal("key", config.ApiKey)

	_, err = ParsePolygonConfig(`{invalid json}`)
	suite.Error(err)
	suite.Contains(err.Error(), "failed to parse JSON")

	_, err = ParsePolygonConfig(`{"ticker":"SPY","startDate":"2024-01-01T00:00:00Z","endDate":"2024-12-31T23:59:59Z","interval":"1d"}`)
	suite.Error(err)
	suite.Contains(err.Error(), "ApiKey")
}

func (suite *DownloadConfigTestSuite) TestParseSimulatedConfig() {
	config, err := ParseSimulatedConfig(`{"ticker":"SIM","startDate":"2024-01-01T00:00:00Z","endDate":"2024-01-02T00:00:00Z","interval":"1h","seed":7}`)
	suite.Require().NoError(err)
	suite.Equal(int64(7), config.Seed)

	clientConfig := config.ToClientConfig("/tmp/data")
	suite.Equal(provider.ProviderSimulated, clientConfig.ProviderType)
	suite.Equal(int64(7), clientConfig.Seed)

	config.Seed = 0
	suite.Equal(provider.DefaultSimulationSeed, config.ToClientConfig("/tmp/data").Seed)
}

func (suite *DownloadConfigTestSuite) TestToDownloadParams() {
	base := validBase()
	base.Interval = "15m"

	params, err := base.ToDownloadParams()
	suite.Require().NoError(err)
	suite.Equal("SPY", params.Ticker)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), params.StartDate.UTC())
	suite.Equal(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), params.EndDate.UTC())
	suite.Equal(15, params.Multiplier)
	suite.Equal(models.Minute, params.Timespan)
}

func (suite *DownloadConfigTestSuite) TestToClientConfig() {
	polygonConfig := &PolygonDownloadConfig{BaseDownloadConfig: validBase(), ApiKey: "key"}
	clientConfig := polygonConfig.ToClientConfig("/tmp/data")
	suite.Equal(provider.ProviderPolygon, clientConfig.ProviderType)
	suite.Equal(WriterDuckDB, clientConfig.WriterType)
	suite.Equal("/tmp/data", clientConfig.DataPath)
	suite.Equal("key", clientConfig.PolygonApiKey)

	binanceConfig := &BinanceDownloadConfig{BaseDownloadConfig: validBase()}
	clientConfig = binanceConfig.ToClientConfig("/tmp/data")
	suite.Equal(provider.ProviderBinance, clientConfig.ProviderType)
	suite.Empty(clientConfig.PolygonApiKey)
}

func (suite *DownloadConfigTestSuite) TestAllIntervals() {
	for _, t := range AllTimespans {
		suite.Run(string(t), func() {
			base := validBase()
			base.Interval = string(t)
			suite.NoError(base.Validate())

			params, err := base.ToDownloadParams()
			suite.NoError(err)
			suite.Equal(t.Multiplier(), params.Multiplier)
			suite.Equal(t.Timespan(), params.Timespan)
		})
	}
}

func (suite *DownloadConfigTestSuite) TestConfigJSONSchema() {
	tests := []struct {
		provider  string
		hasAPIKey bool
		hasSeed   bool
	}{
		{provider: "polygon", hasAPIKey: true},
		{provider: "binance"},
		{provider: "simulated", hasSeed: true},
	}

	for _, tc := range tests {
		suite.Run(tc.provider, func() {
			schema, err := GetDownloadConfigSchema(tc.provider)
			suite.Require().NoError(err)

			var schemaMap map[string]any
			suite.Require().NoError(json.Unmarshal([]byte(schema), &schemaMap))

			properties, ok := schemaMap["properties"].(map[string]any)
			suite.Require().True(ok)
			suite.Contains(properties, "ticker")
			suite.Contains(properties, "startDate")
			suite.Contains(properties, "endDate")
			suite.Contains(properties, "interval")
			suite.Equal(tc.hasAPIKey, properties["apiKey"] != nil)
			suite.Equal(tc.hasSeed, properties["seed"] != nil)
		})
	}
}
