package indicator

import (
	"testing"

	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type WaddahAttarTestSuite struct {
	suite.Suite
}

func TestWaddahAttarSuite(t *testing.T) {
	suite.Run(t, new(WaddahAttarTestSuite))
}

// breakout is a flat stretch at 100 followed by the given closes.
func breakout(moves ...float64) []types.MarketData {
	closes := make([]float64, 60, 60+len(moves))
	for i := range closes {
		closes[i] = 100
	}

	return barsFromCloses(append(closes, moves...))
}

func (suite *WaddahAttarTestSuite) TestFlatMarket() {
	result, err := CalculateWaddahAttar(breakout(), DefaultWaddahAttarConfig())
	suite.Require().NoError(err)
	suite.InDelta(0, result.Trend, 1e-9)
	suite.InDelta(0, result.Explosion, 1e-9)
	suite.InDelta(2, result.ATR, 1e-9)
	suite.InDelta(2*3.7, result.DeadZone, 1e-9)
}

func (suite *WaddahAttarTestSuite) TestBreakout() {
	up, err := CalculateWaddahAttar(breakout(110, 120, 130), DefaultWaddahAttarConfig())
	suite.Require().NoError(err)
	suite.Greater(up.Explosion, up.DeadZone)
	suite.Greater(up.Trend, up.Explosion)

	down, err := CalculateWaddahAttar(breakout(90, 80, 70), DefaultWaddahAttarConfig())
	suite.Require().NoError(err)
	suite.InDelta(up.Explosion, down.Explosion, 1e-9)
	suite.InDelta(-up.Trend, down.Trend, 1e-9)
}

func (suite *WaddahAttarTestSuite) TestSignal() {
	tests := []struct {
		name     string
		data     []types.MarketData
		expected types.SignalType
	}{
		{"flat", breakout(), types.SignalTypeNoAction},
		{"bullish", breakout(110, 120, 130), types.SignalTypeBuyLong},
		{"bearish", breakout(90, 80, 70), types.SignalTypeSellShort},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			ctx := IndicatorContext{DataSource: datasource.NewInMemoryDataSource(tc.data)}

			signal, err := NewWaddahAttar().GetSignal(tc.data[len(tc.data)-1], ctx)
			suite.Require().NoError(err)
			suite.Equal(tc.expected, signal.Type)
			suite.Equal(types.IndicatorTypeWaddahAttar, signal.Indicator)
			suite.Contains(signal.RawValue, "explosion")
		})
	}
}

func (suite *WaddahAttarTestSuite) TestRawValueIsExplosion() {
	data := breakout(110, 120, 130)
	ctx := IndicatorContext{DataSource: datasource.NewInMemoryDataSource(data)}

	value, err := NewWaddahAttar().RawValue("TEST", data[len(data)-1].Time, ctx)
	suite.Require().NoError(err)

	expected, err := CalculateWaddahAttar(data, DefaultWaddahAttarConfig())
	suite.Require().NoError(err)
	suite.InDelta(expected.Explosion, value, 1e-9)
}

func (suite *WaddahAttarTestSuite) TestErrors() {
	config := DefaultWaddahAttarConfig()

	_, err := CalculateWaddahAttar(rampBars(40, 100, 1), config)
	suite.True(errors.IsInsufficientDataError(err))

	config.Multiplier = 0
	_, err = CalculateWaddahAttar(breakout(), config)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidMultiplier))
}

func (suite *WaddahAttarTestSuite) TestConfig() {
	wa := NewWaddahAttar()
	suite.True(errors.HasCode(wa.Config(20, 40), errors.ErrCodeMissingParameter))
	suite.True(errors.HasCode(wa.Config(40, 20, 9, 14, 150.0), errors.ErrCodeInvalidPeriod))
	suite.True(errors.HasCode(wa.Config(20, 40, 9, 14, 0.0), errors.ErrCodeInvalidMultiplier))
	suite.True(errors.HasCode(wa.Config(20, 40, 0, 14, 150.0), errors.ErrCodeInvalidPeriod))
	suite.Require().NoError(wa.Config(5, 10, 3, 5, 100.0))

	// the shorter periods fit in a series the defaults reject
	data := rampBars(20, 100, 1)
	_, err := wa.RawValue("TEST", data[len(data)-1].Time, IndicatorContext{DataSource: datasource.NewInMemoryDataSource(data)})
	suite.NoError(err)
}
