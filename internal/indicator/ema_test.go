package indicator

import (
	"testing"

	"github.com/rxtech-lab/market-analyzer/internal/datasource"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type EMATestSuite struct {
	suite.Suite
}

func TestEMASuite(t *testing.T) {
	suite.Run(t, new(EMATestSuite))
}

func (suite *EMATestSuite) TestCalculateEMASeries() {
	// seed = mean(1,2,3) = 2, k = 0.5
	series, err := CalculateEMASeries([]float64{1, 2, 3, 4, 5}, 3)
	suite.Require().NoError(err)
	suite.Equal([]float64{2, 3, 4}, series)

	ema, err := CalculateEMA([]float64{1, 2, 3, 4, 5}, 3)
	suite.Require().NoError(err)
	suite.Equal(4.0, ema)
}

func (suite *EMATestSuite) TestCalculateEMASeedIsSMA() {
	prices := []float64{10, 20, 30, 40}
	ema, err := CalculateEMA(prices, 4)
	suite.Require().NoError(err)

	ma, err := CalculateMA(prices, 4)
	suite.Require().NoError(err)
	suite.Equal(ma, ema)
}

func (suite *EMATestSuite) TestCalculateEMAConstantSeries() {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = 42
	}

	ema, err := CalculateEMA(prices, 10)
	suite.Require().NoError(err)
	suite.InDelta(42.0, ema, 1e-12)
}

func (suite *EMATestSuite) TestCalculateEMALinearLag() {
	// on a unit ramp an SMA seeded EMA lags by exactly (window-1)/2
	prices := ramp(60, 0, 1)

	for _, window := range []int{3, 12, 26} {
		ema, err := CalculateEMA(prices, window)
		suite.Require().NoError(err)
		suite.InDelta(59-float64(window-1)/2, ema, 1e-9)
	}
}

func (suite *EMATestSuite) TestCalculateEMAErrors() {
	_, err := CalculateEMA([]float64{1, 2}, 3)
	suite.True(errors.IsInsufficientDataError(err))

	_, err = CalculateEMASeries([]float64{1, 2}, 0)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod))
}

func (suite *EMATestSuite) TestEMAIndicator() {
	data := rampBars(100, 50, -0.5)
	ctx := IndicatorContext{DataSource: datasource.NewInMemoryDataSource(data)}

	ema := NewEMA()
	suite.Require().NoError(ema.Config(10, 40))

	last := data[len(data)-1]
	signal, err := ema.GetSignal(last, ctx)
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeSellLong, signal.Type)

	suite.Error(ema.Config(10, 5))
}
