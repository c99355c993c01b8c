package scheduler

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/market-analyzer/internal/analyzer"
	"github.com/rxtech-lab/market-analyzer/internal/config"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/mocks"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SchedulerTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	recorder *mocks.MockRecorder
	client   *marketdata.Client
	analyzer *analyzer.Analyzer
	market   config.MarketDataConfig
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (suite *SchedulerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.provider = mocks.NewMockProvider(suite.ctrl)
	suite.recorder = mocks.NewMockRecorder(suite.ctrl)
	suite.provider.EXPECT().Type().Return(provider.ProviderSimulated).AnyTimes()

	client, err := marketdata.NewClientWithProvider(
		marketdata.DefaultClientConfig(provider.ProviderSimulated, suite.T().TempDir()), suite.provider, nil)
	suite.Require().NoError(err)
	suite.client = client

	trendAnalyzer, err := analyzer.NewAnalyzer(analyzer.DefaultAnalysisConfig(), nil)
	suite.Require().NoError(err)
	suite.analyzer = trendAnalyzer

	suite.market = config.Default().MarketData
	suite.market.Ticker = "SIM"
	suite.market.Lookback = 100
	suite.market.End = optional.Some(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
}

func (suite *SchedulerTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *SchedulerTestSuite) newScheduler(spec string) *Scheduler {
	s, err := NewScheduler(spec, suite.market, suite.client, suite.analyzer, suite.recorder, nil)
	suite.Require().NoError(err)

	return s
}

func series(count int) []types.MarketData {
	config := mocks.GeneratorConfigWithCount(count)
	config.Symbol = "SIM"
	config.Interval = 24 * time.Hour

	return mocks.NewDataGenerator(7).Generate(config)
}

func (suite *SchedulerTestSuite) TestRunOnce() {
	bars := series(100)

	suite.provider.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params provider.FetchParams) ([]types.MarketData, error) {
			suite.Equal("SIM", params.Ticker)
			suite.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), params.End)
			suite.Equal(params.End.Add(-100*24*time.Hour), params.Start)

			return bars, nil
		})
	suite.recorder.EXPECT().RecordAnalysis(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, result types.MarketAnalysisResult) error {
			suite.Equal("SIM", result.Symbol)
			suite.Equal(types.DataSourceSimulated, result.Source)

			return nil
		})

	s := suite.newScheduler("0 0 * * * *")

	result, err := s.RunOnce(context.Background())
	suite.Require().NoError(err)
	suite.Equal("SIM", result.Symbol)
	suite.Equal(20, result.WindowSize)

	last, ok := s.Last()
	suite.True(ok)
	suite.Equal(result, last)
	suite.Equal(1, s.Runs())
}

func (suite *SchedulerTestSuite) TestRunOnceErrors() {
	tests := []struct {
		name    string
		bars    []types.MarketData
		err     error
		checkFn func(err error)
	}{
		{
			name: "fetch failure",
			err:  errors.New(errors.ErrCodeMarketDataFetchFailed, "boom"),
			checkFn: func(err error) {
				suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
			},
		},
		{
			name: "empty series",
			bars: []types.MarketData{},
			checkFn: func(err error) {
				suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
			},
		},
		{
			name: "series too short",
			bars: series(10),
			checkFn: func(err error) {
				suite.True(errors.IsInsufficientDataError(err))
			},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.provider.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(tc.bars, tc.err)

			s := suite.newScheduler("0 0 * * * *")

			_, err := s.RunOnce(context.Background())
			suite.Require().Error(err)
			tc.checkFn(err)

			_, ok := s.Last()
			suite.False(ok)
			suite.Equal(0, s.Runs())
		})
	}
}

func (suite *SchedulerTestSuite) TestRecordFailureDoesNotFailRun() {
	suite.provider.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(series(100), nil)
	suite.recorder.EXPECT().RecordAnalysis(gomock.Any(), gomock.Any()).Return(stderrors.New("disk full"))

	s := suite.newScheduler("0 0 * * * *")

	_, err := s.RunOnce(context.Background())
	suite.NoError(err)
	suite.Equal(1, s.Runs())
}

func (suite *SchedulerTestSuite) TestInvalidSpec() {
	_, err := NewScheduler("not a cron", suite.market, suite.client, suite.analyzer, suite.recorder, nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *SchedulerTestSuite) TestMissingDependencies() {
	_, err := NewScheduler("* * * * * *", suite.market, nil, suite.analyzer, nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	_, err = NewScheduler("* * * * * *", suite.market, suite.client, nil, nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *SchedulerTestSuite) TestStartAndStop() {
	bars := series(100)
	suite.provider.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(bars, nil).MinTimes(1)
	suite.recorder.EXPECT().RecordAnalysis(gomock.Any(), gomock.Any()).Return(nil).MinTimes(1)

	s := suite.newScheduler("* * * * * *")
	s.Start()

	suite.Eventually(func() bool { return s.Runs() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	suite.NoError(s.Stop(ctx))
}

func (suite *SchedulerTestSuite) TestRestartAfterStop() {
	bars := series(100)
	suite.provider.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ provider.FetchParams) ([]types.MarketData, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			return bars, nil
		}).MinTimes(2)
	suite.recorder.EXPECT().RecordAnalysis(gomock.Any(), gomock.Any()).Return(nil).MinTimes(2)

	s := suite.newScheduler("* * * * * *")

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		suite.Require().NoError(s.Stop(ctx))
	}

	s.Start()
	suite.Eventually(func() bool { return s.Runs() >= 1 }, 3*time.Second, 50*time.Millisecond)
	stop()

	runs := s.Runs()

	s.Start()
	suite.Eventually(func() bool { return s.Runs() > runs }, 3*time.Second, 50*time.Millisecond)
	stop()
}

func (suite *SchedulerTestSuite) TestStopBeforeStart() {
	s := suite.newScheduler("* * * * * *")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	suite.NoError(s.Stop(ctx))
}
