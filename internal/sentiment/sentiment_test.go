package sentiment

import (
	"math"
	"testing"

	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SentimentTestSuite struct {
	suite.Suite
}

func TestSentimentSuite(t *testing.T) {
	suite.Run(t, new(SentimentTestSuite))
}

func (suite *SentimentTestSuite) TestSingleBullishSource() {
	result, err := AnalyzeSentiment([]types.SentimentInput{{Source: "a", Score: 1, Weight: 1}})
	suite.Require().NoError(err)

	suite.Equal(1.0, result.OverallSentiment)
	suite.Equal(types.SentimentBullish, result.Label)
	suite.Equal([]string{"a"}, result.BullishSources)
	suite.Equal([]string{}, result.BearishSources)
	// 50 for magnitude, 10 for one source
	suite.Equal(60.0, result.Confidence)
	suite.Equal(1, result.SampleSize)
}

func (suite *SentimentTestSuite) TestWeightedAverage() {
	tests := []struct {
		name       string
		inputs     []types.SentimentInput
		overall    float64
		label      types.SentimentLabel
		bullish    []string
		bearish    []string
		confidence float64
	}{
		{
			name: "weights pull toward the heavier source",
			inputs: []types.SentimentInput{
				{Source: "news", Score: 0.8, Weight: 3},
				{Source: "social", Score: -0.4, Weight: 1},
			},
			overall:    0.5,
			label:      types.SentimentBullish,
			bullish:    []string{"news"},
			bearish:    []string{"social"},
			confidence: 70,
		},
		{
			name: "balanced sources are neutral",
			inputs: []types.SentimentInput{
				{Source: "a", Score: 0.5, Weight: 1},
				{Source: "b", Score: -0.5, Weight: 1},
				{Source: "c", Score: 0.1, Weight: 2},
			},
			overall:    0.05,
			label:      types.SentimentNeutral,
			bullish:    []string{"a"},
			bearish:    []string{"b"},
			confidence: 35,
		},
		{
			name: "bearish consensus",
			inputs: []types.SentimentInput{
				{Source: "x", Score: -0.9, Weight: 1},
				{Source: "y", Score: -0.3, Weight: 1},
			},
			overall:    -0.6,
			label:      types.SentimentBearish,
			bullish:    []string{},
			bearish:    []string{"x", "y"},
			confidence: 70,
		},
		{
			name: "threshold scores are neither bullish nor bearish",
			inputs: []types.SentimentInput{
				{Source: "edge-up", Score: 0.2, Weight: 1},
				{Source: "edge-down", Score: -0.2, Weight: 1},
			},
			overall:    0,
			label:      types.SentimentNeutral,
			bullish:    []string{},
			bearish:    []string{},
			confidence: 20,
		},
		{
			name: "zero weight source still counts toward buckets and coverage",
			inputs: []types.SentimentInput{
				{Source: "muted", Score: -1, Weight: 0},
				{Source: "loud", Score: 0.3, Weight: 1},
			},
			overall:    0.3,
			label:      types.SentimentBullish,
			bullish:    []string{"loud"},
			bearish:    []string{"muted"},
			confidence: 50,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result, err := AnalyzeSentiment(tc.inputs)
			suite.Require().NoError(err)
			suite.InDelta(tc.overall, result.OverallSentiment, 1e-12)
			suite.Equal(tc.label, result.Label)
			suite.Equal(tc.bullish, result.BullishSources)
			suite.Equal(tc.bearish, result.BearishSources)
			suite.InDelta(tc.confidence, result.Confidence, 1e-9)
			suite.Equal(len(tc.inputs), result.SampleSize)
		})
	}
}

func (suite *SentimentTestSuite) TestCoverageIsCapped() {
	inputs := make([]types.SentimentInput, 12)
	for i := range inputs {
		inputs[i] = types.SentimentInput{Source: "s", Score: 0.05, Weight: 1}
	}

	result, err := AnalyzeSentiment(inputs)
	suite.Require().NoError(err)
	suite.InDelta(55.0, result.Confidence, 1e-9)
	suite.LessOrEqual(result.Confidence, 100.0)
}

func (suite *SentimentTestSuite) TestErrors() {
	tests := []struct {
		name   string
		inputs []types.SentimentInput
		code   errors.ErrorCode
	}{
		{"empty input", nil, errors.ErrCodeSentimentEmpty},
		{"negative weight", []types.SentimentInput{{Source: "a", Score: 0.5, Weight: -1}}, errors.ErrCodeInvalidSentiment},
		{"score above one", []types.SentimentInput{{Source: "a", Score: 1.5, Weight: 1}}, errors.ErrCodeInvalidSentiment},
		{"score below minus one", []types.SentimentInput{{Source: "a", Score: -1.01, Weight: 1}}, errors.ErrCodeInvalidSentiment},
		{"missing source", []types.SentimentInput{{Score: 0.5, Weight: 1}}, errors.ErrCodeInvalidSentiment},
		{"nan score", []types.SentimentInput{{Source: "a", Score: math.NaN(), Weight: 1}}, errors.ErrCodeInvalidSentiment},
		{"all weights zero", []types.SentimentInput{{Source: "a", Score: 0.5, Weight: 0}, {Source: "b", Score: 0.1, Weight: 0}}, errors.ErrCodeSentimentZeroWeight},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := AnalyzeSentiment(tc.inputs)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}
