// Package sentiment folds weighted sentiment scores from several sources into
// a single market mood.
package sentiment

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultBullishThreshold = 0.2
	DefaultBearishThreshold = -0.2

	// confidence is split evenly between magnitude and coverage
	magnitudeCap      = 50.0
	coverageCap       = 50.0
	coveragePerSource = 10.0
)

// Aggregator computes weighted sentiment. It is safe for concurrent use.
type Aggregator struct {
	bullishThreshold float64
	bearishThreshold float64
	validate         *validator.Validate
	logger           *logger.Logger
}

// NewAggregator creates an Aggregator with the ±0.2 thresholds. A nil logger discards output.
func NewAggregator(log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Aggregator{
		bullishThreshold: DefaultBullishThreshold,
		bearishThreshold: DefaultBearishThreshold,
		validate:         validator.New(),
		logger:           log.Named("sentiment"),
	}
}

// AnalyzeSentiment aggregates inputs with a default Aggregator.
func AnalyzeSentiment(inputs []types.SentimentInput) (types.SentimentResult, error) {
	return NewAggregator(nil).Analyze(inputs)
}

// Analyze returns the weight-averaged score of inputs, the sources leaning
// each way by their own score, and a confidence in [0, 100] that grows with
// both the magnitude of the score and the number of sources.
func (a *Aggregator) Analyze(inputs []types.SentimentInput) (types.SentimentResult, error) {
	if len(inputs) == 0 {
		return types.SentimentResult{}, errors.New(errors.ErrCodeSentimentEmpty, "at least one sentiment input is required")
	}

	weighted := 0.0
	totalWeight := 0.0
	bullish := []string{}
	bearish := []string{}

	for i, input := range inputs {
		if err := a.validateInput(input); err != nil {
			return types.SentimentResult{}, errors.Wrapf(errors.ErrCodeInvalidSentiment, err, "invalid sentiment input %d (%s)", i, input.Source)
		}

		weighted += input.Score * input.Weight
		totalWeight += input.Weight

		switch {
		case input.Score > a.bullishThreshold:
			bullish = append(bullish, input.Source)
		case input.Score < a.bearishThreshold:
			bearish = append(bearish, input.Source)
		}
	}

	if totalWeight == 0 {
		return types.SentimentResult{}, errors.New(errors.ErrCodeSentimentZeroWeight, "total sentiment weight is zero")
	}

	overall := weighted / totalWeight

	label := types.SentimentNeutral
	switch {
	case overall > a.bullishThreshold:
		label = types.SentimentBullish
	case overall < a.bearishThreshold:
		label = types.SentimentBearish
	}

	confidence := math.Min(magnitudeCap, math.Abs(overall)*100) +
		math.Min(coverageCap, float64(len(inputs))*coveragePerSource)

	result := types.SentimentResult{
		OverallSentiment: overall,
		Label:            label,
		BullishSources:   bullish,
		BearishSources:   bearish,
		Confidence:       math.Round(confidence*100) / 100,
		SampleSize:       len(inputs),
	}

	a.logger.Debug("Sentiment aggregated",
		zap.Int("inputs", len(inputs)),
		zap.Float64("overall", overall),
		zap.String("label", string(label)),
	)

	return result, nil
}

func (a *Aggregator) validateInput(input types.SentimentInput) error {
	if math.IsNaN(input.Score) || math.IsNaN(input.Weight) || math.IsInf(input.Weight, 0) {
		return errors.New(errors.ErrCodeInvalidSentiment, "score and weight must be finite numbers")
	}

	return a.validate.Struct(input)
}
