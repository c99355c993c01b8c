package types

// SentimentInput is a single scored opinion. Score is in [-1, 1].
type SentimentInput struct {
	Source string  `yaml:"source" json:"source" validate:"required"`
	Score  float64 `yaml:"score" json:"score" validate:"gte=-1,lte=1"`
	Weight float64 `yaml:"weight" json:"weight" validate:"gte=0"`
}

type SentimentLabel string

const (
	SentimentBullish SentimentLabel = "bullish"
	SentimentBearish SentimentLabel = "bearish"
	SentimentNeutral SentimentLabel = "neutral"
)

// SentimentResult aggregates a set of SentimentInput.
type SentimentResult struct {
	OverallSentiment float64        `yaml:"overall_sentiment" json:"overallSentiment"`
	Label            SentimentLabel `yaml:"label" json:"label"`
	BullishSources   []string       `yaml:"bullish_sources" json:"bullishSources"`
	BearishSources   []string       `yaml:"bearish_sources" json:"bearishSources"`
	// Confidence in [0, 100].
	Confidence float64 `yaml:"confidence" json:"confidence"`
	SampleSize int     `yaml:"sample_size" json:"sampleSize"`
}
