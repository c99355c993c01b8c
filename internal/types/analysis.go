package types

import "time"

// Trend is the verdict of a market trend analysis.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendNeutral Trend = "neutral"
)

// IndicatorSnapshot holds the indicators computed for an analysis. A nil field
// means the series was too short for that indicator.
type IndicatorSnapshot struct {
	RSI            *float64              `yaml:"rsi,omitempty" json:"rsi,omitempty"`
	MACD           *MACDResult           `yaml:"macd,omitempty" json:"macd,omitempty"`
	BollingerBands *BollingerBandsResult `yaml:"bollinger_bands,omitempty" json:"bollingerBands,omitempty"`
}

// MarketAnalysisResult is the snapshot produced by a trend analysis.
type MarketAnalysisResult struct {
	Symbol     string            `yaml:"symbol" json:"symbol"`
	Trend      Trend             `yaml:"trend" json:"trend"`
	CurrentMA  float64           `yaml:"current_ma" json:"currentMA"`
	PreviousMA float64           `yaml:"previous_ma" json:"previousMA"`
	Difference float64           `yaml:"difference" json:"difference"`
	WindowSize int               `yaml:"window_size" json:"windowSize"`
	Indicators IndicatorSnapshot `yaml:"indicators" json:"indicators"`
	// Confidence is the normalized signal score. Positive values lean rising.
	Confidence float64    `yaml:"confidence" json:"confidence"`
	Source     DataSource `yaml:"source" json:"source"`
	AnalyzedAt time.Time  `yaml:"analyzed_at" json:"analyzedAt"`
}
