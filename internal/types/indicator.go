package types

type IndicatorType string

const (
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeADX            IndicatorType = "adx"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeMA             IndicatorType = "ma"
	IndicatorTypeSuperTrend     IndicatorType = "supertrend"
	IndicatorTypeRangeFilter    IndicatorType = "range_filter"
	IndicatorTypeWaddahAttar    IndicatorType = "waddah_attar"
)

// MACDResult is the latest MACD line, signal line and histogram.
type MACDResult struct {
	MACD      float64 `yaml:"macd" json:"macd"`
	Signal    float64 `yaml:"signal" json:"signal"`
	Histogram float64 `yaml:"histogram" json:"histogram"`
}

// BollingerBandsResult holds the bands for the latest window.
type BollingerBandsResult struct {
	Middle    float64 `yaml:"middle" json:"middle"`
	Upper     float64 `yaml:"upper" json:"upper"`
	Lower     float64 `yaml:"lower" json:"lower"`
	Bandwidth float64 `yaml:"bandwidth" json:"bandwidth"`
}

// ADXResult holds the average directional index and its directional indicators.
type ADXResult struct {
	ADX     float64 `yaml:"adx" json:"adx"`
	PlusDI  float64 `yaml:"plus_di" json:"plus_di"`
	MinusDI float64 `yaml:"minus_di" json:"minus_di"`
}

// SuperTrendResult is the active SuperTrend line and its direction,
// 1 for an uptrend and -1 for a downtrend.
type SuperTrendResult struct {
	Value     float64 `yaml:"value" json:"value"`
	Direction int     `yaml:"direction" json:"direction"`
}

// RangeFilterResult is the latest range filter line with its smoothed range.
// Upward and Downward count the consecutive bars the filter rose or fell.
type RangeFilterResult struct {
	Filter      float64 `yaml:"filter" json:"filter"`
	SmoothRange float64 `yaml:"smooth_range" json:"smooth_range"`
	Upward      int     `yaml:"upward" json:"upward"`
	Downward    int     `yaml:"downward" json:"downward"`
}

// WaddahAttarResult holds the Waddah Attar Explosion components of the latest bar.
type WaddahAttarResult struct {
	MACD      float64 `yaml:"macd" json:"macd"`
	Signal    float64 `yaml:"signal" json:"signal"`
	Histogram float64 `yaml:"histogram" json:"histogram"`
	ATR       float64 `yaml:"atr" json:"atr"`
	Trend     float64 `yaml:"trend" json:"trend"`
	Explosion float64 `yaml:"explosion" json:"explosion"`
	DeadZone  float64 `yaml:"dead_zone" json:"dead_zone"`
}
