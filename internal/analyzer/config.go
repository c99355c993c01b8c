package analyzer

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/market-analyzer/internal/indicator"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
)

// Point values of the individual signals. A confidence is the mean of the
// points of every signal that could be computed.
const (
	MABase  = 60.0
	MACap   = 80.0
	MAScale = 5.0

	RSIPoints       = 15.0
	MACDPoints      = 20.0
	BollingerPoints = 20.0

	DefaultWindowSize       = 20
	DefaultNeutralThreshold = 10.0
)

// AnalysisConfig holds the indicator parameters used by an Analyzer.
type AnalysisConfig struct {
	// WindowSize is the moving average window. Analysis needs twice as many bars.
	WindowSize          int     `yaml:"window_size" json:"window_size" jsonschema:"default=20" validate:"gte=1"`
	RSIPeriod           int     `yaml:"rsi_period" json:"rsi_period" jsonschema:"default=14" validate:"gte=1"`
	RSIOversold         float64 `yaml:"rsi_oversold" json:"rsi_oversold" jsonschema:"default=30" validate:"gte=0,ltfield=RSIOverbought"`
	RSIOverbought       float64 `yaml:"rsi_overbought" json:"rsi_overbought" jsonschema:"default=70" validate:"lte=100"`
	MACDFast            int     `yaml:"macd_fast" json:"macd_fast" jsonschema:"default=12" validate:"gte=1,ltfield=MACDSlow"`
	MACDSlow            int     `yaml:"macd_slow" json:"macd_slow" jsonschema:"default=26" validate:"gte=1"`
	MACDSignal          int     `yaml:"macd_signal" json:"macd_signal" jsonschema:"default=9" validate:"gte=1"`
	BollingerPeriod     int     `yaml:"bollinger_period" json:"bollinger_period" jsonschema:"default=20" validate:"gte=1"`
	BollingerMultiplier float64 `yaml:"bollinger_multiplier" json:"bollinger_multiplier" jsonschema:"default=2" validate:"gte=0"`
	// NeutralThreshold is the absolute confidence under which the trend is neutral.
	NeutralThreshold float64 `yaml:"neutral_threshold" json:"neutral_threshold" jsonschema:"default=10" validate:"gte=0"`
}

// DefaultAnalysisConfig returns the textbook parameters.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		WindowSize:          DefaultWindowSize,
		RSIPeriod:           indicator.DefaultRSIPeriod,
		RSIOversold:         30,
		RSIOverbought:       70,
		MACDFast:            indicator.DefaultMACDFastPeriod,
		MACDSlow:            indicator.DefaultMACDSlowPeriod,
		MACDSignal:          indicator.DefaultMACDSignalPeriod,
		BollingerPeriod:     indicator.DefaultBollingerPeriod,
		BollingerMultiplier: indicator.DefaultBollingerMultiplier,
		NeutralThreshold:    DefaultNeutralThreshold,
	}
}

// Validate checks the configuration.
func (c AnalysisConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid analysis configuration", err)
	}

	return nil
}
