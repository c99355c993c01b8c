// Package recorder keeps a history of analyses and backtests.
package recorder

import (
	"context"

	"github.com/rxtech-lab/market-analyzer/internal/types"
)

// DefaultListLimit is used when ListAnalyses is called with a non-positive limit.
const DefaultListLimit = 100

// Recorder persists analysis results for later review.
type Recorder interface {
	// RecordAnalysis stores a trend analysis snapshot.
	RecordAnalysis(ctx context.Context, result types.MarketAnalysisResult) error
	// RecordBacktest stores a backtest result with its trades.
	RecordBacktest(ctx context.Context, result types.BacktestResult) error
	// ListAnalyses returns the most recent analyses for symbol, newest first.
	// An empty symbol lists every symbol.
	ListAnalyses(ctx context.Context, symbol string, limit int) ([]types.MarketAnalysisResult, error)
	Close() error
}
