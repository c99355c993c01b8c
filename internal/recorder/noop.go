package recorder

import (
	"context"

	"github.com/rxtech-lab/market-analyzer/internal/types"
)

// NoopRecorder discards everything. It is used when recording is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (NoopRecorder) RecordAnalysis(context.Context, types.MarketAnalysisResult) error { return nil }

func (NoopRecorder) RecordBacktest(context.Context, types.BacktestResult) error { return nil }

func (NoopRecorder) ListAnalyses(context.Context, string, int) ([]types.MarketAnalysisResult, error) {
	return []types.MarketAnalysisResult{}, nil
}

func (NoopRecorder) Close() error { return nil }
