package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/market-analyzer/internal/backtest"
	"github.com/rxtech-lab/market-analyzer/internal/backtest/commission_fee"
	"github.com/rxtech-lab/market-analyzer/internal/indicator"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/internal/version"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata"
	"go.uber.org/zap"
)

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Symbol string `json:"symbol"`
	// WindowSize defaults to the configured window when zero.
	WindowSize int                `json:"window_size"`
	Data       []types.MarketData `json:"data"`
}

// BacktestRequest is the body of POST /api/v1/backtest. Omitted account
// fields fall back to the server's backtest config.
type BacktestRequest struct {
	Symbol         string                `json:"symbol"`
	Strategy       string                `json:"strategy"`
	Params         map[string]float64    `json:"params"`
	InitialCapital float64               `json:"initial_capital"`
	FeePercent     *float64              `json:"fee_percent"`
	Broker         commission_fee.Broker `json:"broker"`
	Data           []types.MarketData    `json:"data"`
}

// SentimentRequest is the body of POST /api/v1/sentiment.
type SentimentRequest struct {
	Inputs []types.SentimentInput `json:"inputs"`
}

// IndicatorsRequest is the body of POST /api/v1/indicators.
type IndicatorsRequest struct {
	Data []types.MarketData `json:"data"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type indicatorsResponse struct {
	Indicators []types.IndicatorType `json:"indicators"`
}

type strategiesResponse struct {
	Strategies []string `json:"strategies"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: version.GetVersion()})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)

		return
	}

	windowSize := req.WindowSize
	if windowSize == 0 {
		windowSize = s.analyzer.Config().WindowSize
	}

	result, err := s.analyzer.AnalyzeWithWindow(req.Data, windowSize)
	if err != nil {
		writeError(w, err)

		return
	}

	if req.Symbol != "" {
		result.Symbol = req.Symbol
	}

	if err := s.recorder.RecordAnalysis(r.Context(), result); err != nil {
		s.logger.Error("Failed to record analysis", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)

		return
	}

	config := s.config.Backtest
	if req.InitialCapital != 0 {
		config.InitialCapital = req.InitialCapital
	}

	if req.FeePercent != nil {
		config.FeePercent = *req.FeePercent
	}

	if req.Broker != "" {
		config.Broker = req.Broker
	}

	strategy := req.Strategy
	params := req.Params

	if strategy == "" {
		strategy = config.Strategy
		params = config.StrategyParams
	}

	backtester, err := backtest.NewBacktester(config, s.logger)
	if err != nil {
		writeError(w, err)

		return
	}

	result, err := backtester.RunNamed(req.Data, strategy, params)
	if err != nil {
		writeError(w, err)

		return
	}

	if req.Symbol != "" {
		result.Symbol = req.Symbol
	}

	if err := s.recorder.RecordBacktest(r.Context(), result); err != nil {
		s.logger.Error("Failed to record backtest", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req SentimentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)

		return
	}

	result, err := s.sentiment.Analyze(req.Inputs)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListIndicators(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indicatorsResponse{Indicators: s.registry.ListIndicators()})
}

func (s *Server) handleIndicatorReadings(w http.ResponseWriter, r *http.Request) {
	var req IndicatorsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)

		return
	}

	readings, err := indicator.LatestReadings(s.registry, req.Data)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, readings)
}

func (s *Server) handleListStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, strategiesResponse{Strategies: backtest.AvailableStrategies()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, errors.Newf(errors.ErrCodeInvalidParameter, "limit must be a non-negative integer, got %q", raw))

			return
		}

		limit = parsed
	}

	results, err := s.recorder.ListAnalyses(r.Context(), symbol, limit)
	if err != nil {
		writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, marketdata.GetAllProviderInfo())
}

func (s *Server) handleProviderSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := marketdata.GetDownloadConfigSchema(mux.Vars(r)["provider"])
	if err != nil {
		writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(schema))
}
