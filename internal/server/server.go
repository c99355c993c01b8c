// Package server exposes the analyzer, backtester and sentiment aggregator as
// a JSON HTTP API.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rxtech-lab/market-analyzer/internal/analyzer"
	"github.com/rxtech-lab/market-analyzer/internal/backtest"
	"github.com/rxtech-lab/market-analyzer/internal/indicator"
	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/recorder"
	"github.com/rxtech-lab/market-analyzer/internal/sentiment"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"go.uber.org/zap"
)

const (
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes = 10 << 20
	// RequestIDHeader carries the request id on every response.
	RequestIDHeader = "X-Request-ID"

	shutdownTimeout = 5 * time.Second
)

// Config configures the HTTP API.
type Config struct {
	Address  string
	Analysis analyzer.AnalysisConfig
	// Backtest supplies the defaults for fields a backtest request leaves out.
	Backtest backtest.Config
}

// Server is the HTTP API. Create it with NewServer.
type Server struct {
	config     Config
	analyzer   *analyzer.Analyzer
	sentiment  *sentiment.Aggregator
	registry   indicator.IndicatorRegistry
	recorder   recorder.Recorder
	logger     *logger.Logger
	router     *mux.Router
	httpServer *http.Server
	listener   net.Listener
}

// NewServer validates config and registers the routes. A nil recorder
// disables recording and serves an empty history.
func NewServer(config Config, rec recorder.Recorder, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	if err := config.Backtest.Validate(); err != nil {
		return nil, err
	}

	trendAnalyzer, err := analyzer.NewAnalyzer(config.Analysis, log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    config,
		analyzer:  trendAnalyzer,
		sentiment: sentiment.NewAggregator(log),
		registry:  indicator.NewDefaultRegistry(),
		recorder:  rec,
		logger:    log.Named("server"),
	}

	s.router = s.routes()

	return s, nil
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestID, s.logRequests)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/backtest", s.handleBacktest).Methods(http.MethodPost)
	api.HandleFunc("/sentiment", s.handleSentiment).Methods(http.MethodPost)
	api.HandleFunc("/indicators", s.handleListIndicators).Methods(http.MethodGet)
	api.HandleFunc("/indicators", s.handleIndicatorReadings).Methods(http.MethodPost)
	api.HandleFunc("/strategies", s.handleListStrategies).Methods(http.MethodGet)
	api.HandleFunc("/history/{symbol}", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/providers", s.handleListProviders).Methods(http.MethodGet)
	api.HandleFunc("/providers/{provider}/schema", s.handleProviderSchema).Methods(http.MethodGet)

	// mux skips router middleware when no route matches
	router.NotFoundHandler = s.requestID(s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.Newf(errors.ErrCodeDataNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})))
	router.MethodNotAllowedHandler = s.requestID(s.logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Code:    errors.ErrCodeInvalidParameter,
			Message: fmt.Sprintf("method %s is not allowed for %s", r.Method, r.URL.Path),
		})
	})))

	return router
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background.
// An empty address or ":0" picks a free port.
func (s *Server) Start() error {
	address := s.config.Address
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("HTTP server started", zap.String("address", listener.Addr().String()))

	return nil
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Close shuts the server down.
func (s *Server) Close() error {
	return s.Shutdown(context.Background())
}
