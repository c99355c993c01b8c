// Package mockserver provides a mock Binance klines server for testing the
// market data providers over real HTTP.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rxtech-lab/market-analyzer/pkg/marketdata/simulation"
)

const (
	// DefaultLimit is the page size Binance uses when no limit is given.
	DefaultLimit = 500
	// MaxLimit is the largest page Binance serves.
	MaxLimit = 1000
)

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// InitialPrices maps symbol to the open of the first generated bar.
	InitialPrices map[string]float64
	// Seed makes the generated klines reproducible.
	Seed int64
	// FailRequests makes the first N klines requests fail with a 500.
	FailRequests int
}

// MockBinanceServer serves generated klines the way the Binance spot API does.
type MockBinanceServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	prices       map[string]float64
	seed         int64
	failRequests int
	requests     []KlinesRequest
}

// KlinesRequest is a klines request the server received.
type KlinesRequest struct {
	ID        string
	Symbol    string
	Interval  string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
}

// NewMockBinanceServer creates a new mock Binance server.
func NewMockBinanceServer(config ServerConfig) *MockBinanceServer {
	server := &MockBinanceServer{
		mu:           sync.RWMutex{},
		prices:       make(map[string]float64),
		seed:         config.Seed,
		failRequests: config.FailRequests,
	}

	for symbol, price := range config.InitialPrices {
		server.prices[symbol] = price
	}

	return server
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBinanceServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/ping", s.handlePing).Methods("GET")
	router.HandleFunc("/api/v3/klines", s.handleKlines).Methods("GET")

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBinanceServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Address returns the address the server is listening on.
func (s *MockBinanceServer) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *MockBinanceServer) BaseURL() string {
	return "http://" + s.Address()
}

// SetPrice sets the first open for a symbol.
func (s *MockBinanceServer) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prices[symbol] = price
}

// Requests returns the klines requests received so far, failed ones included.
func (s *MockBinanceServer) Requests() []KlinesRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]KlinesRequest, len(s.requests))
	copy(result, s.requests)

	return result
}

func (s *MockBinanceServer) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte("{}"))
}

// handleKlines handles GET /api/v3/klines
func (s *MockBinanceServer) handleKlines(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	symbol := query.Get("symbol")
	interval := query.Get("interval")

	if symbol == "" || interval == "" {
		writeBinanceError(w, http.StatusBadRequest, -1102, "Mandatory parameter was not sent")

		return
	}

	intervalDuration := ParseInterval(interval)
	if intervalDuration == 0 {
		writeBinanceError(w, http.StatusBadRequest, -1120, "Invalid interval.")

		return
	}

	limit := DefaultLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > MaxLimit {
			writeBinanceError(w, http.StatusBadRequest, -1100, "Illegal characters found in parameter 'limit'.")

			return
		}

		limit = parsed
	}

	startTime := parseMillis(query.Get("startTime"), time.Now().Add(-time.Duration(limit)*intervalDuration))
	endTime := parseMillis(query.Get("endTime"), time.Now())

	s.mu.Lock()
	s.requests = append(s.requests, KlinesRequest{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Interval:  interval,
		StartTime: startTime,
		EndTime:   endTime,
		Limit:     limit,
	})

	shouldFail := s.failRequests > 0
	if shouldFail {
		s.failRequests--
	}

	initialPrice := s.prices[symbol]
	s.mu.Unlock()

	if shouldFail {
		writeBinanceError(w, http.StatusInternalServerError, -1000, "An unknown error occurred while processing the request.")

		return
	}

	if initialPrice == 0 {
		initialPrice = 100.0
	}

	// align the first bar to the interval grid like Binance does
	first := startTime.Truncate(intervalDuration)
	if first.Before(startTime) {
		first = first.Add(intervalDuration)
	}

	count := 0
	if !first.After(endTime) {
		count = int(endTime.Sub(first)/intervalDuration) + 1
	}

	if count > limit {
		count = limit
	}

	config := simulation.DefaultConfig()
	config.Symbol = symbol
	config.StartTime = first
	config.Interval = intervalDuration
	config.Count = count
	config.InitialPrice = initialPrice

	// the same window always yields the same klines
	data := simulation.NewGenerator(s.seed ^ first.UnixMilli()).Generate(config)

	// Binance kline format: [openTime, open, high, low, close, volume, closeTime, ...]
	klines := make([][]any, 0, len(data))
	for _, d := range data {
		closeTime := d.Time.Add(intervalDuration).UnixMilli() - 1
		klines = append(klines, []any{
			d.Time.UnixMilli(),
			strconv.FormatFloat(d.Open, 'f', 8, 64),
			strconv.FormatFloat(d.High, 'f', 8, 64),
			strconv.FormatFloat(d.Low, 'f', 8, 64),
			strconv.FormatFloat(d.Close, 'f', 8, 64),
			strconv.FormatFloat(d.Volume, 'f', 8, 64),
			closeTime,
			"0", // quote asset volume
			0,   // number of trades
			"0", // taker buy base asset volume
			"0", // taker buy quote asset volume
			"0",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(klines)
}

func writeBinanceError(w http.ResponseWriter, status int, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": message})
}

func parseMillis(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return time.UnixMilli(ms).UTC()
}

// ParseInterval parses a Binance interval string to a duration.
func ParseInterval(interval string) time.Duration {
	if len(interval) < 2 {
		return 0
	}

	num, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || num <= 0 {
		return 0
	}

	switch interval[len(interval)-1:] {
	case "s":
		return time.Duration(num) * time.Second
	case "m":
		return time.Duration(num) * time.Minute
	case "h":
		return time.Duration(num) * time.Hour
	case "d":
		return time.Duration(num) * 24 * time.Hour
	case "w":
		return time.Duration(num) * 7 * 24 * time.Hour
	case "M":
		return time.Duration(num) * 30 * 24 * time.Hour
	default:
		return 0
	}
}
