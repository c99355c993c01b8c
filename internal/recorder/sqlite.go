package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/rxtech-lab/market-analyzer/internal/logger"
	"github.com/rxtech-lab/market-analyzer/internal/types"
	"github.com/rxtech-lab/market-analyzer/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logger.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeRecorderFailed, err, "failed to open sqlite database %s", dbPath)
	}

	// a single connection keeps ":memory:" databases shared between calls
	db.SetMaxOpenConns(1)

	// WAL mode lets readers query the file while the analyzer writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to set WAL mode", err)
	}

	r := &SQLiteRecorder{db: db, logger: log.Named("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()

		return nil, err
	}

	r.logger.Info("SQLite recorder opened", zap.String("path", dbPath))

	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			analyzed_at INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			trend       TEXT NOT NULL,
			current_ma  REAL,
			previous_ma REAL,
			difference  REAL,
			window_size INTEGER,
			confidence  REAL,
			source      TEXT,
			indicators  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, analyzed_at)`,

		`CREATE TABLE IF NOT EXISTS backtests (
			id              TEXT PRIMARY KEY,
			recorded_at     INTEGER NOT NULL,
			executed_at     INTEGER NOT NULL,
			symbol          TEXT,
			strategy        TEXT,
			initial_capital REAL,
			final_capital   REAL,
			total_return    REAL,
			total_trades    INTEGER,
			winning_trades  INTEGER,
			losing_trades   INTEGER,
			win_rate        REAL,
			max_drawdown    REAL,
			total_fees      REAL,
			source          TEXT,
			trades          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtests_symbol_ts ON backtests(symbol, executed_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return errors.Wrapf(errors.ErrCodeRecorderFailed, err, "failed to migrate: %s", s[:40])
		}
	}

	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, result types.MarketAnalysisResult) error {
	indicators, err := json.Marshal(result.Indicators)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to encode indicators", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT INTO analyses
		(recorded_at, analyzed_at, symbol, trend, current_ma, previous_ma, difference,
		 window_size, confidence, source, indicators)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().UnixNano(), result.AnalyzedAt.UnixNano(), result.Symbol, string(result.Trend),
		result.CurrentMA, result.PreviousMA, result.Difference,
		result.WindowSize, result.Confidence, string(result.Source), string(indicators),
	)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeRecorderFailed, err, "failed to record analysis for %s", result.Symbol)
	}

	r.logger.Debug("Analysis recorded", zap.String("symbol", result.Symbol), zap.String("trend", string(result.Trend)))

	return nil
}

func (r *SQLiteRecorder) RecordBacktest(ctx context.Context, result types.BacktestResult) error {
	trades, err := json.Marshal(result.Trades)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to encode trades", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `INSERT OR REPLACE INTO backtests
		(id, recorded_at, executed_at, symbol, strategy, initial_capital, final_capital,
		 total_return, total_trades, winning_trades, losing_trades, win_rate,
		 max_drawdown, total_fees, source, trades)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		result.ID, time.Now().UnixNano(), result.Timestamp.UnixNano(), result.Symbol, result.Strategy,
		result.InitialCapital, result.FinalCapital, result.TotalReturn,
		result.TotalTrades, result.WinningTrades, result.LosingTrades, result.WinRate,
		result.MaxDrawdown, result.TotalFees, string(result.Source), string(trades),
	)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeRecorderFailed, err, "failed to record backtest %s", result.ID)
	}

	return nil
}

func (r *SQLiteRecorder) ListAnalyses(ctx context.Context, symbol string, limit int) ([]types.MarketAnalysisResult, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT analyzed_at, symbol, trend, current_ma, previous_ma, difference,
		window_size, confidence, source, indicators
		FROM analyses`
	args := []any{}

	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}

	query += ` ORDER BY analyzed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list analyses", err)
	}
	defer rows.Close()

	results := []types.MarketAnalysisResult{}

	for rows.Next() {
		var (
			result     types.MarketAnalysisResult
			analyzedAt int64
			trend      string
			source     string
			indicators string
		)

		if err := rows.Scan(&analyzedAt, &result.Symbol, &trend, &result.CurrentMA, &result.PreviousMA,
			&result.Difference, &result.WindowSize, &result.Confidence, &source, &indicators); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan analysis", err)
		}

		if err := json.Unmarshal([]byte(indicators), &result.Indicators); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to decode indicators", err)
		}

		result.AnalyzedAt = time.Unix(0, analyzedAt).UTC()
		result.Trend = types.Trend(trend)
		result.Source = types.DataSource(source)
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate analyses", err)
	}

	return results, nil
}

// CountBacktests returns the number of stored backtests for symbol, or all
// backtests when symbol is empty.
func (r *SQLiteRecorder) CountBacktests(ctx context.Context, symbol string) (int, error) {
	query := `SELECT COUNT(*) FROM backtests`
	args := []any{}

	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count backtests", err)
	}

	return count, nil
}

func (r *SQLiteRecorder) Close() error {
	if err := r.db.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to close sqlite database", err)
	}

	return nil
}
