// Package sqlite persists bars, emitted signals and backtest reports.
// A single write connection in WAL mode keeps writers serialized while
// readers stay concurrent.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stock-advisor/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Store provides durable storage for the advisor.
type Store struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// New opens the database, enables WAL mode and creates the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single-writer pool; WAL readers do not block on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", dbPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol  TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			open    REAL    NOT NULL,
			high    REAL    NOT NULL,
			low     REAL    NOT NULL,
			close   REAL    NOT NULL,
			volume  REAL    NOT NULL,
			PRIMARY KEY (symbol, ts)
		);

		CREATE TABLE IF NOT EXISTS signals (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			signal     TEXT    NOT NULL,
			confidence REAL    NOT NULL,
			detail     TEXT    NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
		CREATE INDEX IF NOT EXISTS idx_signals_symbol_ts ON signals (symbol, ts);

		CREATE TABLE IF NOT EXISTS backtests (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol     TEXT    NOT NULL,
			strategy   TEXT    NOT NULL,
			report     TEXT    NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`)
	return err
}

// SaveBars upserts a batch of bars for a symbol in one transaction.
func (s *Store) SaveBars(ctx context.Context, symbol string, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	start := time.Now()
	for _, b := range bars {
		if _, err := stmt.Exec(symbol, b.Timestamp.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("[sqlite] committed %d bars for %s in %v", len(bars), symbol, time.Since(start))
	return nil
}

// LoadBars reads bars for a symbol with timestamps in (after, until],
// ordered ascending. A zero until means no upper bound.
func (s *Store) LoadBars(ctx context.Context, symbol string, after, until time.Time) ([]model.Bar, error) {
	untilUnix := int64(1<<62 - 1)
	if !until.IsZero() {
		untilUnix = until.Unix()
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND ts > ? AND ts <= ?
		ORDER BY ts ASC
	`, symbol, after.Unix(), untilUnix)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var tsUnix int64
		if err := rows.Scan(&tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bar: %w", err)
		}
		b.Timestamp = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LastBarTime returns the newest stored bar timestamp for a symbol.
// Returns the zero time if no bars exist.
func (s *Store) LastBarTime(ctx context.Context, symbol string) (time.Time, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM bars WHERE symbol = ?`, symbol,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// SaveResult stores an aggregated analysis result for a symbol.
func (s *Store) SaveResult(ctx context.Context, symbol string, at time.Time, res *model.AggregatedResult) error {
	detail, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO signals (symbol, ts, signal, confidence, detail)
		VALUES (?, ?, ?, ?, ?)
	`, symbol, at.Unix(), string(res.FinalSignal), res.Confidence, string(detail))
	if err != nil {
		return fmt.Errorf("sqlite insert signal: %w", err)
	}
	return nil
}

// StoredResult is a persisted analysis result with its emission time.
type StoredResult struct {
	Symbol string                 `json:"symbol"`
	At     time.Time              `json:"at"`
	Result model.AggregatedResult `json:"result"`
}

// RecentResults loads the latest stored results for a symbol, newest first.
func (s *Store) RecentResults(ctx context.Context, symbol string, limit int) ([]StoredResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, detail FROM signals
		WHERE symbol = ?
		ORDER BY ts DESC LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query signals: %w", err)
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var tsUnix int64
		var detail string
		if err := rows.Scan(&tsUnix, &detail); err != nil {
			return nil, fmt.Errorf("sqlite scan signal: %w", err)
		}
		sr := StoredResult{Symbol: symbol, At: time.Unix(tsUnix, 0).UTC()}
		if err := json.Unmarshal([]byte(detail), &sr.Result); err != nil {
			return nil, fmt.Errorf("unmarshal signal detail: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// SaveReport stores a backtest report for later inspection.
func (s *Store) SaveReport(ctx context.Context, symbol string, report *model.BacktestReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO backtests (symbol, strategy, report) VALUES (?, ?, ?)
	`, symbol, report.Strategy, string(data))
	if err != nil {
		return fmt.Errorf("sqlite insert backtest: %w", err)
	}

	// Keep the table from growing without bound.
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM backtests WHERE id NOT IN
		(SELECT id FROM backtests ORDER BY created_at DESC LIMIT 200)
	`); err != nil {
		log.Printf("[sqlite] prune backtests warning: %v", err)
	}
	return nil
}

// LatestReport loads the most recent backtest report for a symbol and
// strategy. Returns nil if none exists.
func (s *Store) LatestReport(ctx context.Context, symbol, strategyName string) (*model.BacktestReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT report FROM backtests
		WHERE symbol = ? AND strategy = ?
		ORDER BY created_at DESC LIMIT 1
	`, symbol, strategyName).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite read backtest: %w", err)
	}

	var report model.BacktestReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
