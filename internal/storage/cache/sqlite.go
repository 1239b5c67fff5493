package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/newthinker/straddle/internal/core"
)

const dateFormat = "2006-01-02"

// SQLiteStore is the file-backed Store implementation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the sqlite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}

	// sqlite serializes writers itself; a single connection avoids
	// SQLITE_BUSY churn from this process.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS earnings (
			ticker        TEXT NOT NULL,
			earnings_date TEXT NOT NULL,
			earnings_time TEXT NOT NULL,
			fetched_at    TIMESTAMP NOT NULL,
			PRIMARY KEY (ticker, earnings_date)
		)`,
		`CREATE TABLE IF NOT EXISTS options_chain (
			ticker       TEXT NOT NULL,
			start_date   TEXT NOT NULL,
			from_date    TEXT NOT NULL,
			to_date      TEXT NOT NULL,
			symbols_json TEXT NOT NULL,
			fetched_at   TIMESTAMP NOT NULL,
			PRIMARY KEY (ticker, start_date, from_date, to_date)
		)`,
		`CREATE TABLE IF NOT EXISTS pre_earnings_performance (
			ticker        TEXT NOT NULL,
			earnings_date TEXT NOT NULL,
			offset_days   INTEGER NOT NULL,
			change_pct    REAL NOT NULL,
			logged_at     TIMESTAMP NOT NULL,
			PRIMARY KEY (ticker, earnings_date, offset_days)
		)`,
		`CREATE TABLE IF NOT EXISTS post_earnings_performance (
			ticker        TEXT NOT NULL,
			earnings_date TEXT NOT NULL,
			offset_days   INTEGER NOT NULL,
			change_pct    REAL NOT NULL,
			logged_at     TIMESTAMP NOT NULL,
			PRIMARY KEY (ticker, earnings_date, offset_days)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return core.WrapError(core.ErrStoreFailed, fmt.Errorf("migrating: %w", err))
		}
	}
	return nil
}

// Earnings returns cached events for a ticker fetched within maxAge.
func (s *SQLiteStore) Earnings(ctx context.Context, ticker string, maxAge time.Duration) ([]core.EarningsEvent, error) {
	cutoff := time.Now().Add(-maxAge)

	rows, err := s.db.QueryContext(ctx,
		`SELECT earnings_date, earnings_time FROM earnings
		 WHERE ticker = ? AND fetched_at > ?
		 ORDER BY earnings_date DESC`,
		ticker, cutoff)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var events []core.EarningsEvent
	for rows.Next() {
		var dateStr, timing string
		if err := rows.Scan(&dateStr, &timing); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		date, err := time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, fmt.Errorf("bad earnings_date %q: %w", dateStr, err))
		}
		events = append(events, core.EarningsEvent{
			Ticker: ticker,
			Date:   date,
			Timing: core.Timing(timing),
		})
	}
	return events, rows.Err()
}

// SaveEarnings upserts events, stamping them with the current time.
func (s *SQLiteStore) SaveEarnings(ctx context.Context, events []core.EarningsEvent) error {
	now := time.Now()
	for _, e := range events {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO earnings (ticker, earnings_date, earnings_time, fetched_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (ticker, earnings_date) DO UPDATE SET
			   earnings_time = excluded.earnings_time,
			   fetched_at    = excluded.fetched_at`,
			e.Ticker, e.Date.Format(dateFormat), string(e.Timing), now)
		if err != nil {
			return core.WrapError(core.ErrStoreFailed, err)
		}
	}
	return nil
}

// Chain returns cached option symbols for a key fetched within maxAge.
func (s *SQLiteStore) Chain(ctx context.Context, key ChainKey, maxAge time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-maxAge)

	var symbolsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT symbols_json FROM options_chain
		 WHERE ticker = ? AND start_date = ? AND from_date = ? AND to_date = ? AND fetched_at > ?`,
		key.Ticker, key.AsOf.Format(dateFormat), key.From.Format(dateFormat),
		key.To.Format(dateFormat), cutoff).Scan(&symbolsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}

	var symbols []string
	if err := json.Unmarshal([]byte(symbolsJSON), &symbols); err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, fmt.Errorf("bad symbols_json: %w", err))
	}
	return symbols, nil
}

// SaveChain upserts the option symbols for a key.
func (s *SQLiteStore) SaveChain(ctx context.Context, key ChainKey, symbols []string) error {
	data, err := json.Marshal(symbols)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO options_chain (ticker, start_date, from_date, to_date, symbols_json, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (ticker, start_date, from_date, to_date) DO UPDATE SET
		   symbols_json = excluded.symbols_json,
		   fetched_at   = excluded.fetched_at`,
		key.Ticker, key.AsOf.Format(dateFormat), key.From.Format(dateFormat),
		key.To.Format(dateFormat), string(data), time.Now())
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// SavePerformance upserts one sample into the pre or post table.
func (s *SQLiteStore) SavePerformance(ctx context.Context, side Side, sample core.PerformanceSample) error {
	table, err := performanceTable(side)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+table+` (ticker, earnings_date, offset_days, change_pct, logged_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (ticker, earnings_date, offset_days) DO UPDATE SET
		   change_pct = excluded.change_pct,
		   logged_at  = excluded.logged_at`,
		sample.Ticker, sample.EarningsDate.Format(dateFormat),
		sample.OffsetDays, sample.ChangePct, sample.LoggedAt)
	if err != nil {
		return core.WrapError(core.ErrStoreFailed, err)
	}
	return nil
}

// Performance returns persisted samples for a ticker, newest earnings first.
func (s *SQLiteStore) Performance(ctx context.Context, side Side, ticker string) ([]core.PerformanceSample, error) {
	table, err := performanceTable(side)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT earnings_date, offset_days, change_pct, logged_at FROM `+table+`
		 WHERE ticker = ? ORDER BY earnings_date DESC`, ticker)
	if err != nil {
		return nil, core.WrapError(core.ErrStoreFailed, err)
	}
	defer rows.Close()

	var samples []core.PerformanceSample
	for rows.Next() {
		var (
			dateStr string
			sample  = core.PerformanceSample{Ticker: ticker}
		)
		if err := rows.Scan(&dateStr, &sample.OffsetDays, &sample.ChangePct, &sample.LoggedAt); err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, err)
		}
		date, err := time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, core.WrapError(core.ErrStoreFailed, fmt.Errorf("bad earnings_date %q: %w", dateStr, err))
		}
		sample.EarningsDate = date
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func performanceTable(side Side) (string, error) {
	switch side {
	case SidePre:
		return "pre_earnings_performance", nil
	case SidePost:
		return "post_earnings_performance", nil
	}
	return "", core.WrapError(core.ErrStoreFailed, fmt.Errorf("unknown performance side %q", side))
}
