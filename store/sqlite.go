// Package store persists fetched candles in SQLite. The schema mirrors the
// upstream collectors: one row per instrument+timestamp, inserts are
// idempotent so re-collecting an overlapping range is safe.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/alphapulse/market"
)

// Store is a SQLite-backed candle store. It is a single-writer store; set
// up one Store per process.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the candle database at path with WAL journaling
// and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Put inserts candles in a single transaction. Rows whose timestamp is
// already stored are ignored, so duplicate fetches do not error. It returns
// the number of newly inserted rows.
func (s *Store) Put(ctx context.Context, instrument string, candles []market.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO candles_m15 (instrument, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range candles {
		res, err := stmt.ExecContext(ctx, instrument, c.Time.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("store: insert %s: %w", c.Time, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return inserted, nil
}

// Load returns all stored candles for an instrument ordered by timestamp.
func (s *Store) Load(ctx context.Context, instrument string) ([]market.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM candles_m15
		WHERE instrument = ?
		ORDER BY ts`, instrument)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var candles []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		c.Time = c.Time.UTC()
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// LastTimestamp returns the newest stored candle time for an instrument, or
// the zero time when nothing is stored. Collectors use it to resume an
// interrupted historical download.
func (s *Store) LastTimestamp(ctx context.Context, instrument string) (time.Time, error) {
	var ts sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM candles_m15 WHERE instrument = ?`, instrument,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: last timestamp: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time.UTC(), nil
}

// Count returns the number of stored candles for an instrument.
func (s *Store) Count(ctx context.Context, instrument string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candles_m15 WHERE instrument = ?`, instrument,
	).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
