// Package store persists the per-day active-time counter in SQLite.
//
// The daily_logs table is the single shared resource between tick
// invocations and the publisher daemon; all mutation goes through
// UpsertToday, whose compare-and-swap guard serializes concurrent
// writers so two near-simultaneous ticks can never both apply a delta
// on top of the same prior total.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	werrors "git.home.luguber.info/inful/worktracker/internal/errors"
)

// DateLayout is the calendar-date key format (local timezone).
const DateLayout = "2006-01-02"

var (
	// ErrNotFound is returned when no DailyLog exists for a date.
	ErrNotFound = errors.New("daily log not found")

	// ErrMonotonicity is returned when a write would decrease the
	// stored total for a date. This indicates a logic bug upstream and
	// is never silently clamped.
	ErrMonotonicity = errors.New("total active time may not decrease")

	// ErrConcurrentUpdate is returned when another invocation modified
	// the row between the caller's read and its write. The caller does
	// not retry; the next scheduled tick self-heals.
	ErrConcurrentUpdate = errors.New("daily log modified concurrently")
)

// DailyLog is one row per calendar date.
type DailyLog struct {
	Date        string
	TotalActive time.Duration
	LastUpdate  time.Time
}

// TotalActiveSeconds returns the total as whole seconds.
func (l DailyLog) TotalActiveSeconds() int64 {
	return int64(l.TotalActive / time.Second)
}

// Store owns DailyLog persistence.
type Store struct {
	db *sql.DB
}

// New opens (and creates if necessary) the SQLite database at dbPath.
// Use ":memory:" for an in-memory database in tests.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, werrors.StoreError(err, "create database directory")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, werrors.StoreError(err, "open sqlite database")
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, werrors.StoreError(err, "initialize schema")
	}

	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS daily_logs (
		date TEXT PRIMARY KEY,
		total_active_seconds INTEGER NOT NULL DEFAULT 0 CHECK (total_active_seconds >= 0),
		last_update INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetToday returns the row for the local calendar date of now,
// atomically creating a zero-valued row if none exists. A freshly
// created row carries last_update = now, so the first tick of a day
// accrues nothing.
func (s *Store) GetToday(ctx context.Context, now time.Time) (DailyLog, error) {
	date := now.Local().Format(DateLayout)

	// INSERT OR IGNORE is atomic against the PRIMARY KEY, so two
	// invocations racing on a fresh date cannot create two rows.
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO daily_logs (date, total_active_seconds, last_update) VALUES (?, 0, ?)",
		date, now.Unix(),
	)
	if err != nil {
		return DailyLog{}, werrors.StoreError(err, "create daily log")
	}

	log, err := s.getLog(ctx, date)
	if err != nil {
		return DailyLog{}, werrors.StoreError(err, "read daily log")
	}
	return log, nil
}

// UpsertToday writes a new total for the local calendar date of now.
//
// prior is the total the caller read from GetToday and acts as the
// optimistic concurrency token: the write only applies if the stored
// total still equals it. A total below prior is rejected with
// ErrMonotonicity; a row changed underneath the caller is rejected
// with ErrConcurrentUpdate.
func (s *Store) UpsertToday(ctx context.Context, now time.Time, total, prior time.Duration) error {
	if total < prior {
		return werrors.StoreError(
			fmt.Errorf("%w: %v -> %v", ErrMonotonicity, prior, total),
			"reject decreasing total")
	}

	date := now.Local().Format(DateLayout)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_logs (date, total_active_seconds, last_update) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_active_seconds = excluded.total_active_seconds,
			last_update = excluded.last_update
		WHERE daily_logs.total_active_seconds = ?`,
		date, int64(total/time.Second), now.Unix(), int64(prior/time.Second),
	)
	if err != nil {
		return werrors.StoreError(err, "upsert daily log")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return werrors.StoreError(err, "upsert daily log")
	}
	if affected == 0 {
		return werrors.StoreError(
			fmt.Errorf("%w: date %s", ErrConcurrentUpdate, date),
			"upsert daily log")
	}
	return nil
}

// GetLog returns the row for a specific date, or ErrNotFound.
func (s *Store) GetLog(ctx context.Context, date string) (DailyLog, error) {
	log, err := s.getLog(ctx, date)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DailyLog{}, err
		}
		return DailyLog{}, werrors.StoreError(err, "read daily log")
	}
	return log, nil
}

func (s *Store) getLog(ctx context.Context, date string) (DailyLog, error) {
	var totalSeconds, lastUpdate int64
	err := s.db.QueryRowContext(ctx,
		"SELECT total_active_seconds, last_update FROM daily_logs WHERE date = ?",
		date,
	).Scan(&totalSeconds, &lastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return DailyLog{}, fmt.Errorf("%w: %s", ErrNotFound, date)
	}
	if err != nil {
		return DailyLog{}, fmt.Errorf("query daily log: %w", err)
	}
	return DailyLog{
		Date:        date,
		TotalActive: time.Duration(totalSeconds) * time.Second,
		LastUpdate:  time.Unix(lastUpdate, 0).Local(),
	}, nil
}

// PruneBefore deletes rows older than the cutoff date and reports how
// many were removed. Used by the daemon's daily maintenance job.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM daily_logs WHERE date < ?",
		cutoff.Local().Format(DateLayout),
	)
	if err != nil {
		return 0, werrors.StoreError(err, "prune daily logs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, werrors.StoreError(err, "prune daily logs")
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
