// Package store keeps the attempt journal for the running session in an
// in-memory SQLite database. Nothing is written to disk.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/verte-zerg/strafe/internal/judge"
	"github.com/verte-zerg/strafe/internal/machine"
	"github.com/verte-zerg/strafe/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// memoryDSN names a private in-memory database. It lives as long as its one
// connection.
const memoryDSN = ":memory:"

// Store wraps SQLite access for journaled attempts.
type Store struct {
	db *sql.DB
}

// OpenMemory creates an empty in-memory journal.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", memoryDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// Each new connection would see its own empty database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return store, nil
}

// Close closes the underlying database, discarding the journal.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			at TEXT NOT NULL,
			original INTEGER NOT NULL,
			counter INTEGER NOT NULL,
			hold_ns INTEGER NOT NULL,
			measured INTEGER NOT NULL,
			quality TEXT NOT NULL,
			message TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_direction ON attempts(original, counter);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// measured reports whether an attempt carries a real hold time. Both-keys
// mistakes complete before any counter hold exists.
func measured(a model.Attempt) bool {
	return a.Message != machine.MessageBothKeys
}

// InsertAttempt journals one completed attempt.
func (s *Store) InsertAttempt(ctx context.Context, a model.Attempt) error {
	m := 0
	if measured(a) {
		m = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, at, original, counter, hold_ns, measured, quality, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID,
		a.At.UTC().Format(time.RFC3339Nano),
		int(a.Original),
		int(a.Counter),
		int64(a.Hold),
		m,
		a.Quality.String(),
		a.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert attempt: %w", err)
	}
	return nil
}

// Count returns the number of journaled attempts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}

// DirectionBreakdown aggregates attempts per original→counter direction.
// BestHold is the measured hold closest to the optimal hold.
func (s *Store) DirectionBreakdown(ctx context.Context) ([]model.DirectionAggregate, error) {
	query := `SELECT a.original, a.counter, COUNT(*),
		SUM(a.quality = 'perfect'), SUM(a.quality = 'good'), SUM(a.quality = 'failed'),
		COALESCE(AVG(CASE WHEN a.measured = 1 THEN a.hold_ns END), 0),
		COALESCE((
			SELECT b.hold_ns FROM attempts b
			WHERE b.original = a.original AND b.counter = a.counter AND b.measured = 1
			ORDER BY ABS(b.hold_ns - ?) ASC, b.id ASC
			LIMIT 1
		), 0)
	FROM attempts a
	GROUP BY a.original, a.counter
	ORDER BY a.original, a.counter`

	rows, err := s.db.QueryContext(ctx, query, int64(judge.OptimalHold))
	if err != nil {
		return nil, fmt.Errorf("failed to query direction breakdown: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DirectionAggregate
	for rows.Next() {
		var (
			agg               model.DirectionAggregate
			original, counter int
			avg               float64
			best              int64
		)
		if err := rows.Scan(&original, &counter, &agg.Attempts, &agg.Perfect, &agg.Good, &agg.Failed, &avg, &best); err != nil {
			return nil, err
		}
		agg.Original = model.StrafeKey(original)
		agg.Counter = model.StrafeKey(counter)
		agg.AvgHold = time.Duration(avg)
		agg.BestHold = time.Duration(best)
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RecentAttempts returns up to n attempts, oldest first.
func (s *Store) RecentAttempts(ctx context.Context, n int) ([]model.Attempt, error) {
	if n <= 0 {
		return nil, nil
	}
	query := `SELECT run_id, at, original, counter, hold_ns, quality, message FROM (
		SELECT id, run_id, at, original, counter, hold_ns, quality, message
		FROM attempts ORDER BY id DESC LIMIT ?
	) ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Attempt
	for rows.Next() {
		var (
			a                 model.Attempt
			at, quality       string
			original, counter int
			hold              int64
		)
		if err := rows.Scan(&a.RunID, &at, &original, &counter, &hold, &quality, &a.Message); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		q, err := model.ParseQuality(quality)
		if err != nil {
			return nil, err
		}
		a.At = parsed
		a.Original = model.StrafeKey(original)
		a.Counter = model.StrafeKey(counter)
		a.Hold = time.Duration(hold)
		a.Quality = q
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// RecentHolds returns up to n measured hold times, oldest first.
func (s *Store) RecentHolds(ctx context.Context, n int) ([]time.Duration, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT hold_ns FROM (
		SELECT id, hold_ns FROM attempts WHERE measured = 1 ORDER BY id DESC LIMIT ?
	) ORDER BY id ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query holds: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var holds []time.Duration
	for rows.Next() {
		var ns int64
		if err := rows.Scan(&ns); err != nil {
			return nil, err
		}
		holds = append(holds, time.Duration(ns))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}

// Reset deletes every journaled attempt.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempts`); err != nil {
		return fmt.Errorf("failed to reset journal: %w", err)
	}
	return nil
}
