// Package stats persists collection statistics to a SQLite database so a
// VM's collection history can be inspected after the run.
package stats

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/picovm/vm"
)

// Recorder appends one row per collection cycle to a SQLite database.
// It is safe to share a Recorder between VMs; rows carry no VM identity.
type Recorder struct {
	db *sql.DB
	mu sync.Mutex
}

// Entry is one recorded collection cycle.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Before    int
	Collected int
	Live      int
	Threshold int
	Duration  time.Duration
}

// Totals aggregates the whole recorded history.
type Totals struct {
	Cycles    int64
	Collected int64
}

// Open opens (creating if needed) the stats database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening stats database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		at          INTEGER NOT NULL,
		before      INTEGER NOT NULL,
		collected   INTEGER NOT NULL,
		live        INTEGER NOT NULL,
		threshold   INTEGER NOT NULL,
		duration_us INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating collections table: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Record appends one collection's stats.
func (r *Recorder) Record(s vm.CollectStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		`INSERT INTO collections (at, before, collected, live, threshold, duration_us)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.Timestamp.UnixMicro(), s.Before, s.Collected, s.Live, s.Threshold,
		s.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording collection: %w", err)
	}
	return nil
}

// Hook returns a collect hook that records every cycle, suitable for
// vm.SetCollectHook. Recording errors are reported through errFn when it is
// non-nil, and otherwise dropped.
func (r *Recorder) Hook(errFn func(error)) func(vm.CollectStats) {
	return func(s vm.CollectStats) {
		if err := r.Record(s); err != nil && errFn != nil {
			errFn(err)
		}
	}
}

// Recent returns up to n most recent entries, newest first.
func (r *Recorder) Recent(n int) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(
		`SELECT id, at, before, collected, live, threshold, duration_us
		 FROM collections ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at, durationUS int64
		if err := rows.Scan(&e.ID, &at, &e.Before, &e.Collected, &e.Live,
			&e.Threshold, &durationUS); err != nil {
			return nil, fmt.Errorf("scanning collection row: %w", err)
		}
		e.Timestamp = time.UnixMicro(at)
		e.Duration = time.Duration(durationUS) * time.Microsecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading collection rows: %w", err)
	}
	return entries, nil
}

// History returns the aggregate totals over all recorded cycles.
func (r *Recorder) History() (Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var t Totals
	err := r.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(collected), 0) FROM collections`,
	).Scan(&t.Cycles, &t.Collected)
	if err != nil {
		return Totals{}, fmt.Errorf("aggregating collections: %w", err)
	}
	return t, nil
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
