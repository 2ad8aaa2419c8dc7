package ledger

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists run records to SQLite.
// It is suitable for single-process use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a ledger database.
// The path should be a file path (e.g., "./ledger.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			sequence INTEGER NOT NULL,
			mode TEXT NOT NULL,
			digest TEXT NOT NULL,
			target TEXT NOT NULL,
			presses INTEGER NOT NULL,
			low INTEGER NOT NULL,
			high INTEGER NOT NULL,
			answer INTEGER NOT NULL,
			accelerated INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_runs_digest
		ON runs(digest)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(rec Record) error {
	if rec.RunID == "" {
		return ErrMissingRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, sequence, mode, digest, target, presses, low, high,
			answer, accelerated, duration_ns, timestamp)
		VALUES (
			?,
			COALESCE((SELECT MAX(sequence) FROM runs), 0) + 1,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
		ON CONFLICT(run_id) DO UPDATE SET
			sequence = (SELECT MAX(sequence) FROM runs) + 1,
			mode = excluded.mode,
			digest = excluded.digest,
			target = excluded.target,
			presses = excluded.presses,
			low = excluded.low,
			high = excluded.high,
			answer = excluded.answer,
			accelerated = excluded.accelerated,
			duration_ns = excluded.duration_ns,
			timestamp = excluded.timestamp
	`, rec.RunID, rec.Mode, rec.Digest, rec.Target, rec.Presses, rec.Low, rec.High,
		rec.Answer, boolToInt(rec.Accelerated), int64(rec.Duration),
		rec.Timestamp.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(runID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT run_id, mode, digest, target, presses, low, high, answer,
			accelerated, duration_ns, timestamp
		FROM runs
		WHERE run_id = ?
	`, runID)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load record: %w", err)
	}
	return rec, nil
}

// List implements Store.
func (s *SQLiteStore) List(digest string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT run_id, mode, digest, target, presses, low, high, answer,
			accelerated, duration_ns, timestamp
		FROM runs
		WHERE ? = '' OR digest = ?
		ORDER BY sequence
	`, digest, digest)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec         Record
		accelerated int64
		durationNs  int64
		timestamp   string
	)
	if err := row.Scan(&rec.RunID, &rec.Mode, &rec.Digest, &rec.Target,
		&rec.Presses, &rec.Low, &rec.High, &rec.Answer,
		&accelerated, &durationNs, &timestamp); err != nil {
		return Record{}, err
	}
	rec.Accelerated = accelerated != 0
	rec.Duration = time.Duration(durationNs)
	rec.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
