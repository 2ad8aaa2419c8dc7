// Package ledger records the results of simulation runs.
//
// A ledger stores what a run produced (pulse totals, press counts, answers),
// keyed by run ID and by circuit digest. It never stores module state; every
// run starts from a freshly initialized circuit.
//
// Implementations: MemoryStore for tests, SQLiteStore for a local file and
// RedisStore for a ledger shared between machines.
package ledger

import (
	"errors"
	"time"
)

// Run modes.
const (
	ModeFixed = "fixed"
	ModeUntil = "until"
)

// Record is the outcome of one completed run.
type Record struct {
	RunID  string `json:"run_id"`
	Mode   string `json:"mode"`
	Digest string `json:"digest"`
	// Target is the watched terminal for ModeUntil runs.
	Target string `json:"target,omitempty"`

	// Presses is the number of presses executed (ModeFixed) or the press at
	// which the terminal first received Low (ModeUntil).
	Presses int `json:"presses"`
	Low     int `json:"low"`
	High    int `json:"high"`
	// Answer is Low*High for ModeFixed and Presses for ModeUntil.
	Answer int `json:"answer"`
	// Accelerated is true when the answer came from feeder periods rather
	// than simulating every press.
	Accelerated bool `json:"accelerated,omitempty"`

	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// Store persists run records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record, replacing any record with the same RunID.
	Save(rec Record) error

	// Load retrieves a record by run ID.
	// Returns ErrNotFound if no such record exists.
	Load(runID string) (Record, error)

	// List returns records for a circuit digest ordered by save time, oldest
	// first. An empty digest lists every record. Returns an empty slice (not
	// error) when nothing matches.
	List(digest string) ([]Record, error)

	// Delete removes a record. Returns nil if it doesn't exist.
	Delete(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for ledger operations.
var (
	// ErrNotFound indicates a record doesn't exist.
	ErrNotFound = errors.New("ledger record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("ledger store closed")

	// ErrMissingRunID indicates a record without a run ID.
	ErrMissingRunID = errors.New("ledger record has no run ID")
)
