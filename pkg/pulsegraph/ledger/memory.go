package ledger

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory ledger for tests and one-shot runs.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]storedRecord
	seq     int
	closed  bool
}

// storedRecord keeps insertion order for List.
type storedRecord struct {
	rec      Record
	sequence int
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]storedRecord),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(rec Record) error {
	if rec.RunID == "" {
		return ErrMissingRunID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.seq++
	m.records[rec.RunID] = storedRecord{rec: rec, sequence: m.seq}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(runID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	stored, ok := m.records[runID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return stored.rec, nil
}

// List implements Store.
func (m *MemoryStore) List(digest string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	matched := make([]storedRecord, 0, len(m.records))
	for _, stored := range m.records {
		if digest == "" || stored.rec.Digest == digest {
			matched = append(matched, stored)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].sequence < matched[j].sequence
	})

	out := make([]Record, len(matched))
	for i, stored := range matched {
		out[i] = stored.rec
	}
	return out, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.records, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.records = nil
	return nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records)
}
