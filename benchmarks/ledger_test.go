package benchmarks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph"
	"github.com/randalmurphal/pulsegraph/pkg/pulsegraph/ledger"
)

func sampleRecord(runID string) ledger.Record {
	return ledger.Record{
		RunID:       runID,
		Mode:        ledger.ModeUntil,
		Digest:      "5f3c9a1e",
		Target:      "rx",
		Presses:     1155,
		Low:         40000,
		High:        30000,
		Answer:      1155,
		Accelerated: true,
		Duration:    3 * time.Millisecond,
		Timestamp:   time.Now(),
	}
}

// BenchmarkMemoryStore_Save measures in-memory record save.
func BenchmarkMemoryStore_Save(b *testing.B) {
	store := ledger.NewMemoryStore()
	rec := sampleRecord("run-1")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(rec)
	}
}

// BenchmarkSQLiteStore_Save measures SQLite record save.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store := createSQLiteStore(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(sampleRecord(moduleID(i % 100)))
	}
}

// BenchmarkSQLiteStore_List measures listing 100 records of one digest.
func BenchmarkSQLiteStore_List(b *testing.B) {
	store := createSQLiteStore(b)
	for i := 0; i < 100; i++ {
		_ = store.Save(sampleRecord(moduleID(i)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.List("5f3c9a1e")
	}
}

// BenchmarkRun_WithLedger measures a fixed run that records its result.
func BenchmarkRun_WithLedger(b *testing.B) {
	circuit := mustBuild(b, counterLoop)
	store := createSQLiteStore(b)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = circuit.RunFixed(ctx, 1000, pulsegraph.WithLedger(store))
	}
}

func createSQLiteStore(b *testing.B) *ledger.SQLiteStore {
	b.Helper()
	store, err := ledger.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = store.Close() })
	return store
}
