package tokenledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "usage.json")
	store := NewFileStore(path)

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load before first save: %v", err)
	}
	if loaded != nil {
		t.Fatal("missing file should load as nil aggregate")
	}

	aggregate := newAggregate()
	aggregate.TotalCalls = 3
	aggregate.TotalCost = 0.42
	aggregate.ByModel["gpt-4o-mini"] = &ModelTotals{Calls: 3, InputTokens: 100}
	aggregate.UpdatedAt = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	if err := store.Save(aggregate); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err = store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TotalCalls != 3 || loaded.TotalCost != 0.42 {
		t.Fatalf("roundtrip mismatch: %+v", loaded)
	}
	if loaded.ByModel["gpt-4o-mini"].InputTokens != 100 {
		t.Fatal("per-model totals did not survive the roundtrip")
	}

	// No temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file was not renamed away")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(); err == nil {
		t.Fatal("expected parse error for corrupt file")
	}
}
