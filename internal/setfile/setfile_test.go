package setfile

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.txt")
	orig := []uint64{1, 2, 3, 42, 1000000}
	if err := Save(path, orig); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(orig) {
		t.Fatalf("Load returned %d entries, want %d", len(got), len(orig))
	}
	for i := range orig {
		if got[i] != orig[i] {
			t.Fatalf("entry %d = %d, want %d", i, got[i], orig[i])
		}
	}
}

func TestGenerateRandomDistinctAndBounded(t *testing.T) {
	set := GenerateRandom(50, 8)
	if len(set) != 50 {
		t.Fatalf("len = %d, want 50", len(set))
	}
	seen := map[uint64]bool{}
	for _, v := range set {
		if v > 255 {
			t.Fatalf("value %d exceeds 8-bit bound", v)
		}
		if seen[v] {
			t.Fatalf("duplicate value %d", v)
		}
		seen[v] = true
	}
}

func TestGenerateFromSourceOnlyDrawsKnownValues(t *testing.T) {
	source := []uint64{10, 20, 30}
	set := GenerateFromSource(3, 6, source, 1.0)
	if len(set) != 3 {
		t.Fatalf("len = %d, want 3", len(set))
	}
	for _, v := range set {
		found := false
		for _, s := range source {
			if v == s {
				found = true
			}
		}
		if !found {
			t.Fatalf("value %d not drawn from source", v)
		}
	}
}
