package store

import (
	"testing"

	"github.com/momalab/psi-ndss2025/internal/cuckoo"
)

type fakeKey struct {
	data []byte
}

func (k *fakeKey) MarshalBinary() ([]byte, error) {
	return append([]byte(nil), k.data...), nil
}

func (k *fakeKey) UnmarshalBinary(data []byte) error {
	k.data = append([]byte(nil), data...)
	return nil
}

func TestSaveLoadKeyRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	orig := &fakeKey{data: []byte("some key material")}
	if err := s.SaveKey("sender_secret", orig); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	got := &fakeKey{}
	if err := s.LoadKey("sender_secret", got); err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if string(got.data) != string(orig.data) {
		t.Fatalf("LoadKey = %q, want %q", got.data, orig.data)
	}
}

func TestSaveLoadKeySealedRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	orig := &fakeKey{data: []byte("top secret key bytes")}
	passphrase := []byte("correct horse battery staple")
	if err := s.SaveKeySealed("receiver_secret", orig, passphrase); err != nil {
		t.Fatalf("SaveKeySealed: %v", err)
	}
	got := &fakeKey{}
	if err := s.LoadKeySealed("receiver_secret", got, passphrase); err != nil {
		t.Fatalf("LoadKeySealed: %v", err)
	}
	if string(got.data) != string(orig.data) {
		t.Fatalf("LoadKeySealed = %q, want %q", got.data, orig.data)
	}
}

func TestSaveLoadTableParamsRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table := cuckoo.New(4, 64, 1<<20, 200, 2)
	if err := s.SaveTable("F", table, nil); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	loaded, cells, err := s.LoadTable("F")
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(cells) != 0 {
		t.Fatalf("expected 0 cells, got %d", len(cells))
	}
	if loaded.NumHashes() != table.NumHashes() || loaded.NumTables() != table.NumTables() {
		t.Fatalf("loaded table params mismatch")
	}
}

func TestLoadKeySealedRejectsWrongPassphrase(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	orig := &fakeKey{data: []byte("top secret key bytes")}
	if err := s.SaveKeySealed("receiver_secret", orig, []byte("right")); err != nil {
		t.Fatalf("SaveKeySealed: %v", err)
	}
	got := &fakeKey{}
	if err := s.LoadKeySealed("receiver_secret", got, []byte("wrong")); err == nil {
		t.Fatal("expected error for wrong passphrase")
	}
}
