package crt

import "testing"

func TestRoundTrip(t *testing.T) {
	c := NewParams([]uint64{40961, 65537})
	v := []uint64{3, 5, 7, 11, 0, 1}
	packed := c.Encode(v)
	if len(packed) != 3 {
		t.Fatalf("Encode produced %d entries, want 3", len(packed))
	}
	got, err := c.Decode(packed)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range v {
		if got[i] != v[i] {
			t.Fatalf("round-trip mismatch at %d: got %d, want %d", i, got[i], v[i])
		}
	}
}

func TestDegenerateSingleModulus(t *testing.T) {
	c := NewParams([]uint64{97})
	v := []uint64{5, 10, 42, 96}
	packed := c.Encode(v)
	for i, p := range packed {
		if p != v[i] {
			t.Fatalf("k=1 Encode should be identity, got %d want %d", p, v[i])
		}
	}
	got, err := c.Decode(packed)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range v {
		if got[i] != v[i] {
			t.Fatalf("k=1 round-trip mismatch at %d: got %d, want %d", i, got[i], v[i])
		}
	}
}

func TestDecodeCheckedRejectsBadLength(t *testing.T) {
	c := NewParams([]uint64{40961, 65537})
	_, err := c.DecodeChecked([]uint64{1, 2, 3}, 5)
	if err == nil {
		t.Fatal("expected an error for a length not a multiple of k")
	}
	if got := errKind(err); got != "parameter-error" {
		t.Fatalf("unexpected error kind: %v", got)
	}
}

func errKind(err error) string {
	type kinder interface{ Error() string }
	if e, ok := err.(kinder); ok {
		return e.Error()[:len("parameter-error")]
	}
	return ""
}
