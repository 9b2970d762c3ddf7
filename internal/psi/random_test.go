package psi

import (
	"testing"

	"github.com/momalab/psi-ndss2025/internal/arith"
)

func TestRandomVectorBounds(t *testing.T) {
	r := newRand()
	v := randomVector(r, 1000, 5, 9)
	for _, x := range v {
		if x < 5 || x > 9 {
			t.Fatalf("randomVector produced %d outside [5,9]", x)
		}
	}
}

func TestRandomVectorCoprimeAvoidsModuli(t *testing.T) {
	r := newRand()
	moduli := []uint64{40961, 65537}
	v := randomVectorCoprime(r, 200, 1, 1000000, moduli)
	for _, x := range v {
		for _, m := range moduli {
			if x%m == 0 {
				t.Fatalf("randomVectorCoprime produced %d, divisible by modulus %d", x, m)
			}
		}
		if !arith.AreCoprime(append([]uint64{x}, moduli...)) {
			t.Fatalf("randomVectorCoprime produced %d, not coprime to moduli", x)
		}
	}
}

func TestDummyValueOutsideRightHalfDomain(t *testing.T) {
	if dummyValue(4) != 6 {
		t.Fatalf("dummyValue(4) = %d, want 6", dummyValue(4))
	}
}
