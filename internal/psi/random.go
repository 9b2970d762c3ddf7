package psi

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"

	"github.com/momalab/psi-ndss2025/internal/arith"
)

// newRand returns a per-call PRNG seeded from OS entropy, so the masking and
// rotation randomness used by concurrent query workers never shares mutable
// state: each concurrent path that needs randomness instantiates its
// own per-thread RNG").
func newRand() *mrand.Rand {
	var seed [8]byte
	_, _ = rand.Read(seed[:])
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

// randomVector draws n values uniform in [min, max].
func randomVector(r *mrand.Rand, n int, min, max uint64) []uint64 {
	v := make([]uint64, n)
	span := int64(max-min) + 1
	for i := range v {
		v[i] = min + uint64(r.Int63n(span))
	}
	return v
}

// randomVectorCoprime draws n values uniform in [min, max], rejecting any
// candidate divisible by one of moduli — used for the recrypt-stage masking
// random that must stay nonzero mod every CRT component.
func randomVectorCoprime(r *mrand.Rand, n int, min, max uint64, moduli []uint64) []uint64 {
	v := make([]uint64, n)
	span := int64(max-min) + 1
	for i := range v {
		for {
			v[i] = min + uint64(r.Int63n(span))
			if arith.AreCoprime(append([]uint64{v[i]}, moduli...)) {
				break
			}
		}
	}
	return v
}
