// Package xhash implements the 4-coefficient double-modular universal hash
// family used by the Cuckoo table: a "full" hash for placement and a
// correlated "quick" hash for table selection.
package xhash

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	mrand "math/rand"

	lru "github.com/hashicorp/golang-lru"

	"github.com/momalab/psi-ndss2025/internal/arith"
)

// Hash is a single member of the family: four coefficients, a modulus, an
// (almost always prime) working modulus and a seed.
type Hash struct {
	Coeffs []uint64
	Mod    uint64
	Prime  uint64
	Seed   uint64
}

// Full evaluates the "full" hash: sufficiently uniform and uncorrelated
// across distinct family members sharing the same Mod.
func (h Hash) Full(value uint64) uint64 {
	return (((h.Coeffs[3]*(value^h.Seed)+h.Coeffs[2])%h.Prime)*h.Coeffs[1] + h.Coeffs[0]) % h.Mod
}

// Quick evaluates the cheaper, correlated variant used for table selection.
func (h Hash) Quick(value uint64) uint64 {
	return ((value^h.Seed)*h.Coeffs[1] + h.Coeffs[0]) % h.Mod
}

// Write serialises the hash as "count c0 c1 ... mod prime seed",
// whitespace-separated, matching the text format the Cuckoo persists.
func (h Hash) Write(w io.Writer) error {
	if len(h.Coeffs) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%d", len(h.Coeffs)); err != nil {
		return err
	}
	for _, c := range h.Coeffs {
		if _, err := fmt.Fprintf(w, " %d", c); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, " %d %d %d", h.Mod, h.Prime, h.Seed)
	return err
}

// Read parses a hash from the "count c0 c1 ... mod prime seed" text format.
func Read(r io.Reader) (Hash, error) {
	var h Hash
	var count uint64
	if _, err := fmt.Fscan(r, &count); err != nil {
		return h, err
	}
	h.Coeffs = make([]uint64, count)
	for i := range h.Coeffs {
		if _, err := fmt.Fscan(r, &h.Coeffs[i]); err != nil {
			return h, err
		}
	}
	if _, err := fmt.Fscan(r, &h.Mod, &h.Prime, &h.Seed); err != nil {
		return h, err
	}
	return h, nil
}

// primeCache memoizes generatePrime(min) results across the many near-duplicate
// calls a single family construction makes (several hashes frequently land on
// the same candidate range), avoiding repeat big.Int primality search.
var primeCache, _ = lru.New(256)

func cachedGeneratePrime(min uint64) uint64 {
	if v, ok := primeCache.Get(min); ok {
		return v.(uint64)
	}
	p := arith.GeneratePrime(min)
	primeCache.Add(min, p)
	return p
}

// rng returns a per-call PRNG seeded from the OS entropy source, so that
// concurrent family constructions never share mutable RNG state.
func rng() *mrand.Rand {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failure is not recovered from: the seed keeps whatever
		// bytes rand.Read left in the buffer (zero-initialised).
		big.NewInt(0).SetBytes(seed[:])
	}
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

// NewFamily builds numHashes hashes sharing table modulus tableSize, per the
// construction recipe: distinct primes each drawn as
// nextprime(tableSize^2 + U[0,tableSize)), rejecting duplicates; a seed drawn
// from [0,maxData]; c0 from [0,tableSize); c2 = nextprime(U[0,prime)); c3
// from [0,prime); c1 a prime in [0,tableSize) not dividing tableSize.
func NewFamily(numHashes, tableSize, maxData uint64) []Hash {
	r := rng()
	minValue := tableSize * tableSize

	hashes := make([]Hash, 0, numHashes)
	seen := make(map[uint64]bool, numHashes)
	for uint64(len(hashes)) < numHashes {
		prime := cachedGeneratePrime(minValue + uint64(r.Int63n(int64(tableSize))))
		if seen[prime] {
			continue
		}
		seen[prime] = true

		seed := uint64(r.Int63n(int64(maxData) + 1))
		c0 := uint64(r.Int63n(int64(tableSize)))
		c2 := arith.GeneratePrime(uint64(r.Int63n(int64(prime))))
		c3 := uint64(r.Int63n(int64(prime)))

		var c1 uint64
		for {
			c1 = arith.GeneratePrime(uint64(r.Int63n(int64(tableSize))))
			if c1 < tableSize && tableSize%c1 != 0 {
				break
			}
		}

		hashes = append(hashes, Hash{
			Coeffs: []uint64{c0, c1, c2, c3},
			Mod:    tableSize,
			Prime:  prime,
			Seed:   seed,
		})
	}
	return hashes
}

// NewSelector builds the table-selector hash g, a quick-only hash with
// modulus numTables. Its Prime field is set to numTables itself (not
// necessarily prime) since only Quick is ever called on it.
func NewSelector(numTables, maxData uint64) Hash {
	r := rng()
	seed := uint64(r.Int63n(int64(maxData) + 1))

	c0 := uint64(r.Int63n(int64(numTables)))
	c1 := arith.GeneratePrime(uint64(r.Int63n(int64(numTables))))
	for numTables%c1 == 0 {
		// c1 divided numTables; resample by chaining off the rejected
		// candidate itself rather than drawing a fresh one.
		c1 = arith.GeneratePrime(c1)
	}

	return Hash{
		Coeffs: []uint64{c0, c1, 0, 1},
		Mod:    numTables,
		Prime:  numTables,
		Seed:   seed,
	}
}
