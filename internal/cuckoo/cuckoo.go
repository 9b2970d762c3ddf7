// Package cuckoo implements the k-table permutation-based Cuckoo hash that
// compactly represents the Sender's set: each cell stores only the right
// half of an element plus the hash index that placed it, so the left half is
// always recoverable from the cell's table/bin coordinates.
package cuckoo

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand"
	"sync"

	"github.com/momalab/psi-ndss2025/internal/arith"
	"github.com/momalab/psi-ndss2025/internal/errs"
	"github.com/momalab/psi-ndss2025/internal/logging"
	"github.com/momalab/psi-ndss2025/internal/xhash"
)

var log = logging.MustGetLogger("cuckoo")

// Indices is the result of probing the table for a value: its right half,
// the table it belongs to, and the h candidate bin indices.
type Indices struct {
	Right      uint64
	TableIndex uint64
	Bins       []uint64
}

// Kuckoo is the k-table permutation-based Cuckoo hash.
type Kuckoo struct {
	g       xhash.Hash
	hashes  []xhash.Hash
	values  [][]uint64
	hashIDs [][]uint64

	maxData   uint64
	invalid   uint64
	numHashes uint64
	threshold uint64
	sizeRight uint64
	maskRight uint64
}

// New builds a Kuckoo table with numHashes hash functions, numTables
// partitions each holding tableSize bins, an eviction threshold, and an
// element universe of values up to maxDataIn.
func New(numHashes, tableSize, maxDataIn, threshold, numTables uint64) *Kuckoo {
	k := &Kuckoo{
		numHashes: numHashes,
		threshold: threshold,
	}

	k.hashes = xhash.NewFamily(numHashes, tableSize, maxDataIn)
	k.g = xhash.NewSelector(numTables, maxDataIn)

	k.sizeRight = arith.Clog2(maxDataIn+1) - arith.Flog2(tableSize)
	k.maskRight = arith.ShiftLeft(1, k.sizeRight) - 1
	k.maxData = maxDataIn & k.maskRight
	k.invalid = k.maxData + 1

	k.values = make([][]uint64, numTables)
	k.hashIDs = make([][]uint64, numTables)
	for t := range k.values {
		k.values[t] = make([]uint64, tableSize)
		k.hashIDs[t] = make([]uint64, tableSize)
		for i := range k.values[t] {
			k.values[t][i] = k.invalid
			k.hashIDs[t][i] = numHashes
		}
	}
	return k
}

// NumHashes returns h, the number of placement hash functions.
func (k *Kuckoo) NumHashes() uint64 { return k.numHashes }

// Invalid returns the sentinel marking an empty cell.
func (k *Kuckoo) Invalid() uint64 { return k.invalid }

// NumTables returns the number of table partitions (the modulus of g).
func (k *Kuckoo) NumTables() uint64 { return k.g.Mod }

// TableSize returns the per-table bin count.
func (k *Kuckoo) TableSize() uint64 { return k.hashes[0].Mod }

// GetIndices probes the table for value, returning its right half, the
// table it is assigned to by the selector hash, and the h candidate bins.
func (k *Kuckoo) GetIndices(value uint64) Indices {
	xL := value >> k.sizeRight
	xR := value & k.maskRight
	tableIndex := k.g.Quick(value)

	bins := make([]uint64, k.numHashes)
	for i := uint64(0); i < k.numHashes; i++ {
		bins[i] = xL ^ k.hashes[i].Full(xR)
	}
	return Indices{Right: xR, TableIndex: tableIndex, Bins: bins}
}

// Table returns the raw right-half values for table t, read-only once
// insertion has completed; used by the PSI layer to build the CRT-packed
// ciphertext layout.
func (k *Kuckoo) Table(t uint64) []uint64 {
	return k.values[t]
}

// Insert places a single value, cascading evictions up to the threshold.
// It never migrates the element across tables: the selector hash fixes its
// table once and for all.
func (k *Kuckoo) Insert(value uint64) error {
	r := perCallRand()
	tableIndex := k.g.Quick(value)
	xL := value >> k.sizeRight
	xR := value & k.maskRight

	prevHash := k.numHashes
	for i := uint64(0); i < k.threshold && xR != k.invalid; i++ {
		var hashIndex uint64
		for {
			hashIndex = uint64(r.Int63n(int64(k.numHashes)))
			if hashIndex != prevHash {
				break
			}
		}
		prevHash = hashIndex

		binIndex := xL ^ k.hashes[hashIndex].Full(xR)
		k.hashIDs[tableIndex][binIndex], prevHash = prevHash, k.hashIDs[tableIndex][binIndex]
		k.values[tableIndex][binIndex], xR = xR, k.values[tableIndex][binIndex]

		if xR != k.invalid {
			xL = binIndex ^ k.hashes[prevHash].Full(xR)
		}
	}

	if xR != k.invalid {
		return errs.New(errs.KindCuckooOverflow, fmt.Sprintf("cuckoo: insertion of %d failed after %d evictions", value, k.threshold), nil)
	}
	return nil
}

// InsertSet inserts every element of set sequentially.
func (k *Kuckoo) InsertSet(set []uint64) error {
	for _, v := range set {
		if err := k.Insert(v); err != nil {
			return err
		}
	}
	return nil
}

// InsertSetParallel partitions set by selector hash across exactly
// NumTables workers, one per table, so writes to values/hashIDs never race:
// worker t only ever touches table t. Any worker reporting overflow yields
// one aggregated error after join.
func (k *Kuckoo) InsertSetParallel(set []uint64) error {
	numTables := k.NumTables()
	failures := make([]bool, numTables)

	var wg sync.WaitGroup
	for t := uint64(0); t < numTables; t++ {
		wg.Add(1)
		go func(t uint64) {
			defer wg.Done()
			r := perCallRand()
			for _, value := range set {
				if k.g.Quick(value) != t {
					continue
				}
				if err := k.insertIntoTable(t, value, r); err != nil {
					log.Warningf("cuckoo: worker %d overflowed: %v", t, err)
					failures[t] = true
					return
				}
			}
		}(t)
	}
	wg.Wait()

	for t, failed := range failures {
		if failed {
			return errs.New(errs.KindCuckooOverflow, fmt.Sprintf("cuckoo: batch insert failed on table %d", t), nil)
		}
	}
	return nil
}

func (k *Kuckoo) insertIntoTable(tableIndex, value uint64, r *mrand.Rand) error {
	xL := value >> k.sizeRight
	xR := value & k.maskRight

	prevHash := k.numHashes
	for i := uint64(0); i < k.threshold && xR != k.invalid; i++ {
		var hashIndex uint64
		for {
			hashIndex = uint64(r.Int63n(int64(k.numHashes)))
			if hashIndex != prevHash {
				break
			}
		}
		prevHash = hashIndex

		binIndex := xL ^ k.hashes[hashIndex].Full(xR)
		k.hashIDs[tableIndex][binIndex], prevHash = prevHash, k.hashIDs[tableIndex][binIndex]
		k.values[tableIndex][binIndex], xR = xR, k.values[tableIndex][binIndex]

		if xR != k.invalid {
			xL = binIndex ^ k.hashes[prevHash].Full(xR)
		}
	}

	if xR != k.invalid {
		return fmt.Errorf("exceeded threshold of %d evictions", k.threshold)
	}
	return nil
}

// WriteParams serialises the Cuckoo's parameters (not table contents):
// "max_data invalid h threshold size_right mask_right\n g\n H1\n ... Hh\n".
func (k *Kuckoo) WriteParams(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d %d %d %d %d %d\n", k.maxData, k.invalid, k.numHashes, k.threshold, k.sizeRight, k.maskRight); err != nil {
		return err
	}
	if err := k.g.Write(w); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\n"); err != nil {
		return err
	}
	for _, h := range k.hashes {
		if err := h.Write(w); err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// ReadParams parses a Cuckoo's parameters as written by WriteParams, and
// allocates fresh (empty) table storage sized from the recovered hash
// family: table size is hashes[0].Mod, table count is g.Mod.
func ReadParams(r io.Reader) (*Kuckoo, error) {
	br := bufio.NewReader(r)
	k := &Kuckoo{}

	if _, err := fmt.Fscan(br, &k.maxData, &k.invalid, &k.numHashes, &k.threshold, &k.sizeRight, &k.maskRight); err != nil {
		return nil, errs.New(errs.KindParameter, "cuckoo: failed to parse header", err)
	}
	g, err := xhash.Read(br)
	if err != nil {
		return nil, errs.New(errs.KindParameter, "cuckoo: failed to parse selector hash", err)
	}
	k.g = g

	k.hashes = make([]xhash.Hash, k.numHashes)
	for i := range k.hashes {
		h, err := xhash.Read(br)
		if err != nil {
			return nil, errs.New(errs.KindParameter, "cuckoo: failed to parse hash family", err)
		}
		k.hashes[i] = h
	}

	tableSize := k.hashes[0].Mod
	numTables := k.g.Mod
	k.values = make([][]uint64, numTables)
	k.hashIDs = make([][]uint64, numTables)
	for t := range k.values {
		k.values[t] = make([]uint64, tableSize)
		k.hashIDs[t] = make([]uint64, tableSize)
		for i := range k.values[t] {
			k.values[t][i] = k.invalid
			k.hashIDs[t][i] = k.numHashes
		}
	}
	return k, nil
}

func perCallRand() *mrand.Rand {
	var seed [8]byte
	_, _ = rand.Read(seed[:])
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}
