package psi

import (
	"reflect"
	"testing"

	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/cuckoo"
)

// runIntersection builds a Cuckoo table over senderSet, encrypts it under the
// Sender's key, then runs the full compute/recrypt/decrypt circuit for
// receiverSet and returns the recovered intersection.
func runIntersection(t *testing.T, senderSet, receiverSet []uint64, tableSize, numTables uint64, ti []uint64) []uint64 {
	t.Helper()

	const (
		numHashes = 4
		maxDepth  = 1024
		bitSize   = 32
	)
	maxData := (uint64(1) << bitSize) - 1

	senderCtx, err := NewContext(12, []int{27, 27, 27, 28}, nil, ti)
	if err != nil {
		t.Fatalf("sender NewContext: %v", err)
	}
	sender, err := GenerateKeys(senderCtx, false)
	if err != nil {
		t.Fatalf("sender GenerateKeys: %v", err)
	}

	receiverCtx, err := NewContext(12, []int{27, 27, 27, 28}, nil, ti)
	if err != nil {
		t.Fatalf("receiver NewContext: %v", err)
	}
	receiver, err := GenerateKeys(receiverCtx, true)
	if err != nil {
		t.Fatalf("receiver GenerateKeys: %v", err)
	}

	table := cuckoo.New(numHashes, tableSize, maxData, maxDepth, numTables)
	if err := table.InsertSet(senderSet); err != nil {
		t.Fatalf("InsertSet: %v", err)
	}

	crtParams := crt.NewParams(ti)

	encryptedTable, err := EncryptTable(table, crtParams, senderCtx, sender)
	if err != nil {
		t.Fatalf("EncryptTable: %v", err)
	}

	results, randoms, err := ComputeIntersection(receiverSet, table, encryptedTable, crtParams, 0, senderCtx, receiverCtx, sender, receiver)
	if err != nil {
		t.Fatalf("ComputeIntersection: %v", err)
	}

	finals, err := Recrypt(results, randoms, crtParams, 0, senderCtx, receiverCtx, sender, receiver)
	if err != nil {
		t.Fatalf("Recrypt: %v", err)
	}

	intersection, err := DecryptIntersection(finals, receiverSet, crtParams, receiverCtx, receiver)
	if err != nil {
		t.Fatalf("DecryptIntersection: %v", err)
	}
	return intersection
}

// TestIntersectionS1 mirrors scenario S1: a two-table 64-bin instance where
// the Receiver's query set partially overlaps the Sender's.
func TestIntersectionS1(t *testing.T) {
	senderSet := []uint64{1, 2, 3, 4, 5}
	receiverSet := []uint64{3, 5, 7}
	want := []uint64{3, 5}

	got := runIntersection(t, senderSet, receiverSet, 64, 2, []uint64{40961, 65537})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("intersection = %v, want %v", got, want)
	}
}

// TestIntersectionS2 mirrors scenario S2: a single-table (k=1) instance where
// the Receiver's one query exactly matches the Sender's one element.
func TestIntersectionS2(t *testing.T) {
	senderSet := []uint64{42}
	receiverSet := []uint64{42}
	want := []uint64{42}

	got := runIntersection(t, senderSet, receiverSet, 4, 1, []uint64{40961})
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("intersection = %v, want %v", got, want)
	}
}
