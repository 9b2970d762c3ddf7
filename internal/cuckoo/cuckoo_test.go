package cuckoo

import (
	"bytes"
	"testing"

	"github.com/momalab/psi-ndss2025/internal/errs"
)

func TestInsertAndRecover(t *testing.T) {
	k := New(4, 64, (1<<20)-1, 1024, 2)
	set := []uint64{1, 2, 3, 4, 5}
	if err := k.InsertSet(set); err != nil {
		t.Fatalf("InsertSet: %v", err)
	}

	for _, x := range set {
		idx := k.GetIndices(x)
		found := false
		for _, b := range idx.Bins {
			if k.Table(idx.TableIndex)[b] == idx.Right {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("element %d not recoverable from its own indices", x)
		}
	}
}

func TestInsertSetParallelPartitionsByTable(t *testing.T) {
	k := New(4, 1024, (1<<32)-1, 1024, 2)
	set := make([]uint64, 0, 1000)
	for i := uint64(0); i < 1000; i++ {
		set = append(set, i*2654435761+12345)
	}
	if err := k.InsertSetParallel(set); err != nil {
		t.Fatalf("InsertSetParallel: %v", err)
	}
	for _, x := range set {
		idx := k.GetIndices(x)
		found := false
		for _, b := range idx.Bins {
			if k.Table(idx.TableIndex)[b] == idx.Right {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("element %d not recoverable after parallel insert", x)
		}
	}
}

func TestOverflowReportsCuckooOverflow(t *testing.T) {
	k := New(2, 2, 15, 0, 1)
	err := k.InsertSet([]uint64{1, 2, 3, 4, 5})
	if err == nil {
		t.Fatal("expected overflow with threshold 0 and a near-full tiny table")
	}
	if kind := errs.KindOf(err); kind != errs.KindCuckooOverflow {
		t.Fatalf("error kind = %v, want %v", kind, errs.KindCuckooOverflow)
	}
}

func TestParamsRoundTrip(t *testing.T) {
	k := New(4, 64, (1<<20)-1, 1024, 2)

	var buf bytes.Buffer
	if err := k.WriteParams(&buf); err != nil {
		t.Fatalf("WriteParams: %v", err)
	}
	original := buf.String()

	k2, err := ReadParams(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if k2.NumHashes() != k.NumHashes() || k2.NumTables() != k.NumTables() || k2.TableSize() != k.TableSize() {
		t.Fatal("round-tripped parameters do not match")
	}

	var buf2 bytes.Buffer
	if err := k2.WriteParams(&buf2); err != nil {
		t.Fatalf("WriteParams (2nd): %v", err)
	}
	if buf2.String() != original {
		t.Fatalf("serialise->parse->serialise mismatch:\n%q\n%q", original, buf2.String())
	}
}
