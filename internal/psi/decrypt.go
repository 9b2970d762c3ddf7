package psi

import (
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/momalab/psi-ndss2025/internal/crt"
)

// DecryptIntersection is the Receiver's role: decrypt every final
// ciphertext, CRT-decode it, and mark a query as intersecting if any entry
// decrypts to zero. The returned set preserves receiverSet's order.
func DecryptIntersection(finals [][]*rlwe.Ciphertext, receiverSet []uint64, c crt.Params, ctx *Context, receiver *Keys) ([]uint64, error) {
	flag := make([]bool, len(receiverSet))
	for i := range finals {
		marked, err := anyZeroSlot(finals[i], c, ctx, receiver)
		if err != nil {
			return nil, err
		}
		flag[i] = marked
	}
	return collectIntersection(receiverSet, flag), nil
}

// DecryptIntersectionParallel is DecryptIntersection with an outer pool
// across queries.
func DecryptIntersectionParallel(finals [][]*rlwe.Ciphertext, receiverSet []uint64, c crt.Params, ctx *Context, receiver *Keys, numThreads int) ([]uint64, error) {
	flag := make([]bool, len(receiverSet))

	outerThreads := numThreads
	if outerThreads > len(finals) {
		outerThreads = len(finals)
	}
	if outerThreads < 1 {
		outerThreads = 1
	}

	errCh := make(chan error, outerThreads)
	var wg sync.WaitGroup
	for t := 0; t < outerThreads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			for i := t; i < len(finals); i += outerThreads {
				marked, err := anyZeroSlot(finals[i], c, ctx, receiver)
				if err != nil {
					errCh <- err
					return
				}
				flag[i] = marked
			}
		}(t)
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return nil, err
	}
	return collectIntersection(receiverSet, flag), nil
}

func anyZeroSlot(finals []*rlwe.Ciphertext, c crt.Params, ctx *Context, receiver *Keys) (bool, error) {
	for _, final := range finals {
		values, err := packDecrypt(final, c, ctx, receiver)
		if err != nil {
			return false, err
		}
		for _, v := range values {
			if v == 0 {
				return true, nil
			}
		}
	}
	return false, nil
}

func collectIntersection(receiverSet []uint64, flag []bool) []uint64 {
	intersection := make([]uint64, 0, len(receiverSet))
	for i, marked := range flag {
		if marked {
			intersection = append(intersection, receiverSet[i])
		}
	}
	return intersection
}
