package psi

import (
	mrand "math/rand"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/cuckoo"
	"github.com/momalab/psi-ndss2025/internal/errs"
)

// dummyValue is receiver_dummy = h+2: outside the legal domain of
// stored right-halves, so subtracting it from an unrelated slot's stored
// value can never accidentally land on zero.
func dummyValue(numHashes uint64) uint64 {
	return numHashes + 2
}

// ComputeIntersection runs the compute side of the circuit against the
// Sender's encrypted table for every entry of receiverSet, single-threaded;
// the Receiver runs it and ships the results to the Sender for Recrypt. senderEta selects
// return_width = senderEta+1 output ciphertexts per query.
func ComputeIntersection(
	receiverSet []uint64,
	table *cuckoo.Kuckoo,
	encryptedTable []*rlwe.Ciphertext,
	c crt.Params,
	senderEta uint64,
	senderCtx *Context,
	receiverCtx *Context,
	sender *Keys,
	receiver *Keys,
) (results, randoms [][]*rlwe.Ciphertext, err error) {
	results = make([][]*rlwe.Ciphertext, len(receiverSet))
	randoms = make([][]*rlwe.Ciphertext, len(receiverSet))

	r := newRand()
	for i, entry := range receiverSet {
		res, rnd, err := computeOne(entry, table, encryptedTable, c, int(senderEta)+1, senderCtx, receiverCtx, sender, receiver, r)
		if err != nil {
			return nil, nil, err
		}
		results[i] = res
		randoms[i] = rnd
	}
	return results, randoms, nil
}

// ComputeIntersectionParallel is ComputeIntersection with an outer pool of
// min(numThreads, len(receiverSet)) workers across queries. There is no
// inner pool: the hash/bucket work for a single query runs sequentially
// within its outer worker.
func ComputeIntersectionParallel(
	receiverSet []uint64,
	table *cuckoo.Kuckoo,
	encryptedTable []*rlwe.Ciphertext,
	c crt.Params,
	senderEta uint64,
	senderCtx *Context,
	receiverCtx *Context,
	sender *Keys,
	receiver *Keys,
	numThreads int,
) (results, randoms [][]*rlwe.Ciphertext, err error) {
	results = make([][]*rlwe.Ciphertext, len(receiverSet))
	randoms = make([][]*rlwe.Ciphertext, len(receiverSet))

	outerThreads := numThreads
	if outerThreads > len(receiverSet) {
		outerThreads = len(receiverSet)
	}
	if outerThreads < 1 {
		outerThreads = 1
	}
	returnWidth := int(senderEta) + 1

	errCh := make(chan error, outerThreads)
	var wg sync.WaitGroup
	for t := 0; t < outerThreads; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			r := newRand()
			for i := t; i < len(receiverSet); i += outerThreads {
				res, rnd, err := computeOne(receiverSet[i], table, encryptedTable, c, returnWidth, senderCtx, receiverCtx, sender, receiver, r)
				if err != nil {
					errCh <- err
					return
				}
				results[i] = res
				randoms[i] = rnd
			}
		}(t)
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return nil, nil, err
	}
	return results, randoms, nil
}

func computeOne(
	entry uint64,
	table *cuckoo.Kuckoo,
	encryptedTable []*rlwe.Ciphertext,
	c crt.Params,
	returnWidth int,
	senderCtx *Context,
	receiverCtx *Context,
	sender *Keys,
	receiver *Keys,
	r *mrand.Rand,
) ([]*rlwe.Ciphertext, []*rlwe.Ciphertext, error) {
	numHashes := table.NumHashes()
	k := c.K()
	n := int(senderCtx.Params.MaxSlots())
	dummy := dummyValue(numHashes)

	idx := table.GetIndices(entry)

	buckets := make([][]*rlwe.Ciphertext, returnWidth)
	subSize := int(numHashes) / returnWidth
	subRem := int(numHashes) % returnWidth
	for j := range buckets {
		size := subSize
		if j < subRem {
			size++
		}
		buckets[j] = make([]*rlwe.Ciphertext, size)
	}

	for j := uint64(0); j < numHashes; j++ {
		bin := idx.Bins[j]
		ctIndex := int(bin) / n
		ctBslot := int(bin) % n
		slot := ctBslot*k + int(idx.TableIndex)

		v := make([]uint64, k*n)
		for s := range v {
			v[s] = dummy
		}
		v[slot] = idx.Right

		pt, err := packEncode(v, c, senderCtx.Params, senderCtx.Encoder)
		if err != nil {
			return nil, nil, err
		}

		diff := encryptedTable[ctIndex].CopyNew()
		if err := sender.Evaluator.Sub(diff, pt, diff); err != nil {
			return nil, nil, errs.New(errs.KindKeyInvalid, "psi: homomorphic subtraction failed", err)
		}

		bucket := int(j) % returnWidth
		slotInBucket := int(j) / returnWidth
		buckets[bucket][slotInBucket] = diff
	}

	results := make([]*rlwe.Ciphertext, returnWidth)
	randoms := make([]*rlwe.Ciphertext, returnWidth)
	for j := 0; j < returnWidth; j++ {
		product, err := multiplyMany(sender.Evaluator, buckets[j])
		if err != nil {
			return nil, nil, err
		}

		randomValues := randomVector(r, n, 0, c.M-1)

		senderRandomPt, err := encodeFlat(randomValues, senderCtx.Params, senderCtx.Encoder)
		if err != nil {
			return nil, nil, err
		}
		if err := sender.Evaluator.Add(product, senderRandomPt, product); err != nil {
			return nil, nil, errs.New(errs.KindKeyInvalid, "psi: add_plain failed", err)
		}
		if err := sender.Evaluator.Rescale(product, product); err != nil {
			return nil, nil, errs.New(errs.KindKeyInvalid, "psi: modulus switch failed", err)
		}
		results[j] = product

		receiverRandomPt, err := encodeFlat(randomValues, receiverCtx.Params, receiverCtx.Encoder)
		if err != nil {
			return nil, nil, err
		}
		randomCt, err := receiver.Encryptor.EncryptNew(receiverRandomPt)
		if err != nil {
			return nil, nil, errs.New(errs.KindKeyInvalid, "psi: symmetric encryption of random mask failed", err)
		}
		randoms[j] = randomCt
	}

	return results, randoms, nil
}
