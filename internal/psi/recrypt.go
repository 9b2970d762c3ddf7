package psi

import (
	mrand "math/rand"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/errs"
)

// Recrypt is the Sender's role: for each query, re-key each
// return_width result from the Sender's key to the Receiver's, regroup into
// receiverEta+1 buckets, multiply down, re-randomise and rotate, so the
// Sender never learns a plaintext intermediate and the Receiver learns only
// a zero-indicator.
func Recrypt(
	results, randoms [][]*rlwe.Ciphertext,
	c crt.Params,
	receiverEta uint64,
	senderCtx *Context,
	receiverCtx *Context,
	sender *Keys,
	receiver *Keys,
) ([][]*rlwe.Ciphertext, error) {
	finals := make([][]*rlwe.Ciphertext, len(results))
	r := newRand()
	for i := range results {
		f, err := recryptOne(results[i], randoms[i], c, int(receiverEta)+1, senderCtx, receiverCtx, sender, receiver, r)
		if err != nil {
			return nil, err
		}
		finals[i] = f
	}
	return finals, nil
}

// RecryptParallel is Recrypt with an outer pool across queries.
func RecryptParallel(
	results, randoms [][]*rlwe.Ciphertext,
	c crt.Params,
	receiverEta uint64,
	senderCtx *Context,
	receiverCtx *Context,
	sender *Keys,
	receiver *Keys,
	numThreads int,
) ([][]*rlwe.Ciphertext, error) {
	finals := make([][]*rlwe.Ciphertext, len(results))
	finalWidth := int(receiverEta) + 1

	outerThreads := numThreads
	if outerThreads > len(results) {
		outerThreads = len(results)
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
			r := newRand()
			for i := t; i < len(results); i += outerThreads {
				f, err := recryptOne(results[i], randoms[i], c, finalWidth, senderCtx, receiverCtx, sender, receiver, r)
				if err != nil {
					errCh <- err
					return
				}
				finals[i] = f
			}
		}(t)
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return nil, err
	}
	return finals, nil
}

func recryptOne(
	results, randoms []*rlwe.Ciphertext,
	c crt.Params,
	finalWidth int,
	senderCtx *Context,
	receiverCtx *Context,
	sender *Keys,
	receiver *Keys,
	r *mrand.Rand,
) ([]*rlwe.Ciphertext, error) {
	returnWidth := len(results)
	n := int(receiverCtx.Params.MaxSlots())

	buckets := make([][]*rlwe.Ciphertext, finalWidth)
	subSize := returnWidth / finalWidth
	subRem := returnWidth % finalWidth
	for j := range buckets {
		size := subSize
		if j < subRem {
			size++
		}
		buckets[j] = make([]*rlwe.Ciphertext, size)
	}

	for j := 0; j < returnWidth; j++ {
		senderResultPt := sender.Decryptor.DecryptNew(results[j])
		senderResult, err := decodeFlat(senderResultPt, senderCtx.Params, senderCtx.Encoder)
		if err != nil {
			return nil, err
		}
		receiverResultPt, err := encodeFlat(senderResult, receiverCtx.Params, receiverCtx.Encoder)
		if err != nil {
			return nil, err
		}

		diff := randoms[j].CopyNew()
		if err := receiver.Evaluator.Sub(diff, receiverResultPt, diff); err != nil {
			return nil, errs.New(errs.KindKeyInvalid, "psi: recrypt subtraction failed", err)
		}

		bucket := j % finalWidth
		slotInBucket := j / finalWidth
		buckets[bucket][slotInBucket] = diff
	}

	finals := make([]*rlwe.Ciphertext, finalWidth)
	for j := 0; j < finalWidth; j++ {
		product, err := multiplyMany(receiver.Evaluator, buckets[j])
		if err != nil {
			return nil, err
		}

		randomValues := randomVectorCoprime(r, n, 1, c.M-1, c.Moduli())
		randomPt, err := encodeFlat(randomValues, receiverCtx.Params, receiverCtx.Encoder)
		if err != nil {
			return nil, err
		}
		if err := receiver.Evaluator.Mul(product, randomPt, product); err != nil {
			return nil, errs.New(errs.KindKeyInvalid, "psi: multiply_plain failed", err)
		}

		steps := uint64(r.Int63n(int64(n)))
		if err := Rotate(product, steps, receiverCtx.Params, receiver.Evaluator); err != nil {
			return nil, err
		}

		if err := receiver.Evaluator.Rescale(product, product); err != nil {
			return nil, errs.New(errs.KindKeyInvalid, "psi: modulus switch failed", err)
		}
		finals[j] = product
	}

	return finals, nil
}
