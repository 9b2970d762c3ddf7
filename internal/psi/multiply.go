package psi

import (
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"

	"github.com/momalab/psi-ndss2025/internal/errs"
)

// multiplyMany is the depth-balanced tree product the original calls
// multiply_many: repeatedly relinearize-multiply adjacent pairs until one
// ciphertext remains. Depth is ceil(log2(len(cts))) regardless of grouping
// order.
func multiplyMany(eval *bgv.Evaluator, cts []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	if len(cts) == 0 {
		return nil, errs.New(errs.KindParameter, "psi: multiply_many called on an empty bucket", nil)
	}
	level := append([]*rlwe.Ciphertext(nil), cts...)
	for len(level) > 1 {
		next := make([]*rlwe.Ciphertext, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			out := level[i].CopyNew()
			if err := eval.MulRelin(level[i], level[i+1], out); err != nil {
				return nil, errs.New(errs.KindKeyInvalid, "psi: multiply_many relinearized multiplication failed", err)
			}
			next = append(next, out)
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0], nil
}
