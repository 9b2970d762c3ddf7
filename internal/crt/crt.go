// Package crt implements Chinese-Remainder-Theorem packing: encoding k
// parallel vectors of residues into a single vector of values mod M = prod
// mi, and decoding back out.
package crt

import (
	"github.com/momalab/psi-ndss2025/internal/arith"
	"github.com/momalab/psi-ndss2025/internal/errs"
)

// Params holds the moduli m_i, their product M, the co-factors M_i = M/m_i
// and their modular inverses iM_i = M_i^-1 mod m_i.
type Params struct {
	M   uint64
	Mi  []uint64
	Ii  []uint64
	imi []uint64
}

// NewParams builds the CRT parameters for a given set of moduli. The moduli
// are not checked for pairwise coprimality here; callers that need that
// guarantee should call arith.AreCoprime themselves.
func NewParams(mi []uint64) Params {
	crt := Params{Ii: append([]uint64(nil), mi...)}
	crt.M = 1
	for _, m := range crt.Ii {
		crt.M *= m
	}
	crt.Mi = make([]uint64, len(crt.Ii))
	crt.imi = make([]uint64, len(crt.Ii))
	for i, m := range crt.Ii {
		crt.Mi[i] = crt.M / m
		crt.imi[i] = arith.Modinv(crt.Mi[i], m)
	}
	return crt
}

// K returns the number of CRT components (moduli).
func (crt Params) K() int {
	return len(crt.Ii)
}

// Moduli returns the packed moduli m_i, in order.
func (crt Params) Moduli() []uint64 {
	return append([]uint64(nil), crt.Ii...)
}

// Encode packs a block-major length-k*N vector v (each block of k values)
// into a length-N vector of residues mod M.
func (crt Params) Encode(v []uint64) []uint64 {
	k := crt.K()
	n := len(v) / k
	vpack := make([]uint64, n)
	for i := 0; i < n; i++ {
		var acc uint64
		for j := 0; j < k; j++ {
			val := v[i*k+j]
			acc += val * crt.Mi[j] % crt.M * crt.imi[j] % crt.M
		}
		vpack[i] = acc % crt.M
	}
	return vpack
}

// Decode unpacks a length-N packed vector back into a block-major length-k*N
// vector of per-modulus residues.
func (crt Params) Decode(vpack []uint64) ([]uint64, error) {
	k := crt.K()
	v := make([]uint64, len(vpack)*k)
	for i, packed := range vpack {
		for j, m := range crt.Ii {
			v[i*k+j] = packed % m
		}
	}
	return v, nil
}

// DecodeChecked is Decode but first validates that expectedLen, the caller's
// stated length of the decoded vector, is a multiple of k, matching the original's "Invalid number of CRT components"
// guard on the encode path mirrored here for the decode direction as well.
func (crt Params) DecodeChecked(vpack []uint64, expectedLen int) ([]uint64, error) {
	if expectedLen%crt.K() != 0 {
		return nil, errs.New(errs.KindParameter, "crt: vector length is not a multiple of k", nil)
	}
	return crt.Decode(vpack)
}
