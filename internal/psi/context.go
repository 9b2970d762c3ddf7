// Package psi implements the masked zero-indicator circuit: a query element
// y's right half is subtracted from every Cuckoo-table ciphertext slot it
// could have landed in, the differences are multiplied down to one value per
// bucket, and the Sender/Receiver jointly re-randomise that value across a
// two-flight recrypt so that neither party ever sees a plaintext
// intermediate — only whether the final value is zero.
package psi

import (
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"

	"github.com/momalab/psi-ndss2025/internal/errs"
	"github.com/momalab/psi-ndss2025/internal/logging"
)

var log = logging.MustGetLogger("psi")

// maxKeygenAttempts bounds the key-invalid retry loop: regenerate keys
// until encode([0]) round-trips, or give up.
const maxKeygenAttempts = 8

// Context owns the long-lived, read-only BFV handles shared across a PSI
// run: parameters and the batch encoder. Mirrors the role the original's
// SEALContext plays as the parent owning every encoder/evaluator/key.
type Context struct {
	Params  bgv.Parameters
	Encoder *bgv.Encoder
}

// NewContext instantiates a scale-invariant BGV instance — the library's
// name for what SEAL calls BFV — over polynomial modulus degree N and
// plaintext modulus t = prod(ti). logQ and logP are passed to the library
// unchanged; no default modulus chain is substituted.
func NewContext(logN int, logQ, logP []int, ti []uint64) (*Context, error) {
	var t uint64 = 1
	for _, m := range ti {
		t *= m
	}

	params, err := bgv.NewParametersFromLiteral(bgv.ParametersLiteral{
		LogN:             logN,
		LogQ:             logQ,
		LogP:             logP,
		PlaintextModulus: t,
	})
	if err != nil {
		return nil, errs.New(errs.KindParameter, "psi: failed to instantiate encryption parameters", err)
	}

	return &Context{
		Params:  params,
		Encoder: bgv.NewEncoder(params),
	}, nil
}

// Keys bundles the long-lived key material one party owns: its secret key
// plus the public evaluation keys it hands to the other side.
type Keys struct {
	Secret     *rlwe.SecretKey
	Public     *rlwe.PublicKey
	Relin      *rlwe.RelinearizationKey
	Galois     []*rlwe.GaloisKey
	Encryptor  *rlwe.Encryptor
	Decryptor  *rlwe.Decryptor
	Evaluator  *bgv.Evaluator
	EvalKeySet *rlwe.MemEvaluationKeySet
}

// GenerateKeys runs the key-invalid retry loop: generate a secret key,
// relinearization key and (when wantGalois) a full rotation-step Galois key
// set, then validate the encoder round-trips encode([0]) before returning,
// as the original's validKeys check does. Only the keys are regenerated on
// each attempt: ctx, and with it the encoder the self-test exercises, is
// reused unchanged, so the context itself is never regenerated.
func GenerateKeys(ctx *Context, wantGalois bool) (*Keys, error) {
	var lastErr error
	for attempt := 0; attempt < maxKeygenAttempts; attempt++ {
		keys, err := generateKeysOnce(ctx, wantGalois)
		if err != nil {
			lastErr = err
			log.Warningf("psi: key generation attempt %d failed: %v", attempt, err)
			continue
		}
		if !validKeys(ctx) {
			lastErr = errs.New(errs.KindKeyInvalid, "psi: encoder failed encode/decode self-test", nil)
			log.Warningf("psi: key generation attempt %d produced invalid keys, retrying", attempt)
			continue
		}
		return keys, nil
	}
	return nil, errs.New(errs.KindKeyInvalid, "psi: exhausted key generation attempts", lastErr)
}

func generateKeysOnce(ctx *Context, wantGalois bool) (*Keys, error) {
	kgen := rlwe.NewKeyGenerator(ctx.Params)
	sk, pk := kgen.GenKeyPairNew()
	rlk := kgen.GenRelinearizationKeyNew(sk)

	var galoisKeys []*rlwe.GaloisKey
	if wantGalois {
		n := ctx.Params.N()
		galEls := make([]uint64, 0, n)
		for step := 1; step < n/2; step++ {
			galEls = append(galEls, ctx.Params.GaloisElement(step))
		}
		galEls = append(galEls, ctx.Params.GaloisElementOrderTwoOrthogonalSubgroup())
		galoisKeys = kgen.GenGaloisKeysNew(galEls, sk)
	}

	evk := rlwe.NewMemEvaluationKeySet(rlk, galoisKeys...)
	evaluator := bgv.NewEvaluator(ctx.Params, evk, true)

	return &Keys{
		Secret:     sk,
		Public:     pk,
		Relin:      rlk,
		Galois:     galoisKeys,
		Encryptor:  rlwe.NewEncryptor(ctx.Params, sk),
		Decryptor:  rlwe.NewDecryptor(ctx.Params, sk),
		Evaluator:  evaluator,
		EvalKeySet: evk,
	}, nil
}

// NewPublicKeys builds a Keys that can only evaluate, not encrypt or
// decrypt: the role a collaborator plays for its counterpart's ciphertexts,
// holding only the relin/Galois keys it received during setup rather than a
// secret key it was never given.
func NewPublicKeys(ctx *Context, relin *rlwe.RelinearizationKey, galois []*rlwe.GaloisKey) *Keys {
	evk := rlwe.NewMemEvaluationKeySet(relin, galois...)
	return &Keys{
		Relin:      relin,
		Galois:     galois,
		Evaluator:  bgv.NewEvaluator(ctx.Params, evk, true),
		EvalKeySet: evk,
	}
}

// validKeys round-trips encode([0]) the way the original's validKeys does,
// catching the rare BFV parameter sets whose encoder cannot represent the
// all-zero plaintext.
func validKeys(ctx *Context) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	pt := bgv.NewPlaintext(ctx.Params, ctx.Params.MaxLevel())
	if err := ctx.Encoder.Encode([]uint64{0}, pt); err != nil {
		return false
	}
	out := make([]uint64, ctx.Params.MaxSlots())
	if err := ctx.Encoder.Decode(pt, out); err != nil {
		return false
	}
	return out[0] == 0
}

// Rotate is the rotate() helper: n' = N/2; if steps exceeds n', swap
// columns first (rotate_columns, the order-2 automorphism), then rotate rows
// by steps mod n' if that remainder is non-zero.
func Rotate(ct *rlwe.Ciphertext, steps uint64, params bgv.Parameters, eval *bgv.Evaluator) error {
	half := uint64(params.N()) / 2
	if steps > half {
		colGal := params.GaloisElementOrderTwoOrthogonalSubgroup()
		if err := eval.Automorphism(ct, colGal, ct); err != nil {
			return errs.New(errs.KindKeyInvalid, "psi: column rotation failed", err)
		}
	}
	steps %= half
	if steps != 0 {
		rowGal := params.GaloisElement(int(steps))
		if err := eval.Automorphism(ct, rowGal, ct); err != nil {
			return errs.New(errs.KindKeyInvalid, "psi: row rotation failed", err)
		}
	}
	return nil
}
