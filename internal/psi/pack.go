package psi

import (
	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/schemes/bgv"

	"github.com/momalab/psi-ndss2025/internal/crt"
	"github.com/momalab/psi-ndss2025/internal/errs"
)

// packEncode CRT-packs vs and batch-encodes it into a fresh plaintext.
func packEncode(vs []uint64, c crt.Params, params bgv.Parameters, encoder *bgv.Encoder) (*rlwe.Plaintext, error) {
	packed := c.Encode(vs)
	pt := bgv.NewPlaintext(params, params.MaxLevel())
	if err := encoder.Encode(packed, pt); err != nil {
		return nil, errs.New(errs.KindKeyInvalid, "psi: encode failed", err)
	}
	return pt, nil
}

// packDecode batch-decodes pt and CRT-unpacks it back into k*N entries.
func packDecode(pt *rlwe.Plaintext, c crt.Params, params bgv.Parameters, encoder *bgv.Encoder) ([]uint64, error) {
	packed := make([]uint64, params.MaxSlots())
	if err := encoder.Decode(pt, packed); err != nil {
		return nil, errs.New(errs.KindKeyInvalid, "psi: decode failed", err)
	}
	v, err := c.DecodeChecked(packed, len(packed)*c.K())
	if err != nil {
		return nil, err
	}
	return v, nil
}

// packEncrypt CRT-packs, encodes and symmetrically encrypts vs under key's
// own secret key.
func packEncrypt(vs []uint64, c crt.Params, ctx *Context, key *Keys) (*rlwe.Ciphertext, error) {
	pt, err := packEncode(vs, c, ctx.Params, ctx.Encoder)
	if err != nil {
		return nil, err
	}
	ct, err := key.Encryptor.EncryptNew(pt)
	if err != nil {
		return nil, errs.New(errs.KindKeyInvalid, "psi: symmetric encryption failed", err)
	}
	return ct, nil
}

// packDecrypt decrypts ct under key's secret key, decodes and CRT-unpacks.
func packDecrypt(ct *rlwe.Ciphertext, c crt.Params, ctx *Context, key *Keys) ([]uint64, error) {
	pt := key.Decryptor.DecryptNew(ct)
	return packDecode(pt, c, ctx.Params, ctx.Encoder)
}

// encodeFlat batch-encodes a length-N vector directly, with no CRT packing:
// used for the raw masking randomness rho, which is generated and consumed
// as a plain batch vector rather than a CRT-packed table row.
func encodeFlat(vs []uint64, params bgv.Parameters, encoder *bgv.Encoder) (*rlwe.Plaintext, error) {
	pt := bgv.NewPlaintext(params, params.MaxLevel())
	if err := encoder.Encode(vs, pt); err != nil {
		return nil, errs.New(errs.KindKeyInvalid, "psi: encode failed", err)
	}
	return pt, nil
}

// decodeFlat batch-decodes pt into a length-N vector with no CRT unpacking.
func decodeFlat(pt *rlwe.Plaintext, params bgv.Parameters, encoder *bgv.Encoder) ([]uint64, error) {
	out := make([]uint64, params.MaxSlots())
	if err := encoder.Decode(pt, out); err != nil {
		return nil, errs.New(errs.KindKeyInvalid, "psi: decode failed", err)
	}
	return out, nil
}
