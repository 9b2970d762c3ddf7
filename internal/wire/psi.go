package wire

import (
	"bytes"
	"encoding"
	"io"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/momalab/psi-ndss2025/internal/cuckoo"
	"github.com/momalab/psi-ndss2025/internal/errs"
)

// WriteMarshaler frames the binary encoding of any lattigo object that
// implements encoding.BinaryMarshaler (ciphertexts, keys, parameters).
func WriteMarshaler(w io.Writer, m encoding.BinaryMarshaler) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return errs.New(errs.KindIO, "wire: marshal failed", err)
	}
	return WriteFrame(w, data)
}

// ReadUnmarshaler reads one frame and unmarshals it into m.
func ReadUnmarshaler(r io.Reader, m encoding.BinaryUnmarshaler) error {
	data, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if err := m.UnmarshalBinary(data); err != nil {
		return errs.New(errs.KindProtocol, "wire: unmarshal failed", err)
	}
	return nil
}

// WriteCiphertext frames a single ciphertext.
func WriteCiphertext(w io.Writer, ct *rlwe.Ciphertext) error {
	return WriteMarshaler(w, ct)
}

// ReadCiphertext reads a single framed ciphertext.
func ReadCiphertext(r io.Reader) (*rlwe.Ciphertext, error) {
	ct := new(rlwe.Ciphertext)
	if err := ReadUnmarshaler(r, ct); err != nil {
		return nil, err
	}
	return ct, nil
}

// WriteGaloisKeys frames a count followed by each key.
func WriteGaloisKeys(w io.Writer, keys []*rlwe.GaloisKey) error {
	if err := WriteUint64(w, uint64(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := WriteMarshaler(w, k); err != nil {
			return err
		}
	}
	return nil
}

// ReadGaloisKeys reads a count-prefixed sequence of Galois keys.
func ReadGaloisKeys(r io.Reader) ([]*rlwe.GaloisKey, error) {
	n, err := ReadUint64(r)
	if err != nil {
		return nil, err
	}
	keys := make([]*rlwe.GaloisKey, n)
	for i := range keys {
		gk := new(rlwe.GaloisKey)
		if err := ReadUnmarshaler(r, gk); err != nil {
			return nil, err
		}
		keys[i] = gk
	}
	return keys, nil
}

// WriteCiphertextMatrix frames a rows x cols matrix of ciphertexts as a dims
// frame followed by rows*cols ciphertext frames in row-major order, matching
// the results/randoms/finals shape of the intersect flight.
func WriteCiphertextMatrix(w io.Writer, m [][]*rlwe.Ciphertext) error {
	rows := len(m)
	cols := 0
	if rows > 0 {
		cols = len(m[0])
	}
	if err := WriteDims(w, rows, cols); err != nil {
		return err
	}
	for _, row := range m {
		if len(row) != cols {
			return errs.New(errs.KindProtocol, "wire: ragged ciphertext matrix", nil)
		}
		for _, ct := range row {
			if err := WriteCiphertext(w, ct); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadCiphertextMatrix reads a dims-prefixed ciphertext matrix.
func ReadCiphertextMatrix(r io.Reader) ([][]*rlwe.Ciphertext, error) {
	rows, cols, err := ReadDims(r)
	if err != nil {
		return nil, err
	}
	m := make([][]*rlwe.Ciphertext, rows)
	for i := range m {
		m[i] = make([]*rlwe.Ciphertext, cols)
		for j := range m[i] {
			ct, err := ReadCiphertext(r)
			if err != nil {
				return nil, err
			}
			m[i][j] = ct
		}
	}
	return m, nil
}

// WriteCuckooTable frames a Cuckoo's serialised parameters, its ciphertext
// count, and the ciphertexts themselves, per the table-on-disk
// triad (here sent over the wire rather than to a file).
func WriteCuckooTable(w io.Writer, table *cuckoo.Kuckoo, cts []*rlwe.Ciphertext) error {
	var paramsBuf bytes.Buffer
	if err := table.WriteParams(&paramsBuf); err != nil {
		return err
	}
	if err := WriteFrame(w, paramsBuf.Bytes()); err != nil {
		return err
	}
	if err := WriteUint64(w, uint64(len(cts))); err != nil {
		return err
	}
	for _, ct := range cts {
		if err := WriteCiphertext(w, ct); err != nil {
			return err
		}
	}
	return nil
}

// ReadCuckooTable is the receiving half of WriteCuckooTable.
func ReadCuckooTable(r io.Reader) (*cuckoo.Kuckoo, []*rlwe.Ciphertext, error) {
	paramsFrame, err := ReadFrame(r)
	if err != nil {
		return nil, nil, err
	}
	table, err := cuckoo.ReadParams(bytes.NewReader(paramsFrame))
	if err != nil {
		return nil, nil, err
	}
	n, err := ReadUint64(r)
	if err != nil {
		return nil, nil, err
	}
	cts := make([]*rlwe.Ciphertext, n)
	for i := range cts {
		ct, err := ReadCiphertext(r)
		if err != nil {
			return nil, nil, err
		}
		cts[i] = ct
	}
	return table, cts, nil
}
