package wire

import (
	"io"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	uuid "github.com/satori/go.uuid"

	"github.com/momalab/psi-ndss2025/internal/cuckoo"
)

// SetupRequest is the Receiver's half of the setup flight: its relin and
// Galois keys, sent so the Sender can compute and the Receiver can later
// recrypt/rotate. RunID correlates this flight's log lines on both ends.
type SetupRequest struct {
	RunID  uuid.UUID
	Relin  *rlwe.RelinearizationKey
	Galois []*rlwe.GaloisKey
}

// WriteSetupRequest sends the Receiver's setup-flight keys.
func WriteSetupRequest(w io.Writer, req SetupRequest) error {
	if err := WriteRunID(w, req.RunID); err != nil {
		return err
	}
	if err := WriteMarshaler(w, req.Relin); err != nil {
		return err
	}
	return WriteGaloisKeys(w, req.Galois)
}

// ReadSetupRequest is the Sender's side of WriteSetupRequest.
func ReadSetupRequest(r io.Reader) (SetupRequest, error) {
	runID, err := ReadRunID(r)
	if err != nil {
		return SetupRequest{}, err
	}
	relin := new(rlwe.RelinearizationKey)
	if err := ReadUnmarshaler(r, relin); err != nil {
		return SetupRequest{}, err
	}
	galois, err := ReadGaloisKeys(r)
	if err != nil {
		return SetupRequest{}, err
	}
	return SetupRequest{RunID: runID, Relin: relin, Galois: galois}, nil
}

// SetupResponse is the Sender's half of the setup flight: its own relin key
// plus the encrypted Cuckoo table.
type SetupResponse struct {
	Relin *rlwe.RelinearizationKey
	Table *cuckoo.Kuckoo
	Cells []*rlwe.Ciphertext
}

// WriteSetupResponse sends the Sender's setup-flight payload.
func WriteSetupResponse(w io.Writer, resp SetupResponse) error {
	if err := WriteMarshaler(w, resp.Relin); err != nil {
		return err
	}
	return WriteCuckooTable(w, resp.Table, resp.Cells)
}

// ReadSetupResponse is the Receiver's side of WriteSetupResponse.
func ReadSetupResponse(r io.Reader) (SetupResponse, error) {
	relin := new(rlwe.RelinearizationKey)
	if err := ReadUnmarshaler(r, relin); err != nil {
		return SetupResponse{}, err
	}
	table, cells, err := ReadCuckooTable(r)
	if err != nil {
		return SetupResponse{}, err
	}
	return SetupResponse{Relin: relin, Table: table, Cells: cells}, nil
}

// WriteIntersectRequest sends the Receiver's query batch: results and
// randoms, each a queries x return_width matrix of ciphertexts, preceded by
// a correlation id and a number-of-sets frame (always 1: the whole batch
// travels as one set).
func WriteIntersectRequest(w io.Writer, runID uuid.UUID, results, randoms [][]*rlwe.Ciphertext) error {
	if err := WriteRunID(w, runID); err != nil {
		return err
	}
	if err := WriteUint64(w, 1); err != nil {
		return err
	}
	if err := WriteCiphertextMatrix(w, results); err != nil {
		return err
	}
	return WriteCiphertextMatrix(w, randoms)
}

// ReadIntersectRequest is the Sender's side of WriteIntersectRequest.
func ReadIntersectRequest(r io.Reader) (runID uuid.UUID, results, randoms [][]*rlwe.Ciphertext, err error) {
	runID, err = ReadRunID(r)
	if err != nil {
		return uuid.UUID{}, nil, nil, err
	}
	if _, err := ReadUint64(r); err != nil {
		return uuid.UUID{}, nil, nil, err
	}
	results, err = ReadCiphertextMatrix(r)
	if err != nil {
		return uuid.UUID{}, nil, nil, err
	}
	randoms, err = ReadCiphertextMatrix(r)
	if err != nil {
		return uuid.UUID{}, nil, nil, err
	}
	return runID, results, randoms, nil
}

// WriteIntersectResponse sends the Sender's recrypted finals matrix.
func WriteIntersectResponse(w io.Writer, finals [][]*rlwe.Ciphertext) error {
	return WriteCiphertextMatrix(w, finals)
}

// ReadIntersectResponse is the Receiver's side of WriteIntersectResponse.
func ReadIntersectResponse(r io.Reader) ([][]*rlwe.Ciphertext, error) {
	return ReadCiphertextMatrix(r)
}
