// Package wire implements the length-prefixed binary framing used by the
// setup and intersect network flights between Sender and Receiver.
package wire

import (
	"encoding/binary"
	"io"

	uuid "github.com/satori/go.uuid"

	"github.com/momalab/psi-ndss2025/internal/errs"
)

// maxFrameBytes bounds a single frame's declared length, guarding against a
// corrupt or adversarial length prefix driving an unbounded allocation.
const maxFrameBytes = 1 << 30

// WriteFrame writes a 4-byte little-endian length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return errs.New(errs.KindIO, "wire: writing frame length failed", err)
	}
	if _, err := w.Write(payload); err != nil {
		return errs.New(errs.KindIO, "wire: writing frame payload failed", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, errs.New(errs.KindIO, "wire: reading frame length failed", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxFrameBytes {
		return nil, errs.New(errs.KindProtocol, "wire: frame length exceeds bound", nil)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errs.New(errs.KindIO, "wire: reading frame payload failed", err)
	}
	return payload, nil
}

// WriteUint64 frames a decimal count, matching the text frames
// uses for set counts and size declarations.
func WriteUint64(w io.Writer, v uint64) error {
	return WriteFrame(w, []byte(uitoa(v)))
}

// ReadUint64 parses a decimal count frame.
func ReadUint64(r io.Reader) (uint64, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return 0, err
	}
	v, ok := atoui(string(payload))
	if !ok {
		return 0, errs.New(errs.KindProtocol, "wire: expected decimal frame", nil)
	}
	return v, nil
}

// WriteDims frames a "rows cols" pair, as used ahead of a matrix of
// ciphertext frames (results/randoms/finals).
func WriteDims(w io.Writer, rows, cols int) error {
	return WriteFrame(w, []byte(uitoa(uint64(rows))+" "+uitoa(uint64(cols))))
}

// ReadDims parses a "rows cols" dims frame.
func ReadDims(r io.Reader) (rows, cols int, err error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return 0, 0, err
	}
	rows64, cols64, ok := splitDims(string(payload))
	if !ok {
		return 0, 0, errs.New(errs.KindProtocol, "wire: malformed dims frame", nil)
	}
	return int(rows64), int(cols64), nil
}

// WriteRunID frames a correlation id identifying one setup or intersect
// flight, so log lines on both sides of the connection can be tied together.
func WriteRunID(w io.Writer, id uuid.UUID) error {
	data, err := id.MarshalBinary()
	if err != nil {
		return errs.New(errs.KindIO, "wire: marshal run id failed", err)
	}
	return WriteFrame(w, data)
}

// ReadRunID reads the correlation id framed by WriteRunID.
func ReadRunID(r io.Reader) (uuid.UUID, error) {
	data, err := ReadFrame(r)
	if err != nil {
		return uuid.UUID{}, err
	}
	var id uuid.UUID
	if err := id.UnmarshalBinary(data); err != nil {
		return uuid.UUID{}, errs.New(errs.KindProtocol, "wire: malformed run id", err)
	}
	return id, nil
}

func uitoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func atoui(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	var v uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}
	return v, true
}

func splitDims(s string) (rows, cols uint64, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			r, ok1 := atoui(s[:i])
			c, ok2 := atoui(s[i+1:])
			return r, c, ok1 && ok2
		}
	}
	return 0, 0, false
}
