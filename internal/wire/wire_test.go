package wire

import (
	"bytes"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello psi")
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("ReadFrame = %q, want %q", got, payload)
	}
}

func TestUint64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUint64(&buf, 1234567890123); err != nil {
		t.Fatalf("WriteUint64: %v", err)
	}
	got, err := ReadUint64(&buf)
	if err != nil {
		t.Fatalf("ReadUint64: %v", err)
	}
	if got != 1234567890123 {
		t.Fatalf("ReadUint64 = %d", got)
	}
}

func TestDimsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDims(&buf, 7, 3); err != nil {
		t.Fatalf("WriteDims: %v", err)
	}
	rows, cols, err := ReadDims(&buf)
	if err != nil {
		t.Fatalf("ReadDims: %v", err)
	}
	if rows != 7 || cols != 3 {
		t.Fatalf("ReadDims = %d,%d", rows, cols)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	lenBuf[3] = 0xFF
	buf.Write(lenBuf[:])
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected error for oversized frame length")
	}
}
