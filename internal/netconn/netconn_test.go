package netconn

import (
	"io"
	"testing"
	"time"
)

func TestListenDialRoundTrip(t *testing.T) {
	const port = 18273
	errCh := make(chan error, 1)
	connCh := make(chan io.ReadWriteCloser, 1)
	go func() {
		conn, err := Listen(port, 4096, 4096)
		if err != nil {
			errCh <- err
			return
		}
		errCh <- nil
		connCh <- conn
	}()

	var client io.ReadWriteCloser
	var dialErr error
	for attempt := 0; attempt < 50; attempt++ {
		client, dialErr = Dial("127.0.0.1", port, 4096, 4096)
		if dialErr == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if dialErr != nil {
		t.Fatalf("Dial: %v", dialErr)
	}
	defer client.Close()

	if err := <-errCh; err != nil {
		t.Fatalf("Listen: %v", err)
	}
	server := <-connCh
	defer server.Close()

	want := []byte("ping")
	if _, err := client.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := make([]byte, len(want))
	if _, err := io.ReadFull(server, got); err != nil {
		t.Fatalf("ReadFull: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDialRefused(t *testing.T) {
	if _, err := Dial("127.0.0.1", 1, 4096, 4096); err == nil {
		t.Fatal("expected an error dialing a port nothing listens on")
	}
}
