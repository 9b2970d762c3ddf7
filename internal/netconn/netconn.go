// Package netconn opens the single persistent TCP connection each setup or
// intersect run uses to talk to its counterpart, with the kernel socket
// buffers sized from configuration the way the original raw-socket
// implementation tuned SO_RCVBUF/SO_SNDBUF.
package netconn

import (
	"fmt"
	"net"

	"github.com/momalab/psi-ndss2025/internal/errs"
)

// Listen opens a listening socket on port, accepts exactly one connection,
// and tunes its buffers before returning it.
func Listen(port, rcvbufSize, sndbufSize int) (net.Conn, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errs.New(errs.KindIO, "netconn: listen failed", err)
	}
	defer ln.Close()

	conn, err := ln.Accept()
	if err != nil {
		return nil, errs.New(errs.KindIO, "netconn: accept failed", err)
	}
	if err := tuneBuffers(conn, rcvbufSize, sndbufSize); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Dial connects to ip:port and tunes its buffers before returning it.
func Dial(ip string, port, rcvbufSize, sndbufSize int) (net.Conn, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", ip, port))
	if err != nil {
		return nil, errs.New(errs.KindIO, "netconn: dial failed", err)
	}
	if err := tuneBuffers(conn, rcvbufSize, sndbufSize); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func tuneBuffers(conn net.Conn, rcvbufSize, sndbufSize int) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tcpConn.SetReadBuffer(rcvbufSize); err != nil {
		return errs.New(errs.KindIO, "netconn: failed to set receive buffer size", err)
	}
	if err := tcpConn.SetWriteBuffer(sndbufSize); err != nil {
		return errs.New(errs.KindIO, "netconn: failed to set send buffer size", err)
	}
	return nil
}
