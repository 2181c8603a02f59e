//go:build windows

package netext

import (
	"net"
	"syscall"
)

// defaultListenControl is a no-op on Windows.
func defaultListenControl(_ syscall.RawConn) (err error) {
	return nil
}

// SetECN is not implemented on Windows.
func SetECN(_ *net.UDPConn, _ uint8) (err error) {
	return ErrUnsupportedFamily
}

// WrapECNEcho returns conn unchanged on Windows.
func WrapECNEcho(conn *net.UDPConn) (c net.PacketConn) {
	return conn
}

// ECNFromOOB is not implemented on Windows.
func ECNFromOOB(_ []byte) (ecn uint8, err error) {
	return 0, ErrNoECN
}
