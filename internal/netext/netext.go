// Package netext contains extensions of package net in the Go standard
// library: the listen configuration used for the client UDP sockets and the
// ECN helpers of the DNS-over-QUIC transport.
package netext

import (
	"context"
	"net"
	"syscall"
)

// ListenConfig is the interface that allows controlling options of the
// connections created by this module.
//
// This interface is modeled after [net.ListenConfig].
type ListenConfig interface {
	Listen(ctx context.Context, network, address string) (l net.Listener, err error)
	ListenPacket(ctx context.Context, network, address string) (c net.PacketConn, err error)
}

// DefaultListenConfig returns the default [ListenConfig] used for the UDP
// sockets of the DoQ client.  The control function sets the socket options
// needed to read and write the per-packet ECN marking; the QUIC layer does
// the out-of-band processing itself.
func DefaultListenConfig() (lc ListenConfig) {
	return &net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) (err error) {
			return defaultListenControl(c)
		},
	}
}
