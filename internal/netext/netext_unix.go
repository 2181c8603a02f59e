//go:build unix

package netext

import (
	"net"
	"sync/atomic"
	"syscall"

	"github.com/AdguardTeam/golibs/errors"
	"golang.org/x/sys/unix"
)

// defaultListenControl is used as a [net.ListenConfig.Control] function to
// set the socket options enabling per-packet TOS/TCLASS control messages on
// the sockets used by the DoQ client.
func defaultListenControl(c syscall.RawConn) (err error) {
	var opErr error
	err = c.Control(func(fd uintptr) {
		// ENOPROTOOPT from the family the socket does not belong to is
		// expected, so an error is returned only when neither option can be
		// set, and then it is the IPv4 one.
		opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_RECVTOS, 1)
		err6 := unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_RECVTCLASS, 1)
		if opErr != nil && err6 == nil {
			opErr = nil
		}
	})
	if err != nil {
		return err
	}

	return errors.WithDeferred(opErr, err)
}

// SetECN sets the ECN codepoint for all subsequent datagrams sent through
// conn: IP_TOS on IPv4 sockets and IPV6_TCLASS on IPv6 ones.
func SetECN(conn *net.UDPConn, ecn uint8) (err error) {
	laddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ErrUnsupportedFamily
	}

	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var opErr error
	err = raw.Control(func(fd uintptr) {
		if laddr.IP.To4() != nil {
			opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS, int(ecn))
		} else {
			opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_TCLASS, int(ecn))
		}
	})
	if err != nil {
		return err
	}

	return errors.WithDeferred(opErr, err)
}

// WrapECNEcho wraps conn so that the ECN codepoint of every received
// datagram is echoed onto subsequent outgoing ones.  The wrapped conn still
// exposes the methods the QUIC layer needs for out-of-band I/O.
func WrapECNEcho(conn *net.UDPConn) (c net.PacketConn) {
	ec := &ecnEchoConn{
		UDPConn: conn,
	}
	ec.lastECN.Store(ecnUnset)

	return ec
}

// ecnUnset is the out-of-range marker meaning no ECN value has been echoed
// yet, so the first received one is always applied.
const ecnUnset uint32 = 1 << 8

// ecnEchoConn is a [net.UDPConn] that mirrors the ECN bits of received
// datagrams onto the socket's outgoing TOS/TCLASS byte.
type ecnEchoConn struct {
	*net.UDPConn

	// lastECN is the most recently echoed codepoint or [ecnUnset].  Reads
	// happen on the transport's receive loop, so the value is atomic.
	lastECN atomic.Uint32
}

// ReadMsgUDP implements the out-of-band reading method of [net.UDPConn] for
// *ecnEchoConn.  A datagram whose ECN bits differ from the previously echoed
// ones updates the socket marking before the datagram is returned.
func (c *ecnEchoConn) ReadMsgUDP(
	b []byte,
	oob []byte,
) (n, oobn, flags int, addr *net.UDPAddr, err error) {
	n, oobn, flags, addr, err = c.UDPConn.ReadMsgUDP(b, oob)
	if err != nil {
		return n, oobn, flags, addr, err
	}

	ecn, ecnErr := ECNFromOOB(oob[:oobn])
	if ecnErr != nil {
		// Not every datagram carries the control message; keep the current
		// marking.
		return n, oobn, flags, addr, nil
	}

	if c.lastECN.Swap(uint32(ecn)) != uint32(ecn) {
		_ = SetECN(c.UDPConn, ecn)
	}

	return n, oobn, flags, addr, nil
}

// ECNFromOOB extracts the ECN bits from the socket control messages read
// alongside a datagram.  It returns [ErrNoECN] when no TOS or TCLASS message
// is present.
func ECNFromOOB(oob []byte) (ecn uint8, err error) {
	cmsgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return 0, err
	}

	for _, cmsg := range cmsgs {
		isTOS := cmsg.Header.Level == unix.IPPROTO_IP &&
			cmsg.Header.Type == unix.IP_TOS
		isTClass := cmsg.Header.Level == unix.IPPROTO_IPV6 &&
			cmsg.Header.Type == unix.IPV6_TCLASS

		if (isTOS || isTClass) && len(cmsg.Data) > 0 {
			return cmsg.Data[0] & ECNMask, nil
		}
	}

	return 0, ErrNoECN
}
