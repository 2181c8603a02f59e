package doq

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/miekg/dns"
	"github.com/quic-go/quic-go"
	"github.com/zonedns/zoned/internal/netext"
)

// illegalPeerStreamReason is the close reason recorded when the server tries
// to open a stream of its own.
const illegalPeerStreamReason = "Server can't open streams."

// Connect establishes the QUIC connection to addr, a "host:port" UDP
// address, and moves the client to the connected state.  Calling Connect on
// a connected client is a no-op; calling it on a closed one returns
// [ErrClosed].
func (c *Client) Connect(ctx context.Context, addr string) (err error) {
	start := time.Now()
	defer func() { c.metrics.OnConnect(ctx, time.Since(start), err) }()

	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateConnected:
		return nil
	}

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("%w: resolving %q: %w", ErrConnect, addr, err)
	}

	pc, err := c.listenConfig.ListenPacket(ctx, "udp", ":0")
	if err != nil {
		return fmt.Errorf("%w: creating socket: %w", ErrConnect, err)
	}

	if c.markECN {
		if udpConn, ok := pc.(*net.UDPConn); ok {
			err = netext.SetECN(udpConn, netext.ECNECT0)
			if err != nil {
				c.logger.DebugContext(ctx, "marking ecn", slogutil.KeyError, err)
			}

			// Echo the ECN bits of received datagrams back onto outgoing
			// ones.
			pc = netext.WrapECNEcho(udpConn)
		}
	}

	tr := &quic.Transport{
		Conn:              pc,
		StatelessResetKey: &c.resetKey,
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.wait)
	defer cancel()

	conn, err := tr.Dial(dialCtx, raddr, c.clientTLSConfig(), newClientQUICConfig(c.wait))
	if err != nil {
		err = errors.WithDeferred(err, tr.Close())
		err = errors.WithDeferred(err, pc.Close())
		c.recordQUICError(err)

		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: handshake: %w", ErrTimeout, err)
		}

		return fmt.Errorf("%w: %w", ErrConnect, err)
	}

	c.transport = tr
	c.conn = conn
	c.state = StateConnected
	c.lastActivity = time.Now()

	go c.rejectPeerStreams(conn)

	return nil
}

// clientTLSConfig returns a copy of the configured TLS configuration with
// the DoQ ALPNs and TLS 1.3 enforced.
func (c *Client) clientTLSConfig() (conf *tls.Config) {
	conf = c.tlsConf.Clone()
	if conf == nil {
		conf = &tls.Config{}
	}

	if len(conf.NextProtos) == 0 {
		conf.NextProtos = append([]string{nextProtoDoQ}, compatProtoDoQ...)
	}

	if conf.MinVersion < tls.VersionTLS13 {
		conf.MinVersion = tls.VersionTLS13
	}

	return conf
}

// newClientQUICConfig returns the QUIC configuration of the client: no
// peer-initiated streams, flow control granted per [MaxPacketSize], and the
// handshake bounded by the operation budget.
func newClientQUICConfig(wait time.Duration) (conf *quic.Config) {
	return &quic.Config{
		HandshakeIdleTimeout:           wait,
		MaxIdleTimeout:                 maxQUICIdleTimeout,
		MaxIncomingStreams:             -1,
		MaxIncomingUniStreams:          -1,
		InitialStreamReceiveWindow:     MaxPacketSize,
		InitialConnectionReceiveWindow: MaxPacketSize,
		KeepAlivePeriod:                0,
	}
}

// rejectPeerStreams waits for the server to open a stream, which RFC 9250
// forbids, and aborts the connection when it happens.  It returns when the
// connection is closed.
func (c *Client) rejectPeerStreams(conn quic.Connection) {
	_, err := conn.AcceptStream(context.Background())
	if err != nil {
		// Connection closed; nothing to guard anymore.
		return
	}

	c.closeIllegalPeerStream(conn)
}

// connCloser is the part of [quic.Connection] the peer-stream guard needs.
type connCloser interface {
	CloseWithError(code quic.ApplicationErrorCode, reason string) (err error)
}

// closeIllegalPeerStream records the application close for a peer-initiated
// stream and aborts the connection.
func (c *Client) closeIllegalPeerStream(conn connCloser) {
	c.setLastErr(&CloseError{
		Reason: illegalPeerStreamReason,
		Code:   uint64(DOQCodeProtocolError),
		Kind:   CloseApplication,
	})

	err := conn.CloseWithError(DOQCodeProtocolError, illegalPeerStreamReason)
	if err != nil {
		c.logger.Debug("closing connection", slogutil.KeyError, err)
	}
}

// SendQuery opens the next client-initiated bidirectional stream and writes
// query, a packed DNS message, onto it with the DoQ length prefix and a
// FIN.  On return the whole frame has been handed to the transport and
// [Client.BytesInFlight] is zero.
func (c *Client) SendQuery(ctx context.Context, query []byte) (err error) {
	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateOpening:
		return ErrNotConnected
	}

	if len(query) > MaxMsgSize {
		return fmt.Errorf("%w: query of %d bytes does not fit the frame", ErrSend, len(query))
	}

	openCtx, cancel := context.WithTimeout(ctx, c.wait)
	defer cancel()

	stream, err := c.conn.OpenStreamSync(openCtx)
	if err != nil {
		c.recordQUICError(err)
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrBusy, err)
		}

		return fmt.Errorf("%w: opening stream: %w", ErrSend, err)
	}

	id := int64(stream.StreamID())
	if id%4 != 0 {
		// Must not happen: QUIC assigns client-initiated bidirectional
		// streams IDs divisible by four.
		c.closeIllegalPeerStream(c.conn)

		return fmt.Errorf("%w: unexpected stream id %d", ErrSend, id)
	}

	c.stream = stream
	c.streamID = id
	c.reassembler.reset()

	framed := packWithPrefix(query)
	c.bytesInFlight = len(framed)

	_ = stream.SetWriteDeadline(time.Now().Add(c.wait))

	n, err := stream.Write(framed)
	c.bytesInFlight -= n
	if err != nil {
		c.recordQUICError(err)

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("%w: writing query: %w", ErrTimeout, err)
		}

		return fmt.Errorf("%w: %w", ErrSend, err)
	}

	// Send the FIN: the client MUST indicate through the STREAM FIN
	// mechanism that no further data will be sent on the stream.
	err = stream.Close()
	if err != nil {
		c.recordQUICError(err)

		return fmt.Errorf("%w: closing stream: %w", ErrSend, err)
	}

	c.lastActivity = time.Now()

	return nil
}

// RecvResponse returns the next complete DNS message from the current query
// stream.  It blocks until a message is reassembled, the stream ends, or the
// wall-clock budget measured from the last connection activity runs out.
func (c *Client) RecvResponse(ctx context.Context) (resp []byte, err error) {
	switch c.state {
	case StateClosed:
		return nil, ErrClosed
	case StateOpening:
		return nil, ErrNotConnected
	}

	if msg, ok := c.reassembler.next(); ok {
		return msg, nil
	}

	if c.stream == nil {
		return nil, fmt.Errorf("%w: no outstanding query", ErrNotConnected)
	}

	stream := c.stream
	buf := make([]byte, 4096)
	for {
		deadline := c.lastActivity.Add(c.wait)
		_ = stream.SetReadDeadline(deadline)

		var n int
		n, err = stream.Read(buf)
		if n > 0 {
			c.lastActivity = time.Now()
			c.reassembler.write(buf[:n])
			if msg, ok := c.reassembler.next(); ok {
				return msg, nil
			}
		}

		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			// Stream is done; the current stream ID is no longer valid.
			c.stream = nil
			c.streamID = -1

			if c.reassembler.pendingLen() != 0 {
				return nil, fmt.Errorf("%w: stream ended mid-message", ErrRecv)
			}

			return nil, fmt.Errorf("%w: stream ended without a response", ErrRecv)
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		c.recordQUICError(err)

		return nil, fmt.Errorf("%w: %w", ErrRecv, err)
	}
}

// Exchange performs one DoQ transaction: it packs req, sends it on a fresh
// stream, and unpacks the response.  Per RFC 9250 the message ID is zero on
// the wire and restored on the response.
func (c *Client) Exchange(ctx context.Context, req *dns.Msg) (resp *dns.Msg, err error) {
	start := time.Now()
	defer func() { c.metrics.OnExchange(ctx, time.Since(start), err) }()

	buf, err := req.Pack()
	if err != nil {
		return nil, fmt.Errorf("packing query: %w", err)
	}

	reqID := req.Id
	buf[0], buf[1] = 0, 0

	err = c.SendQuery(ctx, buf)
	if err != nil {
		return nil, err
	}

	respBuf, err := c.RecvResponse(ctx)
	if err != nil {
		return nil, err
	}

	resp = &dns.Msg{}
	err = resp.Unpack(respBuf)
	if err != nil {
		return nil, fmt.Errorf("%w: unpacking response: %w", ErrRecv, err)
	}

	resp.Id = reqID

	return resp, nil
}

// Close moves the client to the closed state, closing the QUIC connection
// with [DOQCodeNoError] and releasing the UDP socket.  The closed state is
// terminal; Close itself is idempotent.
func (c *Client) Close() (err error) {
	if c.state == StateClosed {
		return nil
	}

	c.state = StateClosed
	c.stream = nil
	c.streamID = -1

	if c.conn != nil {
		err = c.conn.CloseWithError(DOQCodeNoError, "")
	}

	if c.transport != nil {
		err = errors.WithDeferred(err, c.transport.Close())
		err = errors.WithDeferred(err, c.transport.Conn.Close())
	}

	return errors.Annotate(err, "closing doq client: %w")
}
