// Package doq implements the client side of the DNS-over-QUIC transport of
// RFC 9250: a single QUIC connection carrying one query and its response per
// client-initiated bidirectional stream.
package doq

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"log/slog"
	"sync"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/zonedns/zoned/internal/netext"
)

const (
	// nextProtoDoQ is the ALPN token of the published RFC.
	nextProtoDoQ = "doq"

	// maxQUICIdleTimeout is the maximum QUIC idle timeout.
	maxQUICIdleTimeout = 5 * time.Minute

	// defaultWait is the per-operation deadline used when the configuration
	// does not set one.
	defaultWait = 10 * time.Second

	// MaxMsgSize is the maximum size of a DNS message the client sends or
	// receives, which is also the largest length the two-byte frame prefix
	// can express.
	MaxMsgSize = 65535

	// MaxPacketSize is the flow-control budget granted to the peer for the
	// response stream and connection.
	MaxPacketSize = 65535
)

// Application error codes of RFC 9250 used by this client.
const (
	// DOQCodeNoError is used when the connection or stream needs to be
	// closed, but there is no error to signal.
	DOQCodeNoError = quic.ApplicationErrorCode(0)

	// DOQCodeProtocolError signals that the peer violated the DoQ protocol,
	// for example by opening a server-initiated stream.
	DOQCodeProtocolError = quic.ApplicationErrorCode(2)
)

// compatProtoDoQ are ALPNs of the pre-RFC drafts still spoken by deployed
// servers, in order of preference.
var compatProtoDoQ = []string{"doq-i12", "doq-i11", "doq-i03"}

// State is the connection state of a [Client].  It only moves forward:
// opening, connected, closed.
type State uint8

// State values.
const (
	StateOpening State = iota
	StateConnected
	StateClosed
)

// String implements the [fmt.Stringer] interface for State.
func (s State) String() (str string) {
	switch s {
	case StateOpening:
		return "opening"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config is the configuration of a DoQ [Client].
type Config struct {
	// Logger is used for debug logging.  It must not be nil.
	Logger *slog.Logger

	// TLSConfig is the TLS configuration to use.  It may be nil, in which
	// case a default one with the DoQ ALPNs is used.
	TLSConfig *tls.Config

	// ListenConfig creates the local UDP socket.  If it is nil,
	// [netext.DefaultListenConfig] is used.
	ListenConfig netext.ListenConfig

	// Metrics observes connects and exchanges.  It must not be nil.
	Metrics Metrics

	// Wait is the wall-clock budget of each blocking operation.
	// [Client.RecvResponse] measures it from the last connection activity;
	// [Client.Connect] and [Client.SendQuery] measure it from the start of
	// the call.  Zero means a default.
	Wait time.Duration

	// MarkECN makes the client mark its outgoing datagrams with the ECT(0)
	// codepoint until the first datagram carrying ECN bits is received, and
	// from then on echo the ECN bits of received datagrams onto outgoing
	// ones, in addition to the per-packet marking done by the QUIC layer.
	MarkECN bool
}

// Client is a DNS-over-QUIC client: one QUIC connection, one in-flight query
// stream at a time.
//
// The client is not safe for concurrent use: the checker-style blocking
// operations are driven by a single caller.
type Client struct {
	logger       *slog.Logger
	metrics      Metrics
	tlsConf      *tls.Config
	listenConfig netext.ListenConfig

	// errMu protects lastErr, which is also written by the goroutine
	// guarding against peer-initiated streams.
	errMu   *sync.Mutex
	lastErr *CloseError

	transport *quic.Transport
	conn      quic.Connection
	stream    quic.Stream

	reassembler msgReassembler

	// lastActivity is the time of the last packet progress on the
	// connection; operation deadlines are measured from it.
	lastActivity time.Time

	resetKey quic.StatelessResetKey
	wait     time.Duration

	// streamID is the ID of the current query stream or -1 when no stream
	// is open.
	streamID int64

	// bytesInFlight is the number of framed query bytes not yet accepted by
	// the transport.
	bytesInFlight int

	state   State
	markECN bool
}

// New returns a new DoQ client in the opening state.
func New(c *Config) (cl *Client, err error) {
	resetKey, err := newResetKey()
	if err != nil {
		return nil, err
	}

	wait := c.Wait
	if wait == 0 {
		wait = defaultWait
	}

	lc := c.ListenConfig
	if lc == nil {
		lc = netext.DefaultListenConfig()
	}

	return &Client{
		logger:       c.Logger,
		metrics:      c.Metrics,
		tlsConf:      c.TLSConfig,
		listenConfig: lc,
		errMu:        &sync.Mutex{},
		resetKey:     resetKey,
		wait:         wait,
		streamID:     -1,
		state:        StateOpening,
		markECN:      c.MarkECN,
	}, nil
}

// newResetKey derives the stateless-reset key the way the wire spec suggests:
// a SHA-256 digest over fresh random bytes.
func newResetKey() (key quic.StatelessResetKey, err error) {
	var seed [16]byte
	_, err = rand.Read(seed[:])
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return key, err
	}

	return quic.StatelessResetKey(sha256.Sum256(seed[:])), nil
}

// State returns the connection state of the client.
func (c *Client) State() (s State) { return c.state }

// BytesInFlight returns the number of query bytes not yet accepted by the
// transport.  It is zero after a successful [Client.SendQuery]; after a
// failed one it holds the bytes of that query's frame the transport did not
// accept.
func (c *Client) BytesInFlight() (n int) { return c.bytesInFlight }

// LastError returns the most recent close error recorded by the client or
// nil if there is none.
func (c *Client) LastError() (ce *CloseError) {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	return c.lastErr
}

// setLastErr records ce as the most recent close error.
func (c *Client) setLastErr(ce *CloseError) {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	c.lastErr = ce
}
