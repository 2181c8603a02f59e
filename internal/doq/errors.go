package doq

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/quic-go/quic-go"
)

// Runtime errors of the DoQ client.
const (
	// ErrClosed is returned by every operation on a closed client.
	ErrClosed errors.Error = "client is closed"

	// ErrNotConnected is returned when an operation requires an established
	// connection and there is none.
	ErrNotConnected errors.Error = "client is not connected"

	// ErrConnect means the QUIC connection could not be established.
	ErrConnect errors.Error = "cannot establish connection"

	// ErrSend means the query could not be written to the stream.
	ErrSend errors.Error = "cannot send query"

	// ErrRecv means the response could not be read from the stream.
	ErrRecv errors.Error = "cannot receive response"

	// ErrTimeout means the operation's wall-clock budget ran out.
	ErrTimeout errors.Error = "operation timed out"

	// ErrBusy means a new query stream could not be opened yet because the
	// peer has not extended the stream limit.
	ErrBusy errors.Error = "stream open blocked"
)

// CloseKind tags a [CloseError] as either an application-layer or a
// transport-layer close.
type CloseKind uint8

// CloseKind values.
const (
	CloseApplication CloseKind = iota
	CloseTransport
)

// String implements the [fmt.Stringer] interface for CloseKind.
func (k CloseKind) String() (str string) {
	switch k {
	case CloseApplication:
		return "application"
	case CloseTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// CloseError is the connection-close value the client records for
// diagnostics: DoQ-layer faults are application closes, crypto and QUIC
// faults are transport closes.
type CloseError struct {
	// Reason is the optional human-readable close reason.
	Reason string

	// Code is the application or transport error code.
	Code uint64

	// Kind tells the two code spaces apart.
	Kind CloseKind
}

// Error implements the error interface for *CloseError.
func (e *CloseError) Error() (msg string) {
	return fmt.Sprintf("%s close: code %d: %s", e.Kind, e.Code, e.Reason)
}

// recordQUICError records a close error derived from a fatal error returned
// by the QUIC layer.  Errors that carry no close semantics are left
// unrecorded.
func (c *Client) recordQUICError(err error) {
	var appErr *quic.ApplicationError
	var trErr *quic.TransportError

	switch {
	case errors.As(err, &appErr):
		c.setLastErr(&CloseError{
			Reason: appErr.ErrorMessage,
			Code:   uint64(appErr.ErrorCode),
			Kind:   CloseApplication,
		})
	case errors.As(err, &trErr):
		c.setLastErr(&CloseError{
			Reason: trErr.ErrorMessage,
			Code:   uint64(trErr.ErrorCode),
			Kind:   CloseTransport,
		})
	}
}
