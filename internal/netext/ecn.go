package netext

import (
	"github.com/AdguardTeam/golibs/errors"
)

// ECN codepoints, the two low bits of the IP TOS/TCLASS byte.
const (
	// ECNNotECT marks a packet from a transport that is not ECN-capable.
	ECNNotECT uint8 = 0b00

	// ECNECT1 is the ECT(1) codepoint.
	ECNECT1 uint8 = 0b01

	// ECNECT0 is the ECT(0) codepoint.
	ECNECT0 uint8 = 0b10

	// ECNCE is the congestion-experienced codepoint.
	ECNCE uint8 = 0b11

	// ECNMask extracts the ECN bits from a TOS/TCLASS byte.
	ECNMask uint8 = 0b11
)

// Errors returned by the ECN helpers.
const (
	// ErrNoECN is returned by [ECNFromOOB] when the control messages carry
	// no TOS or TCLASS data.
	ErrNoECN errors.Error = "no ecn control message"

	// ErrUnsupportedFamily is returned for sockets of an address family the
	// ECN helpers do not support.
	ErrUnsupportedFamily errors.Error = "unsupported address family"
)
