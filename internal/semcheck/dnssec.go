package semcheck

import (
	"context"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/miekg/dns"
	"github.com/zonedns/zoned/internal/zone"
)

// Validation errors a [Validator] reports.  Anything else is treated as an
// infrastructure failure and propagated.
const (
	// ErrNoSig means a signature could not be verified.
	ErrNoSig errors.Error = "no valid signature"

	// ErrNSECBitmap means an NSEC type bitmap disagrees with the node.
	ErrNSECBitmap errors.Error = "nsec type bitmap mismatch"

	// ErrNSECChain means the NSEC chain is incoherent.
	ErrNSECChain errors.Error = "broken nsec chain"

	// ErrNSEC3OptOut means an insecure delegation is not covered by the
	// NSEC3 opt-out.
	ErrNSEC3OptOut errors.Error = "insecure delegation outside nsec3 opt-out"

	// ErrInvalidPublicKey means a DNSKEY could not be parsed into a usable
	// public key.
	ErrInvalidPublicKey errors.Error = "invalid public key"
)

// Hint points at the zone node and RR type a validation failure concerns.
type Hint struct {
	// Owner is the canonical owner name of the offending node.
	Owner string

	// RRType is the offending RR type.
	RRType uint16
}

// Validator runs a full DNSSEC validation pass over zone contents.  now is
// the reference time for signature validity windows.  When validation finds
// an issue with a particular node, the validator returns a non-nil hint
// together with one of the validation errors above.
type Validator interface {
	Validate(ctx context.Context, z *zone.Contents, now time.Time) (hint *Hint, err error)
}

// codeFromValidationError maps a validator error to a finding code.
func codeFromValidationError(err error) (code Code) {
	switch {
	case errors.Is(err, ErrNoSig):
		return CodeRRSIGUnverifiable
	case errors.Is(err, ErrNSECBitmap):
		return CodeNSECRdataBitmap
	case errors.Is(err, ErrNSECChain):
		return CodeNSECRdataChain
	case errors.Is(err, ErrNSEC3OptOut):
		return CodeNSEC3InsecureDelegationOpt
	default:
		return CodeUnknown
	}
}

// verifyDNSSEC runs the validation pass and translates its outcome into
// findings.  A hinted failure becomes a finding at the hinted node; a key
// parsing failure becomes a finding at the apex; everything else is an
// infrastructure error.
func (c *Checker) verifyDNSSEC(r *run) (err error) {
	if c.validator == nil {
		c.logger.DebugContext(r.ctx, "dnssec validation requested but no validator configured")

		return nil
	}

	hint, err := c.validator.Validate(r.ctx, r.zone, r.now)
	if hint != nil {
		r.report(hint.Owner, codeFromValidationError(err), dns.TypeToString[hint.RRType])

		return nil
	}

	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidPublicKey) {
		r.report(r.zone.Apex().Owner(), CodeDNSKEYInvalid, "")

		return nil
	}

	c.logger.ErrorContext(r.ctx, "dnssec validation failed", slogutil.KeyError, err)

	return err
}
