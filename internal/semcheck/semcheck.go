// Package semcheck is the zone semantic-check engine.  It walks the zone
// contents in canonical order, applies a battery of per-node checks grouped
// by level, reports findings through a [Handler], and optionally runs a full
// DNSSEC validation pass through a [Validator].
package semcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/miekg/dns"
	"github.com/zonedns/zoned/internal/zone"
)

// Errors returned by [Checker.Check].  Findings are not errors: they are
// delivered through the handler, and only the fatal subset turns the final
// status into [ErrSemCheck].
const (
	// ErrNilHandler is returned when the handler is missing.
	ErrNilHandler errors.Error = "handler must not be nil"

	// ErrEmptyZone is returned when there are no zone contents to check.
	ErrEmptyZone errors.Error = "empty zone"

	// ErrSemCheck is returned when at least one fatal finding was reported.
	ErrSemCheck errors.Error = "zone semantic checks failed"
)

// Option selects how thorough a check run is.
type Option int

// Option values.
const (
	// OptionMandatoryOnly runs only the checks a zone must pass to load.
	OptionMandatoryOnly Option = iota

	// OptionFull adds the optional checks.
	OptionFull

	// OptionDNSSEC adds the NSEC or NSEC3 checks and the validation pass
	// unconditionally.
	OptionDNSSEC

	// OptionAutoDNSSEC behaves like [OptionDNSSEC] for signed zones and like
	// [OptionFull] for unsigned ones.
	OptionAutoDNSSEC
)

// level is the bit set of check groups enabled for a run.
type level uint8

// level values.
const (
	levelMandatory level = 1 << iota
	levelOptional
	levelNSEC
	levelNSEC3
)

// Config is the configuration of a [Checker].
type Config struct {
	// Logger is used for debug logging of check runs.  It must not be nil.
	Logger *slog.Logger

	// Validator runs the DNSSEC validation pass.  If it is nil, the pass is
	// skipped even when requested.
	Validator Validator

	// Metrics counts reported findings.  It must not be nil.
	Metrics Metrics
}

// Checker runs semantic checks on zone contents.
type Checker struct {
	logger    *slog.Logger
	validator Validator
	metrics   Metrics
}

// New returns a new properly initialized checker.
func New(c *Config) (chk *Checker) {
	return &Checker{
		logger:    c.Logger,
		validator: c.Validator,
		metrics:   c.Metrics,
	}
}

// run is the state of one check run.  It is created per call and never
// escapes it.
type run struct {
	checker *Checker
	zone    *zone.Contents
	handler *Handler
	ctx     context.Context
	now     time.Time
	level   level
}

// report delivers one finding through the handler and counts it.
func (r *run) report(owner string, code Code, info string) {
	r.handler.report(r.zone, owner, code, info)
	r.checker.metrics.OnFinding(r.ctx, code)
}

// checkFunc is one per-node check.  A non-nil error is an infrastructure
// failure that aborts the walk, not a semantic finding.
type checkFunc func(r *run, n *zone.Node) (err error)

// checkFunctions is the table of per-node checks with the levels at which
// they run.
var checkFunctions = []struct {
	fn    checkFunc
	level level
}{
	{fn: (*run).checkSOA, level: levelMandatory},
	{fn: (*run).checkCNAME, level: levelMandatory},
	{fn: (*run).checkDNAME, level: levelMandatory},
	// Mandatory for the apex, optional for the rest; see checkDelegation.
	{fn: (*run).checkDelegation, level: levelMandatory},
	{fn: (*run).checkDS, level: levelOptional},
	{fn: (*run).checkSubmission, level: levelNSEC | levelNSEC3},
}

// Check validates the semantics of z and reports findings through h.  now is
// the reference time for signature validity.  The returned error is
// [ErrSemCheck] if a fatal finding was reported, or an infrastructure error
// that aborted the run.
func (c *Checker) Check(
	ctx context.Context,
	z *zone.Contents,
	opt Option,
	h *Handler,
	now time.Time,
) (err error) {
	if h == nil || h.OnFinding == nil {
		return ErrNilHandler
	} else if z == nil {
		return ErrEmptyZone
	}

	r := &run{
		checker: c,
		zone:    z,
		handler: h,
		ctx:     ctx,
		now:     now,
		level:   levelMandatory,
	}

	wantDNSSEC := opt == OptionDNSSEC || (opt == OptionAutoDNSSEC && z.IsSigned())
	if opt != OptionMandatoryOnly {
		r.level |= levelOptional
		if wantDNSSEC {
			if nsec3param := z.Apex().RRSet(dns.TypeNSEC3PARAM); nsec3param != nil {
				r.level |= levelNSEC3
				r.checkNSEC3PARAM(nsec3param)
			} else {
				r.level |= levelNSEC
			}
		}
	}

	err = z.Walk(func(n *zone.Node) (walkErr error) {
		for _, cf := range checkFunctions {
			if cf.level&r.level == 0 {
				continue
			}

			walkErr = cf.fn(r, n)
			if walkErr != nil {
				return walkErr
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if h.FatalError() {
		return ErrSemCheck
	}

	if wantDNSSEC {
		return c.verifyDNSSEC(r)
	}

	return nil
}

// checkNSEC3PARAM runs the one-shot apex NSEC3PARAM sanity checks.
func (r *run) checkNSEC3PARAM(set *zone.RRSet) {
	param := set.At(0).(*dns.NSEC3PARAM)

	// Only the low opt-out bit is defined.
	if param.Flags&^1 != 0 {
		r.report(r.zone.Apex().Owner(), CodeNSEC3PARAMRdataFlags, "")
	}

	if param.Hash != dns.SHA1 {
		r.report(r.zone.Apex().Owner(), CodeNSEC3PARAMRdataAlg, "")
	}
}
