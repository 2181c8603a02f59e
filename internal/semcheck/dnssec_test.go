package semcheck_test

import (
	"context"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zonedns/zoned/internal/semcheck"
	"github.com/zonedns/zoned/internal/zone"
)

// fakeValidator is a [semcheck.Validator] for tests.
type fakeValidator struct {
	onValidate func(
		ctx context.Context,
		z *zone.Contents,
		now time.Time,
	) (hint *semcheck.Hint, err error)
}

// type check
var _ semcheck.Validator = (*fakeValidator)(nil)

// Validate implements the [semcheck.Validator] interface for *fakeValidator.
func (v *fakeValidator) Validate(
	ctx context.Context,
	z *zone.Contents,
	now time.Time,
) (hint *semcheck.Hint, err error) {
	return v.onValidate(ctx, z, now)
}

// newValidZone returns a zone that passes all structural checks so that the
// validation pass is reached.
func newValidZone(tb testing.TB) (z *zone.Contents) {
	tb.Helper()

	return newTestContents(
		tb,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
	)
}

func TestChecker_Check_validatorHint(t *testing.T) {
	testCases := []struct {
		valErr   error
		name     string
		wantCode semcheck.Code
	}{{
		valErr:   semcheck.ErrNoSig,
		name:     "no_sig",
		wantCode: semcheck.CodeRRSIGUnverifiable,
	}, {
		valErr:   semcheck.ErrNSECBitmap,
		name:     "nsec_bitmap",
		wantCode: semcheck.CodeNSECRdataBitmap,
	}, {
		valErr:   semcheck.ErrNSECChain,
		name:     "nsec_chain",
		wantCode: semcheck.CodeNSECRdataChain,
	}, {
		valErr:   semcheck.ErrNSEC3OptOut,
		name:     "nsec3_optout",
		wantCode: semcheck.CodeNSEC3InsecureDelegationOpt,
	}, {
		valErr:   errors.Error("something else"),
		name:     "unknown",
		wantCode: semcheck.CodeUnknown,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeValidator{
				onValidate: func(
					_ context.Context,
					_ *zone.Contents,
					_ time.Time,
				) (hint *semcheck.Hint, err error) {
					return &semcheck.Hint{
						Owner:  "bad.example.com.",
						RRType: dns.TypeMX,
					}, tc.valErr
				},
			}

			findings, err := collectFindings(
				t,
				newTestChecker(v),
				newValidZone(t),
				semcheck.OptionDNSSEC,
			)
			require.NoError(t, err)

			require.Len(t, findings, 1)
			assert.Equal(t, tc.wantCode, findings[0].Code)
			assert.Equal(t, "bad.example.com.", findings[0].Owner)
			assert.Equal(t, "MX", findings[0].Info)
		})
	}
}

func TestChecker_Check_validatorInvalidKey(t *testing.T) {
	v := &fakeValidator{
		onValidate: func(
			_ context.Context,
			_ *zone.Contents,
			_ time.Time,
		) (hint *semcheck.Hint, err error) {
			return nil, semcheck.ErrInvalidPublicKey
		},
	}

	findings, err := collectFindings(t, newTestChecker(v), newValidZone(t), semcheck.OptionDNSSEC)
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeDNSKEYInvalid, findings[0].Code)
	assert.Equal(t, testOrigin, findings[0].Owner)
}

func TestChecker_Check_validatorFailure(t *testing.T) {
	const errTest errors.Error = "validator infrastructure broke"

	v := &fakeValidator{
		onValidate: func(
			_ context.Context,
			_ *zone.Contents,
			_ time.Time,
		) (hint *semcheck.Hint, err error) {
			return nil, errTest
		},
	}

	findings, err := collectFindings(t, newTestChecker(v), newValidZone(t), semcheck.OptionDNSSEC)
	assert.ErrorIs(t, err, errTest)
	assert.Empty(t, findings)
}

func TestChecker_Check_validatorSkippedOnUnsigned(t *testing.T) {
	var called bool
	v := &fakeValidator{
		onValidate: func(
			_ context.Context,
			_ *zone.Contents,
			_ time.Time,
		) (hint *semcheck.Hint, err error) {
			called = true

			return nil, nil
		},
	}

	// Auto mode on an unsigned zone must not validate.
	_, err := collectFindings(t, newTestChecker(v), newValidZone(t), semcheck.OptionAutoDNSSEC)
	require.NoError(t, err)
	assert.False(t, called)

	// Explicit DNSSEC mode must.
	_, err = collectFindings(t, newTestChecker(v), newValidZone(t), semcheck.OptionDNSSEC)
	require.NoError(t, err)
	assert.True(t, called)
}
