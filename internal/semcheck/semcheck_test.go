package semcheck_test

import (
	"context"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zonedns/zoned/internal/semcheck"
	"github.com/zonedns/zoned/internal/zone"
)

// testOrigin is the zone name used by the tests in this package.
const testOrigin = "example.com."

// testSOA is the apex SOA most test zones start from.
const testSOA = testOrigin +
	" 3600 IN SOA ns1.example.com. host.example.com. 1 900 300 604800 900"

// testNow is the reference time for check runs.
var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// newTestContents returns zone contents with all the given records inserted.
func newTestContents(tb testing.TB, rrs ...string) (z *zone.Contents) {
	tb.Helper()

	z = zone.New(testOrigin)
	for _, s := range rrs {
		rr, err := dns.NewRR(s)
		require.NoError(tb, err)
		require.NoError(tb, z.Insert(rr))
	}

	return z
}

// collectFindings runs chk on z and returns the findings in callback order.
func collectFindings(
	tb testing.TB,
	chk *semcheck.Checker,
	z *zone.Contents,
	opt semcheck.Option,
) (findings []*semcheck.Finding, err error) {
	tb.Helper()

	h := &semcheck.Handler{
		OnFinding: func(_ *zone.Contents, f *semcheck.Finding) {
			findings = append(findings, f)
		},
	}

	err = chk.Check(context.Background(), z, opt, h, testNow)

	return findings, err
}

// newTestChecker returns a checker with a discard logger and empty metrics.
func newTestChecker(v semcheck.Validator) (chk *semcheck.Checker) {
	return semcheck.New(&semcheck.Config{
		Logger:    slogutil.NewDiscardLogger(),
		Validator: v,
		Metrics:   semcheck.EmptyMetrics{},
	})
}

func TestChecker_Check_args(t *testing.T) {
	chk := newTestChecker(nil)

	err := chk.Check(context.Background(), zone.New(testOrigin), semcheck.OptionFull, nil, testNow)
	assert.ErrorIs(t, err, semcheck.ErrNilHandler)

	h := &semcheck.Handler{
		OnFinding: func(_ *zone.Contents, _ *semcheck.Finding) {},
	}
	err = chk.Check(context.Background(), nil, semcheck.OptionFull, h, testNow)
	assert.ErrorIs(t, err, semcheck.ErrEmptyZone)
}

func TestChecker_Check_soaNone(t *testing.T) {
	// Apex with only an out-of-zone NS and no SOA.
	z := newTestContents(t, testOrigin+" 3600 IN NS ns1.example.net.")

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionMandatoryOnly)
	assert.ErrorIs(t, err, semcheck.ErrSemCheck)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeSOANone, findings[0].Code)
	assert.Equal(t, testOrigin, findings[0].Owner)
}

func TestChecker_Check_cnameExtraRecords(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		"a.example.com. 3600 IN CNAME b.example.com.",
		"a.example.com. 3600 IN A 192.0.2.1",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionMandatoryOnly)
	assert.ErrorIs(t, err, semcheck.ErrSemCheck)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeCNAMEExtraRecords, findings[0].Code)
	assert.Equal(t, "a.example.com.", findings[0].Owner)
}

func TestChecker_Check_cnameMultiple(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		"a.example.com. 3600 IN CNAME b.example.com.",
		"a.example.com. 3600 IN CNAME c.example.com.",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionMandatoryOnly)
	assert.ErrorIs(t, err, semcheck.ErrSemCheck)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeCNAMEMultiple, findings[0].Code)
}

func TestChecker_Check_dname(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		"redir.example.com. 3600 IN DNAME target.example.net.",
		"redir.example.com. 3600 IN NS ns1.example.net.",
		"child.redir.example.com. 3600 IN A 192.0.2.1",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionMandatoryOnly)
	assert.ErrorIs(t, err, semcheck.ErrSemCheck)

	codes := findingCodes(findings)
	assert.Contains(t, codes, semcheck.CodeDNAMEExtraNS)
	assert.Contains(t, codes, semcheck.CodeDNAMEChildren)
}

// findingCodes returns just the codes of findings.
func findingCodes(findings []*semcheck.Finding) (codes []semcheck.Code) {
	for _, f := range findings {
		codes = append(codes, f.Code)
	}

	return codes
}

func TestChecker_Check_nsGlue(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		// Delegation whose in-zone NS target has no address records.
		"sub.example.com. 3600 IN NS ns1.sub.example.com.",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionFull)
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeNSGlue, findings[0].Code)
	assert.Equal(t, "sub.example.com.", findings[0].Owner)
}

func TestChecker_Check_nsGlue_wildcard(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		"sub.example.com. 3600 IN NS ns9.sub.example.com.",
		"*.sub.example.com. 3600 IN A 192.0.2.1",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionFull)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestChecker_Check_nsApex(t *testing.T) {
	z := newTestContents(t, testSOA)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionMandatoryOnly)
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeNSApex, findings[0].Code)
}

func TestChecker_Check_dsDigestLength(t *testing.T) {
	// 31 bytes of digest where SHA-256 requires 32.
	shortDigest := ""
	for range 31 {
		shortDigest += "ab"
	}

	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		"sub.example.com. 3600 IN NS ns1.example.net.",
		"sub.example.com. 3600 IN DS 12345 8 2 "+shortDigest,
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionFull)
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeDSRdataDiglen, findings[0].Code)
	assert.Equal(t, "(keytag 12345)", findings[0].Info)
}

func TestChecker_Check_dsDigestAlg(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		"sub.example.com. 3600 IN NS ns1.example.net.",
		"sub.example.com. 3600 IN DS 12345 8 250 abcdef",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionFull)
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, semcheck.CodeDSRdataAlg, findings[0].Code)
	assert.Equal(t, "(keytag 12345)", findings[0].Info)
}

func TestChecker_Check_nsec3paramAlg(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		testOrigin+" 0 IN NSEC3PARAM 2 0 10 AABBCCDD",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionDNSSEC)
	require.NoError(t, err)

	codes := findingCodes(findings)
	assert.Contains(t, codes, semcheck.CodeNSEC3PARAMRdataAlg)
	assert.NotContains(t, codes, semcheck.CodeNSEC3PARAMRdataFlags)
}

func TestChecker_Check_nsec3paramFlags(t *testing.T) {
	z := newTestContents(
		t,
		testSOA,
		testOrigin+" 3600 IN NS ns1.example.net.",
		testOrigin+" 0 IN NSEC3PARAM 1 2 10 AABBCCDD",
	)

	findings, err := collectFindings(t, newTestChecker(nil), z, semcheck.OptionDNSSEC)
	require.NoError(t, err)

	codes := findingCodes(findings)
	assert.Contains(t, codes, semcheck.CodeNSEC3PARAMRdataFlags)
	assert.NotContains(t, codes, semcheck.CodeNSEC3PARAMRdataAlg)
}

func TestChecker_Check_idempotent(t *testing.T) {
	z := newTestContents(
		t,
		testOrigin+" 3600 IN NS ns1.example.net.",
		"a.example.com. 3600 IN CNAME b.example.com.",
		"a.example.com. 3600 IN A 192.0.2.1",
	)

	chk := newTestChecker(nil)

	first, err := collectFindings(t, chk, z, semcheck.OptionFull)
	assert.ErrorIs(t, err, semcheck.ErrSemCheck)

	second, err := collectFindings(t, chk, z, semcheck.OptionFull)
	assert.ErrorIs(t, err, semcheck.ErrSemCheck)

	assert.Equal(t, first, second)
}
