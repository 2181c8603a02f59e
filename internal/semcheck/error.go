package semcheck

// Code identifies one kind of semantic finding.  The set is closed: every
// handler callback carries one of the values below.
type Code int

// Semantic finding codes.
const (
	// CodeUnknown is the sentinel for unclassified findings.
	CodeUnknown Code = iota

	CodeSOANone

	CodeCNAMEExtraRecords
	CodeCNAMEMultiple

	CodeDNAMEChildren
	CodeDNAMEMultiple
	CodeDNAMEExtraNS

	CodeNSApex
	CodeNSGlue

	CodeRRSIGRdataTypeCovered
	CodeRRSIGRdataTTL
	CodeRRSIGRdataExpiration
	CodeRRSIGRdataInception
	CodeRRSIGRdataLabels
	CodeRRSIGRdataOwner
	CodeRRSIGNoRRSIG
	CodeRRSIGSigned
	CodeRRSIGUnverifiable

	CodeNSECNone
	CodeNSECRdataBitmap
	CodeNSECRdataMultiple
	CodeNSECRdataChain

	CodeNSEC3None
	CodeNSEC3InsecureDelegationOpt
	CodeNSEC3ExtraRecord
	CodeNSEC3RdataTTL
	CodeNSEC3RdataChain
	CodeNSEC3RdataBitmap
	CodeNSEC3RdataFlags
	CodeNSEC3RdataSalt
	CodeNSEC3RdataAlg
	CodeNSEC3RdataIters

	CodeNSEC3PARAMRdataFlags
	CodeNSEC3PARAMRdataAlg

	CodeDSRdataAlg
	CodeDSRdataDiglen

	CodeDNSKEYNone
	CodeDNSKEYInvalid
	CodeDNSKEYRdataProtocol

	CodeCDSNone
	CodeCDSNotMatch

	CodeCDNSKEYNone
	CodeCDNSKEYNoDNSKEY
	CodeCDNSKEYNoCDS
	CodeCDNSKEYInvalidDelete
)

// codeMessages are the one-line descriptions of the finding codes.  The
// strings are stable and used verbatim in logs and tool output.
var codeMessages = map[Code]string{
	CodeSOANone: "missing SOA at the zone apex",

	CodeCNAMEExtraRecords: "more records exist at CNAME",
	CodeCNAMEMultiple:     "multiple CNAME records",

	CodeDNAMEChildren: "child record exists under DNAME",
	CodeDNAMEMultiple: "multiple DNAME records",
	CodeDNAMEExtraNS:  "NS record exists at DNAME",

	CodeNSApex: "missing NS at the zone apex",
	CodeNSGlue: "missing glue record",

	CodeRRSIGRdataTypeCovered: "wrong type covered in RRSIG",
	CodeRRSIGRdataTTL:         "wrong original TTL in RRSIG",
	CodeRRSIGRdataExpiration:  "expired RRSIG",
	CodeRRSIGRdataInception:   "RRSIG inception in the future",
	CodeRRSIGRdataLabels:      "wrong labels in RRSIG",
	CodeRRSIGRdataOwner:       "wrong signer's name in RRSIG",
	CodeRRSIGNoRRSIG:          "missing RRSIG",
	CodeRRSIGSigned:           "signed RRSIG",
	CodeRRSIGUnverifiable:     "unverifiable signature",

	CodeNSECNone:          "missing NSEC",
	CodeNSECRdataBitmap:   "incorrect type bitmap in NSEC",
	CodeNSECRdataMultiple: "multiple NSEC records",
	CodeNSECRdataChain:    "incoherent NSEC chain",

	CodeNSEC3None:                  "missing NSEC3",
	CodeNSEC3InsecureDelegationOpt: "insecure delegation outside NSEC3 opt-out",
	CodeNSEC3ExtraRecord:           "invalid record type in NSEC3 chain",
	CodeNSEC3RdataTTL:              "inconsistent TTL for NSEC3 and minimum TTL in SOA",
	CodeNSEC3RdataChain:            "incoherent NSEC3 chain",
	CodeNSEC3RdataBitmap:           "incorrect type bitmap in NSEC3",
	CodeNSEC3RdataFlags:            "incorrect flags in NSEC3",
	CodeNSEC3RdataSalt:             "incorrect salt in NSEC3",
	CodeNSEC3RdataAlg:              "incorrect algorithm in NSEC3",
	CodeNSEC3RdataIters:            "incorrect number of iterations in NSEC3",

	CodeNSEC3PARAMRdataFlags: "invalid flags in NSEC3PARAM",
	CodeNSEC3PARAMRdataAlg:   "invalid algorithm in NSEC3PARAM",

	CodeDSRdataAlg:    "invalid algorithm in DS",
	CodeDSRdataDiglen: "invalid digest length in DS",

	CodeDNSKEYNone:          "missing DNSKEY",
	CodeDNSKEYInvalid:       "invalid DNSKEY",
	CodeDNSKEYRdataProtocol: "invalid protocol in DNSKEY",

	CodeCDSNone:     "missing CDS",
	CodeCDSNotMatch: "CDS not match CDNSKEY",

	CodeCDNSKEYNone:          "missing CDNSKEY",
	CodeCDNSKEYNoDNSKEY:      "CDNSKEY not match DNSKEY",
	CodeCDNSKEYNoCDS:         "CDNSKEY without corresponding CDS",
	CodeCDNSKEYInvalidDelete: "invalid CDNSKEY/CDS for DNSSEC delete algorithm",

	CodeUnknown: "unknown error",
}

// String implements the [fmt.Stringer] interface for Code.
func (c Code) String() (msg string) {
	msg, ok := codeMessages[c]
	if !ok {
		return codeMessages[CodeUnknown]
	}

	return msg
}

// IsFatal reports whether a finding of this code makes the zone unloadable.
// Only the structural SOA, CNAME, and DNAME violations do.
func (c Code) IsFatal() (ok bool) {
	switch c {
	case
		CodeSOANone,
		CodeCNAMEExtraRecords,
		CodeCNAMEMultiple,
		CodeDNAMEChildren,
		CodeDNAMEMultiple,
		CodeDNAMEExtraNS:
		return true
	default:
		return false
	}
}
