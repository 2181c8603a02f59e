package semcheck

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"github.com/zonedns/zoned/internal/zone"
)

// checkSOA verifies that the apex carries an SOA RRSet.  Its absence is
// fatal.
func (r *run) checkSOA(n *zone.Node) (err error) {
	if !n.IsApex() {
		return nil
	}

	if !n.HasType(dns.TypeSOA) {
		r.report(n.Owner(), CodeSOANone, "")
	}

	return nil
}

// checkCNAME verifies that a CNAME owner carries nothing else.  With DNSSEC
// the node may additionally carry an NSEC and an RRSIG set.
func (r *run) checkCNAME(n *zone.Node) (err error) {
	cnames := n.RRSet(dns.TypeCNAME)
	if cnames == nil {
		return nil
	}

	rrsetLimit := 1
	if n.HasType(dns.TypeNSEC) {
		rrsetLimit++
	}
	if n.HasType(dns.TypeRRSIG) {
		rrsetLimit++
	}

	if n.RRSetCount() > rrsetLimit {
		r.report(n.Owner(), CodeCNAMEExtraRecords, "")
	}
	if cnames.Count() != 1 {
		r.report(n.Owner(), CodeCNAMEMultiple, "")
	}

	return nil
}

// checkDNAME verifies the RFC 6672 constraints on a DNAME owner: no NS set
// outside the apex, no children, and a single record.
func (r *run) checkDNAME(n *zone.Node) (err error) {
	dnames := n.RRSet(dns.TypeDNAME)
	if dnames == nil {
		return nil
	}

	isApex := n.IsApex()
	if !isApex && n.HasType(dns.TypeNS) {
		r.report(n.Owner(), CodeDNAMEExtraNS, "")
	}

	// An apex with an NSEC3 side node is allowed one child.  Side nodes are
	// not counted in Children, so that child is an authoritative node.
	allowedChildren := 0
	if isApex && n.NSEC3Node() != nil {
		allowedChildren = 1
	}
	if n.Children() > allowedChildren {
		r.report(n.Owner(), CodeDNAMEChildren, "")
	}

	if dnames.Count() != 1 {
		r.report(n.Owner(), CodeDNAMEMultiple, "")
	}

	return nil
}

// checkDelegation verifies that the apex has an NS RRSet and that every
// in-zone NS target resolves to glue addresses.  The apex is always checked;
// other delegations only at the optional level.
func (r *run) checkDelegation(n *zone.Node) (err error) {
	if n.Flags()&zone.FlagDelegation == 0 && !n.IsApex() {
		return nil
	}

	if r.level&levelOptional == 0 && !n.IsApex() {
		return nil
	}

	nss := n.RRSet(dns.TypeNS)
	if nss == nil {
		r.report(n.Owner(), CodeNSApex, "")

		return nil
	}

	for i := range nss.Count() {
		target := nss.At(i).(*dns.NS).Ns

		var glue *zone.Node
		status, found, encloser := r.zone.FindName(target)
		switch status {
		case zone.FindOutOfZone:
			// NS is out of bailiwick.
			continue
		case zone.FindFound:
			glue = found
		case zone.FindNotFound:
			if encloser != n && encloser.Flags()&(zone.FlagDelegation|zone.FlagNonAuth) != 0 {
				// NS is below another delegation.
				continue
			}

			// The target may still be covered by a wildcard.
			glue = r.zone.Node("*." + encloser.Owner())
		}

		if !glue.HasType(dns.TypeA) && !glue.HasType(dns.TypeAAAA) {
			r.report(n.Owner(), CodeNSGlue, "")
		}
	}

	return nil
}

// dsDigestSizes maps supported DS digest algorithms to their digest lengths
// in bytes.
var dsDigestSizes = map[uint8]int{
	dns.SHA1:   20,
	dns.SHA256: 32,
	dns.GOST94: 32,
	dns.SHA384: 48,
}

// checkDS verifies the digest algorithm and digest length of every DS record
// at the node.
func (r *run) checkDS(n *zone.Node) (err error) {
	dss := n.RRSet(dns.TypeDS)
	if dss == nil {
		return nil
	}

	for i := range dss.Count() {
		ds := dss.At(i).(*dns.DS)
		info := fmt.Sprintf("(keytag %d)", ds.KeyTag)

		wantLen, ok := dsDigestSizes[ds.DigestType]
		if !ok {
			r.report(n.Owner(), CodeDSRdataAlg, info)
		} else if len(ds.Digest)/2 != wantLen {
			r.report(n.Owner(), CodeDSRdataDiglen, info)
		}
	}

	return nil
}

// The DNSSEC delete signals of RFC 8078: wire rdata of "CDS 0 0 0 00" and
// "CDNSKEY 0 3 0 AA==".
var (
	deleteCDSRdata     = []byte{0x00, 0x00, 0x00, 0x00, 0x00}
	deleteCDNSKEYRdata = []byte{0x00, 0x00, 0x03, 0x00, 0x00}
)

// checkSubmission verifies the CDS/CDNSKEY submission records against each
// other and against the apex DNSKEY set.
func (r *run) checkSubmission(n *zone.Node) (err error) {
	cdss := n.RRSet(dns.TypeCDS)
	cdnskeys := n.RRSet(dns.TypeCDNSKEY)
	switch {
	case cdss == nil && cdnskeys == nil:
		return nil
	case cdss == nil:
		r.report(n.Owner(), CodeCDSNone, "")

		return nil
	case cdnskeys == nil:
		r.report(n.Owner(), CodeCDNSKEYNone, "")

		return nil
	}

	dnskeys := r.zone.Apex().RRSet(dns.TypeDNSKEY)
	if dnskeys == nil {
		r.report(n.Owner(), CodeDNSKEYNone, "")
	}

	var deleteCDS, deleteCDNSKEY bool

	// Check every CDNSKEY for a byte-identical DNSKEY.
	for i := range cdnskeys.Count() {
		var rdata []byte
		rdata, err = cdnskeys.RdataAt(i)
		if err != nil {
			return err
		}

		if bytes.Equal(rdata, deleteCDNSKEYRdata) {
			deleteCDNSKEY = true

			continue
		}

		var match bool
		for j := 0; dnskeys != nil && j < dnskeys.Count(); j++ {
			var keyRdata []byte
			keyRdata, err = dnskeys.RdataAt(j)
			if err != nil {
				return err
			}

			if bytes.Equal(rdata, keyRdata) {
				match = true

				break
			}
		}
		if !match {
			r.report(n.Owner(), CodeCDNSKEYNoDNSKEY, "")
		}
	}

	// Check every CDS against the DS computed from some CDNSKEY with the
	// CDS's own digest type.
	for i := range cdss.Count() {
		var rdata []byte
		rdata, err = cdss.RdataAt(i)
		if err != nil {
			return err
		}

		if bytes.Equal(rdata, deleteCDSRdata) {
			deleteCDS = true

			continue
		}

		cds := cdss.At(i).(*dns.CDS)
		var match bool
		for j := range cdnskeys.Count() {
			cdnskey, ok := cdnskeys.At(j).(*dns.CDNSKEY)
			if !ok {
				continue
			}

			if dsMatchesKey(cds, cdnskey, r.zone.Origin()) {
				match = true

				break
			}
		}
		if !match {
			r.report(n.Owner(), CodeCDSNotMatch, "")
		}
	}

	if (deleteCDS && (!deleteCDNSKEY || cdss.Count() > 1)) ||
		(deleteCDNSKEY && (!deleteCDS || cdnskeys.Count() > 1)) {
		r.report(n.Owner(), CodeCDNSKEYInvalidDelete, "")
	}

	if cdss.Count() < cdnskeys.Count() {
		r.report(n.Owner(), CodeCDNSKEYNoCDS, "")
	}

	return nil
}

// dsMatchesKey reports whether cds equals the DS record computed from
// cdnskey using the digest type of cds itself.
func dsMatchesKey(cds *dns.CDS, cdnskey *dns.CDNSKEY, origin string) (ok bool) {
	key := &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   origin,
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    cdnskey.Hdr.Ttl,
		},
		Flags:     cdnskey.Flags,
		Protocol:  cdnskey.Protocol,
		Algorithm: cdnskey.Algorithm,
		PublicKey: cdnskey.PublicKey,
	}

	ds := key.ToDS(cds.DigestType)
	if ds == nil {
		return false
	}

	return ds.KeyTag == cds.KeyTag &&
		ds.Algorithm == cds.Algorithm &&
		strings.EqualFold(ds.Digest, cds.Digest)
}
