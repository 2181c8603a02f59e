package zone

import (
	"fmt"

	"github.com/miekg/dns"
)

// RRSet is the set of records of one type at one owner name.
type RRSet struct {
	rrs    []dns.RR
	rrtype uint16
}

// Type returns the RR type of the set.
func (s *RRSet) Type() (rrtype uint16) { return s.rrtype }

// Count returns the number of records in the set.  s may be nil, in which
// case Count returns zero.
func (s *RRSet) Count() (num int) {
	if s == nil {
		return 0
	}

	return len(s.rrs)
}

// At returns the i-th record of the set.
func (s *RRSet) At(i int) (rr dns.RR) { return s.rrs[i] }

// RdataAt returns the wire-format rdata of the i-th record of the set.
// Record identity is defined on the wire form, so byte-wise comparisons in
// the checker go through this accessor.
func (s *RRSet) RdataAt(i int) (rdata []byte, err error) {
	rr := s.rrs[i]
	buf := make([]byte, dns.Len(rr))
	off, err := dns.PackRR(rr, buf, 0, nil, false)
	if err != nil {
		return nil, fmt.Errorf("packing %s record %d: %w", dns.TypeToString[s.rrtype], i, err)
	}

	return buf[rdataOffset(buf):off], nil
}

// rdataOffset returns the offset of the rdata in a packed, uncompressed
// resource record: past the owner name and the fixed type, class, TTL, and
// rdlength fields.
func rdataOffset(buf []byte) (off int) {
	for buf[off] != 0 {
		off += int(buf[off]) + 1
	}

	return off + 1 + 10
}
