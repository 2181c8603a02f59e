package zone

import (
	"github.com/miekg/dns"
)

// Flags is the set of boolean properties of a zone node.
type Flags uint8

// Node flag values.
const (
	// FlagApex marks the zone apex node.
	FlagApex Flags = 1 << iota

	// FlagDelegation marks a non-apex node that carries an NS RRSet and so
	// delegates its subtree to another server.
	FlagDelegation

	// FlagNonAuth marks a node strictly below a delegation point.  Only glue
	// addresses are expected at such nodes.
	FlagNonAuth
)

// Node is a single owner name in the zone tree together with all RRSets at
// that name.
type Node struct {
	// rrsets are the RRSets at this owner, keyed by RR type.  RRSIG records
	// form their own RRSet under [dns.TypeRRSIG].
	rrsets map[uint16]*RRSet

	// nsec3 is the NSEC3 side node covering this node, if any.
	nsec3 *Node

	// owner is the canonical, fully-qualified owner name.
	owner string

	// children is the number of direct children of this node in the tree,
	// including empty non-terminals.
	children int

	// flags are the boolean properties of this node.
	flags Flags
}

// newNode returns a new empty node with the given canonical owner name.
func newNode(owner string) (n *Node) {
	return &Node{
		owner:  owner,
		rrsets: map[uint16]*RRSet{},
	}
}

// Owner returns the canonical fully-qualified owner name of n.
func (n *Node) Owner() (owner string) { return n.owner }

// Flags returns the flag set of n.
func (n *Node) Flags() (flags Flags) { return n.flags }

// IsApex reports whether n is the zone apex.
func (n *Node) IsApex() (ok bool) { return n.flags&FlagApex != 0 }

// Children returns the number of direct children of n, including empty
// non-terminals.
func (n *Node) Children() (num int) { return n.children }

// NSEC3Node returns the NSEC3 side node covering n or nil if there is none.
func (n *Node) NSEC3Node() (nsec3 *Node) { return n.nsec3 }

// RRSet returns the RRSet of the given type at n or nil if there is none.  n
// may be nil, in which case RRSet returns nil as well.
func (n *Node) RRSet(rrtype uint16) (set *RRSet) {
	if n == nil {
		return nil
	}

	return n.rrsets[rrtype]
}

// HasType reports whether n has an RRSet of the given type.  n may be nil, in
// which case HasType returns false.
func (n *Node) HasType(rrtype uint16) (ok bool) {
	if n == nil {
		return false
	}

	_, ok = n.rrsets[rrtype]

	return ok
}

// RRSetCount returns the number of RRSets at n, counting the RRSIG set.
func (n *Node) RRSetCount() (num int) { return len(n.rrsets) }

// Types returns the RR types present at n in unspecified order.
func (n *Node) Types() (types []uint16) {
	types = make([]uint16, 0, len(n.rrsets))
	for t := range n.rrsets {
		types = append(types, t)
	}

	return types
}

// add appends rr to the RRSet of its type, creating the set if needed.
func (n *Node) add(rr dns.RR) {
	rrtype := rr.Header().Rrtype
	set := n.rrsets[rrtype]
	if set == nil {
		set = &RRSet{rrtype: rrtype}
		n.rrsets[rrtype] = set
	}

	set.rrs = append(set.rrs, rr)
}

// isEmpty reports whether n is an empty non-terminal, that is a node with no
// RRSets of its own.
func (n *Node) isEmpty() (ok bool) { return len(n.rrsets) == 0 }
