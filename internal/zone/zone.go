// Package zone defines the in-memory form of an authoritative zone: a tree of
// owner-name nodes with their RRSets, the NSEC3 side tree, and the lookups the
// semantic checker needs.
package zone

import (
	"slices"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/miekg/dns"
)

// ErrOutOfZone is returned by [Contents.Insert] for records whose owner does
// not belong to the zone.
const ErrOutOfZone errors.Error = "owner out of zone"

// Contents is the complete in-memory contents of one zone.
//
// The zero value is not usable; use [New].
type Contents struct {
	// nodes is the authoritative node tree, keyed by canonical owner name.
	nodes map[string]*Node

	// nsec3Nodes is the NSEC3 side tree, keyed by canonical owner name.
	nsec3Nodes map[string]*Node

	// apex is the apex node.  It is always present in nodes.
	apex *Node

	// origin is the canonical zone name.
	origin string

	// sorted is the cache of authoritative owner names in canonical order.
	// It is rebuilt by refresh when stale.
	sorted []string

	// signed reports whether the zone carries DNSSEC material at the apex.
	signed bool

	// stale is set by Insert and cleared by refresh.
	stale bool
}

// New returns new empty zone contents for the given origin.
func New(origin string) (z *Contents) {
	origin = dns.CanonicalName(origin)
	apex := newNode(origin)
	apex.flags |= FlagApex

	return &Contents{
		nodes:      map[string]*Node{origin: apex},
		nsec3Nodes: map[string]*Node{},
		apex:       apex,
		origin:     origin,
	}
}

// Origin returns the canonical zone name.
func (z *Contents) Origin() (origin string) { return z.origin }

// Apex returns the apex node.
func (z *Contents) Apex() (apex *Node) { return z.apex }

// IsSigned reports whether the zone carries DNSSEC material, that is a DNSKEY
// or RRSIG RRSet at the apex.
func (z *Contents) IsSigned() (ok bool) { return z.signed }

// NodeCount returns the number of authoritative nodes, including empty
// non-terminals.
func (z *Contents) NodeCount() (num int) { return len(z.nodes) }

// Insert adds rr to the zone.  NSEC3 records and their signatures go to the
// NSEC3 side tree; everything else goes to the authoritative tree, where
// missing ancestor nodes are materialized as empty non-terminals.
func (z *Contents) Insert(rr dns.RR) (err error) {
	name := dns.CanonicalName(rr.Header().Name)
	if !dns.IsSubDomain(z.origin, name) {
		return ErrOutOfZone
	}

	rr.Header().Name = name
	z.stale = true

	if isNSEC3Side(rr) {
		n := z.nsec3Nodes[name]
		if n == nil {
			n = newNode(name)
			z.nsec3Nodes[name] = n
		}

		n.add(rr)

		return nil
	}

	z.node(name).add(rr)

	if name == z.origin {
		rrtype := rr.Header().Rrtype
		if rrtype == dns.TypeDNSKEY || rrtype == dns.TypeRRSIG {
			z.signed = true
		}
	}

	return nil
}

// isNSEC3Side reports whether rr belongs to the NSEC3 side tree: an NSEC3
// record or a signature covering one.
func isNSEC3Side(rr dns.RR) (ok bool) {
	switch rr := rr.(type) {
	case *dns.NSEC3:
		return true
	case *dns.RRSIG:
		return rr.TypeCovered == dns.TypeNSEC3
	default:
		return false
	}
}

// node returns the authoritative node with the given canonical owner name,
// creating it and all missing ancestors when needed.
func (z *Contents) node(name string) (n *Node) {
	n = z.nodes[name]
	if n != nil {
		return n
	}

	n = newNode(name)
	z.nodes[name] = n

	parent := z.node(parentName(name))
	parent.children++

	return n
}

// parentName returns the name with the leftmost label removed.
func parentName(name string) (parent string) {
	off, end := dns.NextLabel(name, 0)
	if end {
		return "."
	}

	return name[off:]
}

// Node returns the authoritative node with the given owner name or nil if
// there is none.
func (z *Contents) Node(name string) (n *Node) {
	return z.nodes[dns.CanonicalName(name)]
}

// NSEC3Node returns the NSEC3 side node with the given owner name or nil if
// there is none.
func (z *Contents) NSEC3Node(name string) (n *Node) {
	return z.nsec3Nodes[dns.CanonicalName(name)]
}

// FindStatus is the result of a [Contents.FindName] lookup.
type FindStatus int

// FindStatus values.
const (
	// FindOutOfZone means the name does not belong to the zone at all.
	FindOutOfZone FindStatus = iota

	// FindFound means the exact node exists.
	FindFound

	// FindNotFound means the node does not exist; the closest existing
	// encloser is returned instead.
	FindNotFound
)

// FindName looks name up in the authoritative tree.  On [FindFound], node is
// the exact match and encloser is its parent chain head, that is the node
// itself.  On [FindNotFound], node is nil and encloser is the deepest
// existing ancestor.  On [FindOutOfZone] both are nil.
func (z *Contents) FindName(name string) (status FindStatus, node, encloser *Node) {
	name = dns.CanonicalName(name)
	if !dns.IsSubDomain(z.origin, name) {
		return FindOutOfZone, nil, nil
	}

	z.refresh()

	if n := z.nodes[name]; n != nil {
		return FindFound, n, n
	}

	for cur := parentName(name); ; cur = parentName(cur) {
		if n := z.nodes[cur]; n != nil {
			return FindNotFound, nil, n
		}
	}
}

// Walk calls fn for every authoritative node in canonical order, apex first.
// It stops and returns the first error fn returns.
func (z *Contents) Walk(fn func(n *Node) (err error)) (err error) {
	z.refresh()

	for _, name := range z.sorted {
		err = fn(z.nodes[name])
		if err != nil {
			return err
		}
	}

	return nil
}

// refresh rebuilds the sorted name cache, recomputes the delegation flags,
// and links nodes to their NSEC3 side nodes.  It is a no-op unless Insert has
// been called since the previous refresh.
func (z *Contents) refresh() {
	if !z.stale {
		return
	}

	z.stale = false

	z.sorted = z.sorted[:0]
	for name := range z.nodes {
		z.sorted = append(z.sorted, name)
	}

	slices.SortFunc(z.sorted, compareCanonical)

	z.refreshFlags()
	z.linkNSEC3()
}

// refreshFlags recomputes the delegation and non-authoritative flags.  In
// canonical order all names below a delegation point immediately follow it,
// so one pass with the current zone cut suffices.
func (z *Contents) refreshFlags() {
	cut := ""
	for _, name := range z.sorted {
		n := z.nodes[name]
		n.flags &^= FlagDelegation | FlagNonAuth

		if cut != "" && name != cut && dns.IsSubDomain(cut, name) {
			n.flags |= FlagNonAuth

			continue
		}

		cut = ""
		if !n.IsApex() && n.HasType(dns.TypeNS) {
			n.flags |= FlagDelegation
			cut = name
		}
	}
}

// linkNSEC3 links authoritative nodes to their NSEC3 side nodes using the
// apex NSEC3PARAM parameters.
func (z *Contents) linkNSEC3() {
	set := z.apex.RRSet(dns.TypeNSEC3PARAM)
	if set.Count() == 0 {
		return
	}

	param := set.At(0).(*dns.NSEC3PARAM)
	for _, name := range z.sorted {
		n := z.nodes[name]
		hashed := dns.HashName(name, param.Hash, param.Iterations, param.Salt)
		if hashed == "" {
			continue
		}

		n.nsec3 = z.nsec3Nodes[dns.CanonicalName(hashed+"."+z.origin)]
	}
}

// compareCanonical compares two canonical names in DNSSEC canonical order,
// that is label-wise starting from the root.
func compareCanonical(a, b string) (res int) {
	la, lb := dns.SplitDomainName(a), dns.SplitDomainName(b)
	for i := 1; ; i++ {
		switch {
		case i > len(la) && i > len(lb):
			return 0
		case i > len(la):
			return -1
		case i > len(lb):
			return +1
		}

		res = strings.Compare(la[len(la)-i], lb[len(lb)-i])
		if res != 0 {
			return res
		}
	}
}
