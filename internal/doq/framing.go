package doq

import (
	"encoding/binary"
	"slices"
)

// packWithPrefix returns msg prefixed with its length as a two-byte
// network-order integer, the framing DoQ uses on every stream.
func packWithPrefix(msg []byte) (framed []byte) {
	framed = make([]byte, 2+len(msg))
	binary.BigEndian.PutUint16(framed, uint16(len(msg)))
	copy(framed[2:], msg)

	return framed
}

// msgReassembler parses length-prefixed DNS messages out of a byte stream.
// It tolerates arbitrary boundary splits and multiple messages per stream:
// bytes are buffered until a complete frame is available, and completed
// messages queue up for [msgReassembler.next].
type msgReassembler struct {
	pending []byte
	msgs    [][]byte
}

// write appends p to the pending bytes and extracts every complete message.
func (r *msgReassembler) write(p []byte) {
	r.pending = append(r.pending, p...)

	for len(r.pending) >= 2 {
		msgLen := int(binary.BigEndian.Uint16(r.pending))
		if len(r.pending) < 2+msgLen {
			break
		}

		r.msgs = append(r.msgs, slices.Clone(r.pending[2:2+msgLen]))
		r.pending = r.pending[2+msgLen:]
	}
}

// next pops the next completed message, if any.
func (r *msgReassembler) next() (msg []byte, ok bool) {
	if len(r.msgs) == 0 {
		return nil, false
	}

	msg, r.msgs = r.msgs[0], r.msgs[1:]

	return msg, true
}

// pendingLen returns the number of buffered bytes that do not yet form a
// complete message.
func (r *msgReassembler) pendingLen() (n int) { return len(r.pending) }

// reset drops all buffered bytes and queued messages.
func (r *msgReassembler) reset() {
	r.pending = nil
	r.msgs = nil
}
