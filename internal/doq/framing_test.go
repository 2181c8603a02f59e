package doq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackWithPrefix(t *testing.T) {
	framed := packWithPrefix([]byte{0xde, 0xad})
	assert.Equal(t, []byte{0x00, 0x02, 0xde, 0xad}, framed)

	framed = packWithPrefix(nil)
	assert.Equal(t, []byte{0x00, 0x00}, framed)
}

func TestMsgReassembler_splits(t *testing.T) {
	msg := []byte("a dns message, wire format pretend")
	framed := packWithPrefix(msg)

	testCases := []struct {
		name   string
		chunks [][]byte
	}{{
		name:   "single_write",
		chunks: [][]byte{framed},
	}, {
		name:   "split_prefix",
		chunks: [][]byte{framed[:1], framed[1:]},
	}, {
		name: "five_then_three_then_rest",
		// A five-byte head, three more bytes, then the remaining payload.
		chunks: [][]byte{framed[:5], framed[5:8], framed[8:]},
	}, {
		name:   "byte_at_a_time",
		chunks: byteAtATime(framed),
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &msgReassembler{}

			for i, chunk := range tc.chunks {
				r.write(chunk)
				if i < len(tc.chunks)-1 {
					_, ok := r.next()
					assert.False(t, ok)
				}
			}

			got, ok := r.next()
			require.True(t, ok)
			assert.Equal(t, msg, got)
			assert.Zero(t, r.pendingLen())

			_, ok = r.next()
			assert.False(t, ok)
		})
	}
}

// byteAtATime splits b into one-byte chunks.
func byteAtATime(b []byte) (chunks [][]byte) {
	for i := range b {
		chunks = append(chunks, b[i:i+1])
	}

	return chunks
}

func TestMsgReassembler_multipleMessages(t *testing.T) {
	first, second := []byte("first response"), []byte("second response")

	r := &msgReassembler{}
	combined := append(packWithPrefix(first), packWithPrefix(second)...)
	r.write(combined)

	got, ok := r.next()
	require.True(t, ok)
	assert.Equal(t, first, got)

	got, ok = r.next()
	require.True(t, ok)
	assert.Equal(t, second, got)

	_, ok = r.next()
	assert.False(t, ok)
}

func TestMsgReassembler_reset(t *testing.T) {
	r := &msgReassembler{}
	r.write(packWithPrefix([]byte("stale")))
	r.write([]byte{0x00})

	r.reset()

	_, ok := r.next()
	assert.False(t, ok)
	assert.Zero(t, r.pendingLen())
}
