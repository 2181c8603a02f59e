package doq

import (
	"testing"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnCloser records the close code and reason it is called with.
type fakeConnCloser struct {
	code   quic.ApplicationErrorCode
	reason string
	called bool
}

// CloseWithError implements the [connCloser] interface for *fakeConnCloser.
func (f *fakeConnCloser) CloseWithError(
	code quic.ApplicationErrorCode,
	reason string,
) (err error) {
	f.called = true
	f.code = code
	f.reason = reason

	return nil
}

func TestClient_closeIllegalPeerStream(t *testing.T) {
	c, err := New(&Config{
		Logger:  slogutil.NewDiscardLogger(),
		Metrics: EmptyMetrics{},
	})
	require.NoError(t, err)

	conn := &fakeConnCloser{}
	c.closeIllegalPeerStream(conn)

	assert.True(t, conn.called)
	assert.Equal(t, DOQCodeProtocolError, conn.code)
	assert.Equal(t, illegalPeerStreamReason, conn.reason)

	ce := c.LastError()
	require.NotNil(t, ce)
	assert.Equal(t, CloseApplication, ce.Kind)
	assert.Equal(t, uint64(DOQCodeProtocolError), ce.Code)
	assert.Equal(t, illegalPeerStreamReason, ce.Reason)
}

func TestNewResetKey(t *testing.T) {
	first, err := newResetKey()
	require.NoError(t, err)

	second, err := newResetKey()
	require.NoError(t, err)

	// A 32-byte digest over fresh randomness must differ between calls.
	assert.NotEqual(t, first, second)
}
