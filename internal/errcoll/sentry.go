package errcoll

import (
	"context"
	"io"
	"net"
	"os"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/getsentry/sentry-go"
	"github.com/zonedns/zoned/internal/doq"
)

// SentryErrorCollector is an [Interface] implementation that sends errors to
// a Sentry-like HTTP API.
type SentryErrorCollector struct {
	sentry *sentry.Client
}

// NewSentryErrorCollector returns a new SentryErrorCollector.  cli must not
// be nil.
func NewSentryErrorCollector(cli *sentry.Client) (c *SentryErrorCollector) {
	return &SentryErrorCollector{
		sentry: cli,
	}
}

// type check
var _ Interface = (*SentryErrorCollector)(nil)

// Collect implements the [Interface] interface for *SentryErrorCollector.
func (c *SentryErrorCollector) Collect(ctx context.Context, err error) {
	if !isReportable(err) {
		return
	}

	_ = c.sentry.CaptureException(err, &sentry.EventHint{
		Context: ctx,
	}, sentry.NewScope())
}

// flushTimeout is the timeout for flushing sentry errors.
const flushTimeout = 1 * time.Second

// Flush waits until the underlying transport sends any buffered events to
// the sentry server, blocking for at most the predefined timeout.
func (c *SentryErrorCollector) Flush() {
	_ = c.sentry.Flush(flushTimeout)
}

// isReportable returns true if the error is worth reporting.  Expected
// network conditions, timeouts included, are not.
func isReportable(err error) (ok bool) {
	if isConnectionBreak(err) {
		return false
	}

	switch {
	case
		errors.Is(err, doq.ErrTimeout),
		errors.Is(err, doq.ErrClosed):
		return false
	default:
		return true
	}
}

// isConnectionBreak returns true if err is an error about the connection
// breaking or timing out.
func isConnectionBreak(err error) (ok bool) {
	switch {
	case
		errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, os.ErrDeadlineExceeded):
		return true
	default:
		var netErr net.Error

		return errors.As(err, &netErr) && netErr.Timeout()
	}
}
