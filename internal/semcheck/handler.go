package semcheck

import (
	"github.com/zonedns/zoned/internal/zone"
)

// Finding is one semantic finding reported through a [Handler].
type Finding struct {
	// Owner is the canonical owner name the finding is anchored to.
	Owner string

	// Info is the optional free-form detail, for example "(keytag 12345)".
	Info string

	// Code classifies the finding.
	Code Code
}

// Handler collects the findings of one check run.  The checker calls the
// callback synchronously during the walk; the callback must not retain the
// zone contents past the call.
type Handler struct {
	// OnFinding is called once for every finding.  It must not be nil.
	OnFinding func(z *zone.Contents, f *Finding)

	// fatalError is set by the checker once a fatal finding is reported.
	fatalError bool
}

// FatalError reports whether at least one fatal finding has been reported
// through h.
func (h *Handler) FatalError() (ok bool) { return h.fatalError }

// report delivers one finding and updates the fatal flag.
func (h *Handler) report(z *zone.Contents, owner string, code Code, info string) {
	if code.IsFatal() {
		h.fatalError = true
	}

	h.OnFinding(z, &Finding{
		Owner: owner,
		Info:  info,
		Code:  code,
	})
}
