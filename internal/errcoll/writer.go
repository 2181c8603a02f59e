package errcoll

import (
	"context"
	"fmt"
	"io"
	"time"
)

// WriterErrorCollector is an [Interface] implementation that writes errors to
// an [io.Writer].
type WriterErrorCollector struct {
	w io.Writer
}

// NewWriterErrorCollector returns a new WriterErrorCollector.
func NewWriterErrorCollector(w io.Writer) (c *WriterErrorCollector) {
	return &WriterErrorCollector{
		w: w,
	}
}

// type check
var _ Interface = (*WriterErrorCollector)(nil)

// Collect implements the [Interface] interface for *WriterErrorCollector.
func (c *WriterErrorCollector) Collect(ctx context.Context, err error) {
	_, _ = fmt.Fprintf(c.w, "%s: caught error: %s\n", time.Now().Format(time.RFC3339), err)
}
