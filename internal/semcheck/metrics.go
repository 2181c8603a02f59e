package semcheck

import (
	"context"
)

// Metrics is an interface for counting reported findings.
type Metrics interface {
	// OnFinding is called once for every finding delivered to a handler.
	OnFinding(ctx context.Context, code Code)
}

// EmptyMetrics is a [Metrics] implementation that does nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// OnFinding implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) OnFinding(_ context.Context, _ Code) {}
