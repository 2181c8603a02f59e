package doq

import (
	"context"
	"time"
)

// Metrics is an interface for observing the operations of a [Client].
type Metrics interface {
	// OnConnect is called after every connection attempt.
	OnConnect(ctx context.Context, dur time.Duration, err error)

	// OnExchange is called after every completed query/response exchange.
	OnExchange(ctx context.Context, dur time.Duration, err error)
}

// EmptyMetrics is a [Metrics] implementation that does nothing.
type EmptyMetrics struct{}

// type check
var _ Metrics = EmptyMetrics{}

// OnConnect implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) OnConnect(_ context.Context, _ time.Duration, _ error) {}

// OnExchange implements the [Metrics] interface for EmptyMetrics.
func (EmptyMetrics) OnExchange(_ context.Context, _ time.Duration, _ error) {}
