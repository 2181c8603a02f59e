package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zonedns/zoned/internal/doq"
)

// DoQ is the Prometheus implementation of [doq.Metrics].
type DoQ struct {
	connectsTotal    *prometheus.CounterVec
	exchangesTotal   *prometheus.CounterVec
	exchangeDuration prometheus.Histogram
}

// NewDoQ registers the DoQ client metrics in reg and returns a properly
// initialized *DoQ.
func NewDoQ(reg prometheus.Registerer) (m *DoQ, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("registering doq metrics: %v", recovered)
		}
	}()

	factory := promauto.With(reg)
	m = &DoQ{
		connectsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDoQ,
			Name:      "connects_total",
			Help:      "The number of connection attempts, by result.",
		}, []string{"result"}),
		exchangesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemDoQ,
			Name:      "exchanges_total",
			Help:      "The number of query/response exchanges, by result.",
		}, []string{"result"}),
		exchangeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemDoQ,
			Name:      "exchange_duration_seconds",
			Help:      "The duration of successful exchanges.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 5, 10},
		}),
	}

	return m, nil
}

// type check
var _ doq.Metrics = (*DoQ)(nil)

// OnConnect implements the [doq.Metrics] interface for *DoQ.
func (m *DoQ) OnConnect(_ context.Context, _ time.Duration, err error) {
	m.connectsTotal.WithLabelValues(resultLabel(err)).Inc()
}

// OnExchange implements the [doq.Metrics] interface for *DoQ.
func (m *DoQ) OnExchange(_ context.Context, dur time.Duration, err error) {
	m.exchangesTotal.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		m.exchangeDuration.Observe(dur.Seconds())
	}
}
