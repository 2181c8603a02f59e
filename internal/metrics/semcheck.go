package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zonedns/zoned/internal/semcheck"
)

// SemCheck is the Prometheus implementation of [semcheck.Metrics].
type SemCheck struct {
	findingsTotal *prometheus.CounterVec
}

// NewSemCheck registers the semantic-checker metrics in reg and returns a
// properly initialized *SemCheck.
func NewSemCheck(reg prometheus.Registerer) (m *SemCheck, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("registering semcheck metrics: %v", recovered)
		}
	}()

	m = &SemCheck{
		findingsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemSemCheck,
			Name:      "findings_total",
			Help:      "The number of semantic findings reported, by finding.",
		}, []string{"finding"}),
	}

	return m, nil
}

// type check
var _ semcheck.Metrics = (*SemCheck)(nil)

// OnFinding implements the [semcheck.Metrics] interface for *SemCheck.
func (m *SemCheck) OnFinding(_ context.Context, code semcheck.Code) {
	m.findingsTotal.WithLabelValues(code.String()).Inc()
}
