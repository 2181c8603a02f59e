// Package metrics contains the Prometheus implementations of the Metrics
// interfaces defined in the other packages of this module.
package metrics

// namespace is the metrics namespace of the whole module.
const namespace = "zoned"

// Subsystem names.
const (
	subsystemDoQ      = "doq"
	subsystemSemCheck = "semcheck"
)

// Label values for operation results.
const (
	resultError   = "error"
	resultSuccess = "success"
)

// resultLabel returns the result label value for err.
func resultLabel(err error) (label string) {
	if err != nil {
		return resultError
	}

	return resultSuccess
}
