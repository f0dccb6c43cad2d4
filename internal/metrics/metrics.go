// Package metrics exposes Prometheus instruments for the authentication flows.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Auth counts authentication operations by name and outcome. A nil *Auth is
// valid and records nothing.
type Auth struct {
	ops *prometheus.CounterVec
}

// NewAuth registers the counters on reg.
func NewAuth(reg prometheus.Registerer) (*Auth, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "auth_operations_total",
		Help:      "Authentication operations by operation and outcome.",
	}, []string{"operation", "outcome"})
	if err := reg.Register(ops); err != nil {
		return nil, err
	}
	return &Auth{ops: ops}, nil
}

// Observe increments the counter for operation/outcome.
func (a *Auth) Observe(operation, outcome string) {
	if a == nil {
		return
	}
	a.ops.WithLabelValues(operation, outcome).Inc()
}
