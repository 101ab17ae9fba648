package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// GovernanceMetrics tracks the parameter-governance module's activity.
type GovernanceMetrics struct {
	Proposals prometheus.Counter
	Votes     prometheus.Counter
	Executions prometheus.Counter
}

var (
	governanceOnce    sync.Once
	governanceMetrics *GovernanceMetrics
)

// Governance returns the process-wide governance metrics registry.
func Governance() *GovernanceMetrics {
	governanceOnce.Do(func() {
		governanceMetrics = &GovernanceMetrics{
			Proposals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "governance", Name: "proposals_total",
				Help: "Total number of proposals created.",
			}),
			Votes: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "governance", Name: "votes_total",
				Help: "Total number of votes cast.",
			}),
			Executions: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "governance", Name: "executions_total",
				Help: "Total number of proposals executed.",
			}),
		}
		prometheus.MustRegister(governanceMetrics.Proposals, governanceMetrics.Votes, governanceMetrics.Executions)
	})
	return governanceMetrics
}
