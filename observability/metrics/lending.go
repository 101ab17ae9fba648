package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics tracks the lending core's borrow/liquidation activity.
type LendingMetrics struct {
	Borrows         prometheus.Counter
	Repayments      prometheus.Counter
	Liquidations    prometheus.Counter
	TotalBorrowed   prometheus.Gauge
	TotalCollateral prometheus.Gauge
}

var (
	lendingOnce    sync.Once
	lendingMetrics *LendingMetrics
)

// Lending returns the process-wide lending metrics registry.
func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingMetrics = &LendingMetrics{
			Borrows: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "lending", Name: "borrows_total",
				Help: "Total number of borrow calls.",
			}),
			Repayments: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "lending", Name: "repayments_total",
				Help: "Total number of repay calls.",
			}),
			Liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "lending", Name: "liquidations_total",
				Help: "Total number of liquidate calls.",
			}),
			TotalBorrowed: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sxlm", Subsystem: "lending", Name: "total_borrowed",
				Help: "Current total fresh debt in stroops.",
			}),
			TotalCollateral: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sxlm", Subsystem: "lending", Name: "total_collateral",
				Help: "Current total sXLM collateral in stroops.",
			}),
		}
		prometheus.MustRegister(
			lendingMetrics.Borrows,
			lendingMetrics.Repayments,
			lendingMetrics.Liquidations,
			lendingMetrics.TotalBorrowed,
			lendingMetrics.TotalCollateral,
		)
	})
	return lendingMetrics
}
