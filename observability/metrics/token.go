package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// TokenMetrics tracks receipt-token ledger activity.
type TokenMetrics struct {
	Transfers  prometheus.Counter
	Mints      prometheus.Counter
	Burns      prometheus.Counter
	TotalSupply prometheus.Gauge
}

var (
	tokenOnce    sync.Once
	tokenMetrics *TokenMetrics
)

// Token returns the process-wide token metrics registry, registering it with
// the default Prometheus registerer on first use.
func Token() *TokenMetrics {
	tokenOnce.Do(func() {
		tokenMetrics = &TokenMetrics{
			Transfers: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm",
				Subsystem: "token",
				Name:      "transfers_total",
				Help:      "Total number of sXLM transfers.",
			}),
			Mints: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm",
				Subsystem: "token",
				Name:      "mints_total",
				Help:      "Total number of sXLM mint operations.",
			}),
			Burns: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm",
				Subsystem: "token",
				Name:      "burns_total",
				Help:      "Total number of sXLM burn operations.",
			}),
			TotalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sxlm",
				Subsystem: "token",
				Name:      "total_supply",
				Help:      "Current sXLM total supply in stroops.",
			}),
		}
		prometheus.MustRegister(tokenMetrics.Transfers, tokenMetrics.Mints, tokenMetrics.Burns, tokenMetrics.TotalSupply)
	})
	return tokenMetrics
}
