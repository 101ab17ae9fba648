package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// AMMMetrics tracks the constant-product pool's activity.
type AMMMetrics struct {
	Swaps          prometheus.Counter
	LiquidityAdds  prometheus.Counter
	LiquidityExits prometheus.Counter
	ReserveXLM     prometheus.Gauge
	ReserveSXLM    prometheus.Gauge
}

var (
	ammOnce    sync.Once
	ammMetrics *AMMMetrics
)

// AMM returns the process-wide AMM metrics registry.
func AMM() *AMMMetrics {
	ammOnce.Do(func() {
		ammMetrics = &AMMMetrics{
			Swaps: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "amm", Name: "swaps_total",
				Help: "Total number of swap calls.",
			}),
			LiquidityAdds: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "amm", Name: "liquidity_adds_total",
				Help: "Total number of add_liquidity calls.",
			}),
			LiquidityExits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "amm", Name: "liquidity_exits_total",
				Help: "Total number of remove_liquidity calls.",
			}),
			ReserveXLM: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sxlm", Subsystem: "amm", Name: "reserve_xlm",
				Help: "Current XLM reserve in stroops.",
			}),
			ReserveSXLM: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sxlm", Subsystem: "amm", Name: "reserve_sxlm",
				Help: "Current sXLM reserve in stroops.",
			}),
		}
		prometheus.MustRegister(
			ammMetrics.Swaps,
			ammMetrics.LiquidityAdds,
			ammMetrics.LiquidityExits,
			ammMetrics.ReserveXLM,
			ammMetrics.ReserveSXLM,
		)
	})
	return ammMetrics
}
