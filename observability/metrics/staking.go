package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakingMetrics tracks the staking core's deposit/withdrawal activity.
type StakingMetrics struct {
	Deposits           prometheus.Counter
	InstantWithdrawals prometheus.Counter
	DelayedWithdrawals prometheus.Counter
	Claims             prometheus.Counter
	ExchangeRate       prometheus.Gauge
	LiquidityBuffer    prometheus.Gauge
}

var (
	stakingOnce    sync.Once
	stakingMetrics *StakingMetrics
)

// Staking returns the process-wide staking metrics registry.
func Staking() *StakingMetrics {
	stakingOnce.Do(func() {
		stakingMetrics = &StakingMetrics{
			Deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "staking", Name: "deposits_total",
				Help: "Total number of stake deposits.",
			}),
			InstantWithdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "staking", Name: "instant_withdrawals_total",
				Help: "Total number of instant-path withdrawals.",
			}),
			DelayedWithdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "staking", Name: "delayed_withdrawals_total",
				Help: "Total number of delayed-path withdrawals queued.",
			}),
			Claims: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "sxlm", Subsystem: "staking", Name: "claims_total",
				Help: "Total number of claimed withdrawals.",
			}),
			ExchangeRate: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sxlm", Subsystem: "staking", Name: "exchange_rate",
				Help: "Current XLM/sXLM exchange rate, scale 1e7.",
			}),
			LiquidityBuffer: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "sxlm", Subsystem: "staking", Name: "liquidity_buffer",
				Help: "XLM held back to service instant withdrawals.",
			}),
		}
		prometheus.MustRegister(
			stakingMetrics.Deposits,
			stakingMetrics.InstantWithdrawals,
			stakingMetrics.DelayedWithdrawals,
			stakingMetrics.Claims,
			stakingMetrics.ExchangeRate,
			stakingMetrics.LiquidityBuffer,
		)
	})
	return stakingMetrics
}
