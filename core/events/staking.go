package events

import (
	"math/big"
	"strconv"

	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
)

// Deposit is emitted by staking's deposit (§6: topic "deposit").
type Deposit struct {
	User       crypto.Address
	XLMAmount  *big.Int
	SxlmMinted *big.Int
}

func (Deposit) EventType() string { return "staking.deposit" }

func (e Deposit) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":        e.User.String(),
			"xlm_amount":  formatAmount(e.XLMAmount),
			"sxlm_minted": formatAmount(e.SxlmMinted),
		},
	}
}

// Instant is emitted when request_withdrawal takes the instant path.
type Instant struct {
	User      crypto.Address
	XLMAmount *big.Int
}

func (Instant) EventType() string { return "staking.instant" }

func (e Instant) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":       e.User.String(),
			"xlm_amount": formatAmount(e.XLMAmount),
		},
	}
}

// Delayed is emitted when request_withdrawal queues a delayed claim.
type Delayed struct {
	User         crypto.Address
	XLMAmount    *big.Int
	WithdrawalID uint64
	UnlockLedger uint64
}

func (Delayed) EventType() string { return "staking.delayed" }

func (e Delayed) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":          e.User.String(),
			"xlm_amount":    formatAmount(e.XLMAmount),
			"withdrawal_id": strconv.FormatUint(e.WithdrawalID, 10),
			"unlock_ledger": strconv.FormatUint(e.UnlockLedger, 10),
		},
	}
}

// Claimed is emitted by claim_withdrawal.
type Claimed struct {
	User         crypto.Address
	XLMAmount    *big.Int
	WithdrawalID uint64
}

func (Claimed) EventType() string { return "staking.claimed" }

func (e Claimed) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":          e.User.String(),
			"xlm_amount":    formatAmount(e.XLMAmount),
			"withdrawal_id": strconv.FormatUint(e.WithdrawalID, 10),
		},
	}
}

// Rewards is emitted by add_rewards.
type Rewards struct {
	Amount *big.Int
}

func (Rewards) EventType() string { return "staking.rewards" }

func (e Rewards) Event() *types.Event {
	return &types.Event{
		Type:       e.EventType(),
		Attributes: map[string]string{"amount": formatAmount(e.Amount)},
	}
}

// Slashed is emitted by apply_slashing. Not part of the wire event table in
// §6 but needed to observe the slashing-reconciliation duty (§7, §9 open
// question 2) without reading storage directly.
type Slashed struct {
	Amount               *big.Int
	WithdrawalsAdjusted  uint64
}

func (Slashed) EventType() string { return "staking.slashed" }

func (e Slashed) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"amount":               formatAmount(e.Amount),
			"withdrawals_adjusted": strconv.FormatUint(e.WithdrawalsAdjusted, 10),
		},
	}
}

// RateRecalibrated is emitted by recalibrate_rate.
type RateRecalibrated struct {
	Rate *big.Int
}

func (RateRecalibrated) EventType() string { return "staking.rate" }

func (e RateRecalibrated) Event() *types.Event {
	return &types.Event{
		Type:       e.EventType(),
		Attributes: map[string]string{"rate": formatAmount(e.Rate)},
	}
}
