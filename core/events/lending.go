package events

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
)

// CollateralDeposited is emitted by deposit_collateral (§6 topic "deposit").
type CollateralDeposited struct {
	User        crypto.Address
	SxlmAmount  *big.Int
}

func (CollateralDeposited) EventType() string { return "lending.deposit" }

func (e CollateralDeposited) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":        e.User.String(),
			"sxlm_amount": formatAmount(e.SxlmAmount),
		},
	}
}

// CollateralWithdrawn is emitted by withdraw_collateral.
type CollateralWithdrawn struct {
	User       crypto.Address
	SxlmAmount *big.Int
}

func (CollateralWithdrawn) EventType() string { return "lending.withdraw_collateral" }

func (e CollateralWithdrawn) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":        e.User.String(),
			"sxlm_amount": formatAmount(e.SxlmAmount),
		},
	}
}

// Borrow is emitted by borrow.
type Borrow struct {
	User      crypto.Address
	XLMAmount *big.Int
}

func (Borrow) EventType() string { return "lending.borrow" }

func (e Borrow) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":       e.User.String(),
			"xlm_amount": formatAmount(e.XLMAmount),
		},
	}
}

// Repay is emitted by repay.
type Repay struct {
	User      crypto.Address
	XLMAmount *big.Int
}

func (Repay) EventType() string { return "lending.repay" }

func (e Repay) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":       e.User.String(),
			"xlm_amount": formatAmount(e.XLMAmount),
		},
	}
}

// Liquidation is emitted by liquidate (§6 topic "liq").
type Liquidation struct {
	Liquidator       crypto.Address
	Borrower         crypto.Address
	DebtRepaid       *big.Int
	CollateralSeized *big.Int
}

func (Liquidation) EventType() string { return "lending.liq" }

func (e Liquidation) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"liquidator":        e.Liquidator.String(),
			"borrower":          e.Borrower.String(),
			"debt_repaid":       formatAmount(e.DebtRepaid),
			"collateral_seized": formatAmount(e.CollateralSeized),
		},
	}
}

// ExchangeRateUpdated is emitted by update_exchange_rate.
type ExchangeRateUpdated struct {
	NewRate *big.Int
}

func (ExchangeRateUpdated) EventType() string { return "lending.exchange_rate" }

func (e ExchangeRateUpdated) Event() *types.Event {
	return &types.Event{
		Type:       e.EventType(),
		Attributes: map[string]string{"new_rate": formatAmount(e.NewRate)},
	}
}

// InterestHarvested is emitted by harvest_interest.
type InterestHarvested struct {
	Amount *big.Int
}

func (InterestHarvested) EventType() string { return "lending.harvest" }

func (e InterestHarvested) Event() *types.Event {
	return &types.Event{
		Type:       e.EventType(),
		Attributes: map[string]string{"amount": formatAmount(e.Amount)},
	}
}
