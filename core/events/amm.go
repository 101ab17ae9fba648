package events

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
)

// LiquidityAdded is emitted by add_liquidity (§6 topic "add_liq").
type LiquidityAdded struct {
	User       crypto.Address
	XLMIn      *big.Int
	SxlmIn     *big.Int
	LPMinted   *big.Int
}

func (LiquidityAdded) EventType() string { return "amm.add_liq" }

func (e LiquidityAdded) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":      e.User.String(),
			"xlm_in":    formatAmount(e.XLMIn),
			"sxlm_in":   formatAmount(e.SxlmIn),
			"lp_minted": formatAmount(e.LPMinted),
		},
	}
}

// LiquidityRemoved is emitted by remove_liquidity.
type LiquidityRemoved struct {
	User     crypto.Address
	XLMOut   *big.Int
	SxlmOut  *big.Int
	LPBurned *big.Int
}

func (LiquidityRemoved) EventType() string { return "amm.remove_liq" }

func (e LiquidityRemoved) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":      e.User.String(),
			"xlm_out":   formatAmount(e.XLMOut),
			"sxlm_out":  formatAmount(e.SxlmOut),
			"lp_burned": formatAmount(e.LPBurned),
		},
	}
}

// Swap is emitted by swap_xlm_to_sxlm / swap_sxlm_to_xlm (§6 topic "swap").
type Swap struct {
	User      crypto.Address
	InSymbol  string
	InAmount  *big.Int
	OutAmount *big.Int
}

func (Swap) EventType() string { return "amm.swap" }

func (e Swap) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"user":       e.User.String(),
			"in_symbol":  e.InSymbol,
			"in_amount":  formatAmount(e.InAmount),
			"out_amount": formatAmount(e.OutAmount),
		},
	}
}
