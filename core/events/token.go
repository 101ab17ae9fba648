package events

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
)

// Transfer is emitted by transfer and transfer_from.
type Transfer struct {
	From   crypto.Address
	To     crypto.Address
	Amount *big.Int
}

func (Transfer) EventType() string { return "token.transfer" }

func (e Transfer) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"from":   e.From.String(),
			"to":     e.To.String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// Mint is emitted by mint.
type Mint struct {
	To     crypto.Address
	Amount *big.Int
}

func (Mint) EventType() string { return "token.mint" }

func (e Mint) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"to":     e.To.String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// Burn is emitted by burn.
type Burn struct {
	From   crypto.Address
	Amount *big.Int
}

func (Burn) EventType() string { return "token.burn" }

func (e Burn) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"from":   e.From.String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// Approval is emitted by approve.
type Approval struct {
	Owner            crypto.Address
	Spender          crypto.Address
	Amount           *big.Int
	ExpirationLedger uint64
}

func (Approval) EventType() string { return "token.approval" }

func (e Approval) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"owner":   e.Owner.String(),
			"spender": e.Spender.String(),
			"amount":  formatAmount(e.Amount),
		},
	}
}

// MinterChanged is emitted by set_minter.
type MinterChanged struct {
	OldMinter crypto.Address
	NewMinter crypto.Address
}

func (MinterChanged) EventType() string { return "token.minter_changed" }

func (e MinterChanged) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"old_minter": e.OldMinter.String(),
			"new_minter": e.NewMinter.String(),
		},
	}
}
