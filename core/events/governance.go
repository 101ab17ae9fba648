package events

import (
	"math/big"
	"strconv"

	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
)

// Proposed is emitted by create_proposal (§6 topic "propose").
type Proposed struct {
	ProposalID uint64
	Proposer   crypto.Address
	ParamKey   string
	NewValue   string
}

func (Proposed) EventType() string { return "governance.propose" }

func (e Proposed) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"proposal_id": strconv.FormatUint(e.ProposalID, 10),
			"proposer":    e.Proposer.String(),
			"param_key":   e.ParamKey,
			"new_value":   e.NewValue,
		},
	}
}

// Voted is emitted by vote (§6 topic "voted").
type Voted struct {
	ProposalID uint64
	Voter      crypto.Address
	Support    bool
	Weight     *big.Int
}

func (Voted) EventType() string { return "governance.voted" }

func (e Voted) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"proposal_id": strconv.FormatUint(e.ProposalID, 10),
			"voter":       e.Voter.String(),
			"support":     strconv.FormatBool(e.Support),
			"weight":      formatAmount(e.Weight),
		},
	}
}

// Executed is emitted by execute_proposal (§6 topic "executed").
type Executed struct {
	ProposalID uint64
	ReceiptID  string
}

func (Executed) EventType() string { return "governance.executed" }

func (e Executed) Event() *types.Event {
	return &types.Event{
		Type: e.EventType(),
		Attributes: map[string]string{
			"proposal_id": strconv.FormatUint(e.ProposalID, 10),
			"receipt_id":  e.ReceiptID,
		},
	}
}
