package state

import (
	"encoding/binary"
	"math/big"

	"github.com/rajdeep-singha/sXLM/crypto"
)

const governanceSingletonKey = "singleton"

// GovernanceMeta is the parameter-governance module's global singleton
// (spec §3, §4.5).
type GovernanceMeta struct {
	Admin                crypto.Address
	SxlmToken            crypto.Address
	VotingPeriodLedgers  uint64
	QuorumBps            uint32
	ApprovalThresholdBps uint32
	ProposalCount        uint64
	Initialized          bool
}

// Proposal is a single parameter-change proposal and its running tally.
type Proposal struct {
	Proposer     crypto.Address
	ParamKey     string
	NewValue     string
	StartLedger  uint64
	EndLedger    uint64
	VotesFor     *big.Int
	VotesAgainst *big.Int
	Executed     bool
	ReceiptID    string
}

// GetGovernanceMeta loads the governance singleton.
func (m *Manager) GetGovernanceMeta() (GovernanceMeta, bool, error) {
	var meta GovernanceMeta
	ok, err := m.get(governanceMetaPrefix, []byte(governanceSingletonKey), &meta)
	return meta, ok, err
}

// PutGovernanceMeta persists the governance singleton.
func (m *Manager) PutGovernanceMeta(meta GovernanceMeta) error {
	return m.put(governanceMetaPrefix, []byte(governanceSingletonKey), meta)
}

func proposalKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// GetProposal loads a proposal by id.
func (m *Manager) GetProposal(id uint64) (Proposal, bool, error) {
	var p Proposal
	ok, err := m.get(governanceProposalPrefix, proposalKey(id), &p)
	return p, ok, err
}

// PutProposal stores a proposal.
func (m *Manager) PutProposal(id uint64, p Proposal) error {
	return m.put(governanceProposalPrefix, proposalKey(id), p)
}

func voteKey(id uint64, voter crypto.Address) []byte {
	key := make([]byte, 0, 8+20)
	key = append(key, proposalKey(id)...)
	key = append(key, voter.Bytes()...)
	return key
}

// HasVoted reports whether voter already cast a vote on proposal id.
func (m *Manager) HasVoted(id uint64, voter crypto.Address) (bool, error) {
	var marker bool
	ok, err := m.get(governanceVotePrefix, voteKey(id, voter), &marker)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// RecordVote marks voter as having voted on proposal id.
func (m *Manager) RecordVote(id uint64, voter crypto.Address) error {
	return m.put(governanceVotePrefix, voteKey(id, voter), true)
}

// GetParam reads a governance-controlled parameter, returning ok=false if
// unset.
func (m *Manager) GetParam(key string) (string, bool, error) {
	var value string
	ok, err := m.get(governanceParamPrefix, []byte(key), &value)
	return value, ok, err
}

// PutParam writes a governance-controlled parameter, the effect of
// execute_proposal (§4.5).
func (m *Manager) PutParam(key, value string) error {
	return m.put(governanceParamPrefix, []byte(key), value)
}

// BumpGovernanceMeta extends the governance singleton's TTL, backing
// bump_instance.
func (m *Manager) BumpGovernanceMeta() error {
	return m.Bump(governanceMetaPrefix, []byte(governanceSingletonKey))
}
