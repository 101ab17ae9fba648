// Package governance implements weighted parameter-change proposals: stake
// gated proposal creation, live-balance voting, quorum, and execution that
// writes into the shared parameter store (spec §4.5).
package governance

import (
	"math/big"

	"github.com/google/uuid"

	"github.com/rajdeep-singha/sXLM/core/events"
	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
	"github.com/rajdeep-singha/sXLM/observability/metrics"
)

// MinProposalStake is the minimum sXLM balance required of a proposer
// (spec §4.5: "e.g. 100·10^7 sXLM").
var MinProposalStake = new(big.Int).Mul(big.NewInt(100), big.NewInt(common.RatePrecision))

// DefaultApprovalThresholdBps requires a strict majority of cast weight,
// matching spec §4.5's "votes_for > votes_against" condition exactly.
const DefaultApprovalThresholdBps = 5000

type engineState interface {
	GetGovernanceMeta() (state.GovernanceMeta, bool, error)
	PutGovernanceMeta(state.GovernanceMeta) error
	GetProposal(id uint64) (state.Proposal, bool, error)
	PutProposal(id uint64, p state.Proposal) error
	HasVoted(id uint64, voter crypto.Address) (bool, error)
	RecordVote(id uint64, voter crypto.Address) error
	GetParam(key string) (string, bool, error)
	PutParam(key, value string) error
	Ledger() uint64
	BumpGovernanceMeta() error
}

// tokenLedger is the balance view governance reads voting weight and
// proposal eligibility from.
type tokenLedger interface {
	Balance(owner crypto.Address) (*big.Int, error)
	TotalSupply() (*big.Int, error)
}

// Engine implements every public operation of the governance core.
type Engine struct {
	state     engineState
	token     tokenLedger
	emitter   events.Emitter
	telemetry *metrics.GovernanceMetrics
}

// NewEngine constructs a governance engine over the given storage.
func NewEngine(st engineState) *Engine {
	return &Engine{state: st, emitter: events.NoopEmitter{}, telemetry: metrics.Governance()}
}

// SetToken wires the receipt-token ledger voting weight is read from.
func (e *Engine) SetToken(t tokenLedger) { e.token = t }

// SetEmitter wires an event sink; defaults to a no-op.
func (e *Engine) SetEmitter(em events.Emitter) {
	if em == nil {
		em = events.NoopEmitter{}
	}
	e.emitter = em
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

// Initialize performs the one-shot governance setup (spec §4.5).
func (e *Engine) Initialize(admin, sxlmToken crypto.Address, votingPeriodLedgers uint64, quorumBps uint32) error {
	_, ok, err := e.state.GetGovernanceMeta()
	if err != nil {
		return err
	}
	if ok {
		return common.ErrAlreadyInitialized
	}
	return e.state.PutGovernanceMeta(state.GovernanceMeta{
		Admin:                admin,
		SxlmToken:            sxlmToken,
		VotingPeriodLedgers:  votingPeriodLedgers,
		QuorumBps:            quorumBps,
		ApprovalThresholdBps: DefaultApprovalThresholdBps,
		ProposalCount:        0,
		Initialized:          true,
	})
}

func (e *Engine) requireInitialized() (state.GovernanceMeta, error) {
	meta, ok, err := e.state.GetGovernanceMeta()
	if err != nil {
		return state.GovernanceMeta{}, err
	}
	if !ok {
		return state.GovernanceMeta{}, common.ErrNotInitialized
	}
	return meta, nil
}

// CreateProposal assigns proposal_count as the new id and opens the voting
// window, requiring the proposer to hold at least MinProposalStake (spec
// §4.5).
func (e *Engine) CreateProposal(caller, proposer crypto.Address, paramKey, newValue string) (uint64, error) {
	if !caller.Equal(proposer) {
		return 0, common.ErrNotAuthorized
	}
	meta, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	bal, err := e.token.Balance(proposer)
	if err != nil {
		return 0, err
	}
	if bal.Cmp(MinProposalStake) < 0 {
		return 0, ErrInsufficientStakeToPropose
	}
	id := meta.ProposalCount
	current := e.state.Ledger()
	p := state.Proposal{
		Proposer:     proposer,
		ParamKey:     paramKey,
		NewValue:     newValue,
		StartLedger:  current,
		EndLedger:    current + meta.VotingPeriodLedgers,
		VotesFor:     big.NewInt(0),
		VotesAgainst: big.NewInt(0),
		Executed:     false,
	}
	if err := e.state.PutProposal(id, p); err != nil {
		return 0, err
	}
	meta.ProposalCount = id + 1
	if err := e.state.PutGovernanceMeta(meta); err != nil {
		return 0, err
	}
	e.telemetry.Proposals.Inc()
	e.emit(events.Proposed{ProposalID: id, Proposer: proposer, ParamKey: paramKey, NewValue: newValue})
	return id, nil
}

// Vote casts voter's current sXLM balance as weight for or against proposal
// id. Voting weight is read live, not snapshotted at proposal creation (spec
// §4.5, §9 Open Question 1 — a documented, intentional limitation).
func (e *Engine) Vote(caller, voter crypto.Address, proposalID uint64, support bool) error {
	if !caller.Equal(voter) {
		return common.ErrNotAuthorized
	}
	if _, err := e.requireInitialized(); err != nil {
		return err
	}
	p, ok, err := e.state.GetProposal(proposalID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProposalNotFound
	}
	if e.state.Ledger() > p.EndLedger {
		return ErrVotingClosed
	}
	voted, err := e.state.HasVoted(proposalID, voter)
	if err != nil {
		return err
	}
	if voted {
		return ErrAlreadyVoted
	}
	weight, err := e.token.Balance(voter)
	if err != nil {
		return err
	}
	if support {
		p.VotesFor = new(big.Int).Add(p.VotesFor, weight)
	} else {
		p.VotesAgainst = new(big.Int).Add(p.VotesAgainst, weight)
	}
	if err := e.state.PutProposal(proposalID, p); err != nil {
		return err
	}
	if err := e.state.RecordVote(proposalID, voter); err != nil {
		return err
	}
	e.telemetry.Votes.Inc()
	e.emit(events.Voted{ProposalID: proposalID, Voter: voter, Support: support, Weight: weight})
	return nil
}

// ExecuteProposal writes the proposal's parameter once voting has closed,
// the vote passed, and quorum was met (spec §4.5).
func (e *Engine) ExecuteProposal(proposalID uint64) (string, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return "", err
	}
	p, ok, err := e.state.GetProposal(proposalID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrProposalNotFound
	}
	if e.state.Ledger() <= p.EndLedger {
		return "", ErrVotingOpen
	}
	if p.Executed {
		return "", ErrAlreadyExecuted
	}
	totalCast := new(big.Int).Add(p.VotesFor, p.VotesAgainst)
	totalSupply, err := e.token.TotalSupply()
	if err != nil {
		return "", err
	}
	quorumRequired := common.MulDivFloor(totalSupply, big.NewInt(int64(meta.QuorumBps)), big.NewInt(common.BpsScale))
	if totalCast.Cmp(quorumRequired) < 0 {
		return "", ErrQuorumNotMet
	}
	approvalRequired := common.MulDivFloor(totalCast, big.NewInt(int64(meta.ApprovalThresholdBps)), big.NewInt(common.BpsScale))
	if p.VotesFor.Cmp(p.VotesAgainst) <= 0 || p.VotesFor.Cmp(approvalRequired) < 0 {
		return "", ErrQuorumNotMet
	}
	if err := e.state.PutParam(p.ParamKey, p.NewValue); err != nil {
		return "", err
	}
	p.Executed = true
	p.ReceiptID = uuid.New().String()
	if err := e.state.PutProposal(proposalID, p); err != nil {
		return "", err
	}
	e.telemetry.Executions.Inc()
	e.emit(events.Executed{ProposalID: proposalID, ReceiptID: p.ReceiptID})
	return p.ReceiptID, nil
}

// GetProposal returns the raw stored proposal.
func (e *Engine) GetProposal(id uint64) (state.Proposal, error) {
	p, ok, err := e.state.GetProposal(id)
	if err != nil {
		return state.Proposal{}, err
	}
	if !ok {
		return state.Proposal{}, ErrProposalNotFound
	}
	return p, nil
}

// GetVoteCount returns the current (for, against) tally of a proposal.
func (e *Engine) GetVoteCount(id uint64) (*big.Int, *big.Int, error) {
	p, err := e.GetProposal(id)
	if err != nil {
		return nil, nil, err
	}
	return p.VotesFor, p.VotesAgainst, nil
}

// ProposalCount returns the number of proposals ever created.
func (e *Engine) ProposalCount() (uint64, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	return meta.ProposalCount, nil
}

// SetApprovalThresholdBps is the parameter-governance setter for the
// fraction of cast weight a proposal must clear, beyond the plain
// majority spec §4.5 requires by default (spec §4.5's parameter contract).
func (e *Engine) SetApprovalThresholdBps(caller crypto.Address, bps uint32) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.ApprovalThresholdBps = bps
	return e.state.PutGovernanceMeta(meta)
}

// GetParam reads a governance-controlled parameter.
func (e *Engine) GetParam(key string) (string, bool, error) {
	return e.state.GetParam(key)
}

// BumpInstance extends the governance singleton's storage TTL (spec §5,
// §6).
func (e *Engine) BumpInstance() error {
	return e.state.BumpGovernanceMeta()
}
