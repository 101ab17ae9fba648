package governance

import (
	"math/big"
	"testing"

	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
)

// fakeToken is a minimal in-memory stand-in for the receipt-token ledger,
// enough of the tokenLedger surface for governance engine tests.
type fakeToken struct {
	balances map[string]*big.Int
	supply   *big.Int
}

func newFakeToken() *fakeToken {
	return &fakeToken{balances: make(map[string]*big.Int), supply: big.NewInt(0)}
}

func (f *fakeToken) Balance(owner crypto.Address) (*big.Int, error) {
	bal := f.balances[owner.String()]
	if bal == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

func (f *fakeToken) TotalSupply() (*big.Int, error) {
	return new(big.Int).Set(f.supply), nil
}

func (f *fakeToken) fund(owner crypto.Address, amount *big.Int) {
	f.balances[owner.String()] = new(big.Int).Set(amount)
	f.supply = new(big.Int).Add(f.supply, amount)
}

// fakeGovernanceState is a hand-rolled in-memory stand-in for *state.Manager.
type fakeGovernanceState struct {
	meta      state.GovernanceMeta
	hasMeta   bool
	proposals map[uint64]state.Proposal
	votes     map[string]bool
	params    map[string]string
	ledger    uint64
}

func newFakeGovernanceState() *fakeGovernanceState {
	return &fakeGovernanceState{
		proposals: make(map[uint64]state.Proposal),
		votes:     make(map[string]bool),
		params:    make(map[string]string),
	}
}

func (f *fakeGovernanceState) GetGovernanceMeta() (state.GovernanceMeta, bool, error) {
	return f.meta, f.hasMeta, nil
}
func (f *fakeGovernanceState) PutGovernanceMeta(m state.GovernanceMeta) error {
	f.meta = m
	f.hasMeta = true
	return nil
}
func (f *fakeGovernanceState) GetProposal(id uint64) (state.Proposal, bool, error) {
	p, ok := f.proposals[id]
	return p, ok, nil
}
func (f *fakeGovernanceState) PutProposal(id uint64, p state.Proposal) error {
	f.proposals[id] = p
	return nil
}
func voteKeyStr(id uint64, voter crypto.Address) string {
	return voter.String() + "#" + string(rune(id))
}
func (f *fakeGovernanceState) HasVoted(id uint64, voter crypto.Address) (bool, error) {
	return f.votes[voteKeyStr(id, voter)], nil
}
func (f *fakeGovernanceState) RecordVote(id uint64, voter crypto.Address) error {
	f.votes[voteKeyStr(id, voter)] = true
	return nil
}
func (f *fakeGovernanceState) GetParam(key string) (string, bool, error) {
	v, ok := f.params[key]
	return v, ok, nil
}
func (f *fakeGovernanceState) PutParam(key, value string) error {
	f.params[key] = value
	return nil
}
func (f *fakeGovernanceState) Ledger() uint64             { return f.ledger }
func (f *fakeGovernanceState) BumpGovernanceMeta() error  { return nil }

func govTestAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = suffix
	return crypto.MustNewAddress(crypto.SXLMPrefix, raw)
}

func newTestEngine() (*Engine, *fakeGovernanceState, *fakeToken, crypto.Address) {
	admin := govTestAddress(1)
	sxlmToken := govTestAddress(2)

	st := newFakeGovernanceState()
	tok := newFakeToken()
	e := NewEngine(st)
	e.SetToken(tok)
	if err := e.Initialize(admin, sxlmToken, 100, 1000); err != nil {
		panic(err)
	}
	return e, st, tok, admin
}

// TestGovernanceHappyPath covers spec §8 scenario 7: two voters with 60 and
// 50 sXLM (total supply 210, counting the proposer's 100) pass a proposal at
// 1000bps quorum, and a second
// execute_proposal call fails AlreadyExecuted.
func TestGovernanceHappyPath(t *testing.T) {
	e, st, tok, _ := newTestEngine()
	proposer := govTestAddress(10)
	voterFor := govTestAddress(11)
	voterAgainst := govTestAddress(12)

	tok.fund(proposer, big.NewInt(100*common.RatePrecision))
	tok.fund(voterFor, big.NewInt(60*common.RatePrecision))
	tok.fund(voterAgainst, big.NewInt(50*common.RatePrecision))

	id, err := e.CreateProposal(proposer, proposer, "protocol_fee_bps", "500")
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}

	if err := e.Vote(voterFor, voterFor, id, true); err != nil {
		t.Fatalf("vote for: %v", err)
	}
	if err := e.Vote(voterAgainst, voterAgainst, id, false); err != nil {
		t.Fatalf("vote against: %v", err)
	}

	forVotes, againstVotes, err := e.GetVoteCount(id)
	if err != nil {
		t.Fatalf("vote count: %v", err)
	}
	if forVotes.Cmp(big.NewInt(60*common.RatePrecision)) != 0 || againstVotes.Cmp(big.NewInt(50*common.RatePrecision)) != 0 {
		t.Fatalf("unexpected tally: for=%s against=%s", forVotes, againstVotes)
	}

	st.ledger = 200 // past end_ledger (start 0 + voting period 100)
	if _, err := e.ExecuteProposal(id); err != nil {
		t.Fatalf("execute proposal: %v", err)
	}
	value, ok, err := e.GetParam("protocol_fee_bps")
	if err != nil || !ok || value != "500" {
		t.Fatalf("expected param written, got value=%q ok=%v err=%v", value, ok, err)
	}

	if _, err := e.ExecuteProposal(id); err != ErrAlreadyExecuted {
		t.Fatalf("expected ErrAlreadyExecuted, got %v", err)
	}
}

// TestVoteRejectsDoubleVoting covers the idempotence property of §8.3.
func TestVoteRejectsDoubleVoting(t *testing.T) {
	e, _, tok, _ := newTestEngine()
	proposer := govTestAddress(10)
	voter := govTestAddress(11)
	tok.fund(proposer, big.NewInt(100*common.RatePrecision))
	tok.fund(voter, big.NewInt(10*common.RatePrecision))

	id, err := e.CreateProposal(proposer, proposer, "k", "v")
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	if err := e.Vote(voter, voter, id, true); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := e.Vote(voter, voter, id, true); err != ErrAlreadyVoted {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
}

// TestCreateProposalRejectsInsufficientStake exercises the proposer-stake
// gate (spec §4.5).
func TestCreateProposalRejectsInsufficientStake(t *testing.T) {
	e, _, tok, _ := newTestEngine()
	proposer := govTestAddress(10)
	tok.fund(proposer, big.NewInt(10*common.RatePrecision))

	if _, err := e.CreateProposal(proposer, proposer, "k", "v"); err != ErrInsufficientStakeToPropose {
		t.Fatalf("expected ErrInsufficientStakeToPropose, got %v", err)
	}
}

// TestExecuteProposalRejectsBelowQuorum exercises the quorum gate.
func TestExecuteProposalRejectsBelowQuorum(t *testing.T) {
	e, st, tok, _ := newTestEngine()
	proposer := govTestAddress(10)
	voter := govTestAddress(11)
	tok.fund(proposer, big.NewInt(100*common.RatePrecision))
	tok.fund(voter, big.NewInt(1*common.RatePrecision))
	// Inflate total supply so the single small voter can't meet 1000bps quorum.
	tok.supply = new(big.Int).Add(tok.supply, big.NewInt(1000*common.RatePrecision))

	id, err := e.CreateProposal(proposer, proposer, "k", "v")
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	if err := e.Vote(voter, voter, id, true); err != nil {
		t.Fatalf("vote: %v", err)
	}
	st.ledger = 200
	if _, err := e.ExecuteProposal(id); err != ErrQuorumNotMet {
		t.Fatalf("expected ErrQuorumNotMet, got %v", err)
	}
}

// TestVoteRejectsAfterVotingCloses covers the VotingClosed precondition.
func TestVoteRejectsAfterVotingCloses(t *testing.T) {
	e, st, tok, _ := newTestEngine()
	proposer := govTestAddress(10)
	voter := govTestAddress(11)
	tok.fund(proposer, big.NewInt(100*common.RatePrecision))
	tok.fund(voter, big.NewInt(10*common.RatePrecision))

	id, err := e.CreateProposal(proposer, proposer, "k", "v")
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	st.ledger = 200
	if err := e.Vote(voter, voter, id, true); err != ErrVotingClosed {
		t.Fatalf("expected ErrVotingClosed, got %v", err)
	}
}
