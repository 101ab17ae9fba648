package token

import (
	"math/big"
	"testing"

	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
)

// fakeState is a hand-rolled in-memory stand-in for *state.Manager, enough
// of the engineState surface for token engine tests.
type fakeState struct {
	meta       state.TokenMeta
	hasMeta    bool
	balances   map[string]*big.Int
	allowances map[string]state.Allowance
	ledger     uint64
}

func newFakeState() *fakeState {
	return &fakeState{
		balances:   make(map[string]*big.Int),
		allowances: make(map[string]state.Allowance),
	}
}

func (f *fakeState) GetTokenMeta() (state.TokenMeta, bool, error) { return f.meta, f.hasMeta, nil }
func (f *fakeState) PutTokenMeta(m state.TokenMeta) error {
	f.meta = m
	f.hasMeta = true
	return nil
}

func (f *fakeState) GetBalance(owner crypto.Address) (*big.Int, error) {
	if b, ok := f.balances[owner.String()]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeState) PutBalance(owner crypto.Address, balance *big.Int) error {
	if balance.Sign() == 0 {
		delete(f.balances, owner.String())
		return nil
	}
	f.balances[owner.String()] = new(big.Int).Set(balance)
	return nil
}

func allowanceKey(owner, spender crypto.Address) string {
	return owner.String() + "|" + spender.String()
}

func (f *fakeState) GetAllowance(owner, spender crypto.Address) (state.Allowance, error) {
	if a, ok := f.allowances[allowanceKey(owner, spender)]; ok {
		return a, nil
	}
	return state.Allowance{Amount: big.NewInt(0)}, nil
}

func (f *fakeState) PutAllowance(owner, spender crypto.Address, a state.Allowance) error {
	if a.Amount == nil || a.Amount.Sign() == 0 {
		delete(f.allowances, allowanceKey(owner, spender))
		return nil
	}
	f.allowances[allowanceKey(owner, spender)] = a
	return nil
}

func (f *fakeState) Ledger() uint64                          { return f.ledger }
func (f *fakeState) BumpTokenMeta() error                    { return nil }
func (f *fakeState) BumpBalance(owner crypto.Address) error  { return nil }

func testAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = suffix
	return crypto.MustNewAddress(crypto.SXLMPrefix, raw)
}

func TestMintRequiresMinter(t *testing.T) {
	st := newFakeState()
	e := NewEngine(st)
	admin := testAddress(1)
	minter := testAddress(2)
	other := testAddress(3)
	user := testAddress(4)

	if err := e.Initialize(admin, minter, 7, "Staked XLM", "sXLM"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.Mint(other, user, big.NewInt(100)); err != common.ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := e.Mint(minter, user, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	bal, err := e.Balance(user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected balance: %s", bal)
	}
	supply, err := e.TotalSupply()
	if err != nil {
		t.Fatalf("total supply: %v", err)
	}
	if supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected total supply: %s", supply)
	}
}

func TestBurnAllowsMinterOrHolder(t *testing.T) {
	st := newFakeState()
	e := NewEngine(st)
	admin := testAddress(1)
	minter := testAddress(2)
	user := testAddress(3)
	stranger := testAddress(4)

	if err := e.Initialize(admin, minter, 7, "Staked XLM", "sXLM"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.Mint(minter, user, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := e.Burn(stranger, user, big.NewInt(10)); err != common.ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := e.Burn(user, user, big.NewInt(10)); err != nil {
		t.Fatalf("holder burn: %v", err)
	}
	if err := e.Burn(minter, user, big.NewInt(10)); err != nil {
		t.Fatalf("minter burn: %v", err)
	}
	bal, _ := e.Balance(user)
	if bal.Cmp(big.NewInt(80)) != 0 {
		t.Fatalf("unexpected balance after burns: %s", bal)
	}
}

func TestTransferRequiresSender(t *testing.T) {
	st := newFakeState()
	e := NewEngine(st)
	admin := testAddress(1)
	minter := testAddress(2)
	from := testAddress(3)
	to := testAddress(4)

	if err := e.Initialize(admin, minter, 7, "Staked XLM", "sXLM"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.Mint(minter, from, big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := e.Transfer(to, from, to, big.NewInt(10)); err != common.ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := e.Transfer(from, from, to, big.NewInt(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	fromBal, _ := e.Balance(from)
	toBal, _ := e.Balance(to)
	if fromBal.Cmp(big.NewInt(40)) != 0 || toBal.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("unexpected balances: from=%s to=%s", fromBal, toBal)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	st := newFakeState()
	e := NewEngine(st)
	admin := testAddress(1)
	minter := testAddress(2)
	from := testAddress(3)
	to := testAddress(4)

	if err := e.Initialize(admin, minter, 7, "Staked XLM", "sXLM"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.Transfer(from, from, to, big.NewInt(1)); err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestAllowanceExpiresByLedger(t *testing.T) {
	st := newFakeState()
	e := NewEngine(st)
	admin := testAddress(1)
	minter := testAddress(2)
	owner := testAddress(3)
	spender := testAddress(4)
	to := testAddress(5)

	if err := e.Initialize(admin, minter, 7, "Staked XLM", "sXLM"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.Mint(minter, owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := e.Approve(owner, owner, spender, big.NewInt(50), 10); err != nil {
		t.Fatalf("approve: %v", err)
	}
	st.ledger = 11
	allowance, err := e.Allowance(owner, spender)
	if err != nil {
		t.Fatalf("allowance: %v", err)
	}
	if allowance.Sign() != 0 {
		t.Fatalf("expected expired allowance to read zero, got %s", allowance)
	}
	if err := e.TransferFrom(spender, spender, owner, to, big.NewInt(1)); err != ErrAllowanceExpired {
		t.Fatalf("expected ErrAllowanceExpired, got %v", err)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	st := newFakeState()
	e := NewEngine(st)
	admin := testAddress(1)
	minter := testAddress(2)
	owner := testAddress(3)
	spender := testAddress(4)
	to := testAddress(5)

	if err := e.Initialize(admin, minter, 7, "Staked XLM", "sXLM"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := e.Mint(minter, owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := e.Approve(owner, owner, spender, big.NewInt(30), 1000); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := e.TransferFrom(spender, spender, owner, to, big.NewInt(30)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if err := e.TransferFrom(spender, spender, owner, to, big.NewInt(1)); err != ErrInsufficientAllowance {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
}
