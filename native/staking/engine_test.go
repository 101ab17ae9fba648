package staking

import (
	"math/big"
	"testing"

	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
)

// fakeToken is a minimal in-memory stand-in for the receipt-token ledger,
// enough of the tokenLedger surface for staking engine tests.
type fakeToken struct {
	minter   crypto.Address
	balances map[string]*big.Int
	supply   *big.Int
}

func newFakeToken(minter crypto.Address) *fakeToken {
	return &fakeToken{minter: minter, balances: make(map[string]*big.Int), supply: big.NewInt(0)}
}

func (f *fakeToken) Mint(caller, to crypto.Address, amount *big.Int) error {
	if !caller.Equal(f.minter) {
		return common.ErrNotAuthorized
	}
	bal := f.balances[to.String()]
	if bal == nil {
		bal = big.NewInt(0)
	}
	f.balances[to.String()] = new(big.Int).Add(bal, amount)
	f.supply = new(big.Int).Add(f.supply, amount)
	return nil
}

func (f *fakeToken) Burn(caller, from crypto.Address, amount *big.Int) error {
	if !caller.Equal(f.minter) {
		return common.ErrNotAuthorized
	}
	bal := f.balances[from.String()]
	if bal == nil || bal.Cmp(amount) < 0 {
		return common.ErrArithmeticOverflow
	}
	f.balances[from.String()] = new(big.Int).Sub(bal, amount)
	f.supply = new(big.Int).Sub(f.supply, amount)
	return nil
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

// fakeStakingState is a hand-rolled in-memory stand-in for *state.Manager.
type fakeStakingState struct {
	meta        state.StakingMeta
	hasMeta     bool
	withdrawals map[uint64]state.Withdrawal
	accounts    map[string]types.Account
	ledger      uint64
}

func newFakeStakingState() *fakeStakingState {
	return &fakeStakingState{
		withdrawals: make(map[uint64]state.Withdrawal),
		accounts:    make(map[string]types.Account),
	}
}

func (f *fakeStakingState) GetStakingMeta() (state.StakingMeta, bool, error) {
	return f.meta, f.hasMeta, nil
}
func (f *fakeStakingState) PutStakingMeta(m state.StakingMeta) error {
	f.meta = m
	f.hasMeta = true
	return nil
}
func (f *fakeStakingState) GetWithdrawal(id uint64) (state.Withdrawal, bool, error) {
	w, ok := f.withdrawals[id]
	return w, ok, nil
}
func (f *fakeStakingState) PutWithdrawal(id uint64, w state.Withdrawal) error {
	f.withdrawals[id] = w
	return nil
}
func (f *fakeStakingState) GetAccount(addr crypto.Address) (types.Account, error) {
	acc, ok := f.accounts[addr.String()]
	if !ok {
		acc.EnsureDefaults()
		return acc, nil
	}
	return acc, nil
}
func (f *fakeStakingState) PutAccount(addr crypto.Address, acc types.Account) error {
	f.accounts[addr.String()] = acc
	return nil
}
func (f *fakeStakingState) Ledger() uint64                    { return f.ledger }
func (f *fakeStakingState) BumpStakingMeta() error             { return nil }
func (f *fakeStakingState) BumpWithdrawal(id uint64) error     { return nil }

func stakingTestAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[19] = suffix
	return crypto.MustNewAddress(crypto.XLMPrefix, raw)
}

func fund(st *fakeStakingState, addr crypto.Address, xlm int64) {
	acc, _ := st.GetAccount(addr)
	acc.EnsureDefaults()
	acc.BalanceXLM = big.NewInt(xlm)
	st.accounts[addr.String()] = acc
}

func newTestEngine() (*Engine, *fakeStakingState, *fakeToken, crypto.Address) {
	self := stakingTestAddress(0xAA)
	admin := stakingTestAddress(1)
	sxlmToken := stakingTestAddress(2)
	nativeToken := stakingTestAddress(3)

	st := newFakeStakingState()
	tok := newFakeToken(self)
	e := NewEngine(st)
	e.SetToken(tok)
	e.SetSelf(self)
	if err := e.Initialize(admin, sxlmToken, nativeToken, 100); err != nil {
		panic(err)
	}
	return e, st, tok, admin
}

// TestFirstDepositorMintsAtParity covers spec §8 scenario 1: the first
// deposit into an empty pool mints 1:1 and the exchange rate reads exactly
// RatePrecision.
func TestFirstDepositorMintsAtParity(t *testing.T) {
	e, st, _, _ := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, 100*common.RatePrecision)

	minted, err := e.Deposit(user, user, big.NewInt(100*common.RatePrecision))
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if minted.Cmp(big.NewInt(100*common.RatePrecision)) != 0 {
		t.Fatalf("unexpected mint: %s", minted)
	}
	rate, err := e.GetExchangeRate()
	if err != nil {
		t.Fatalf("exchange rate: %v", err)
	}
	if rate.Cmp(big.NewInt(common.RatePrecision)) != 0 {
		t.Fatalf("expected exchange rate %d, got %s", common.RatePrecision, rate)
	}
}

// TestRewardsLiftExchangeRate covers spec §8 scenario 2: adding 10·10^7 XLM
// of rewards (net of a default 10% protocol fee) onto a 100·10^7 pool lifts
// the exchange rate to 10,900,000.
func TestRewardsLiftExchangeRate(t *testing.T) {
	e, st, _, admin := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, 100*common.RatePrecision)
	if _, err := e.Deposit(user, user, big.NewInt(100*common.RatePrecision)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := e.SetProtocolFeeBps(admin, 1000); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	fund(st, admin, 10*common.RatePrecision)
	if err := e.AddRewards(admin, big.NewInt(10*common.RatePrecision)); err != nil {
		t.Fatalf("add rewards: %v", err)
	}
	rate, err := e.GetExchangeRate()
	if err != nil {
		t.Fatalf("exchange rate: %v", err)
	}
	if rate.Cmp(big.NewInt(10_900_000)) != 0 {
		t.Fatalf("expected exchange rate 10900000, got %s", rate)
	}
}

// TestSecondDepositorMintsProRata covers spec §8 scenario 3: once the
// exchange rate has risen, a second 109·10^7 XLM deposit mints exactly
// 100·10^7 sXLM.
func TestSecondDepositorMintsProRata(t *testing.T) {
	e, st, _, admin := newTestEngine()
	first := stakingTestAddress(10)
	second := stakingTestAddress(11)
	fund(st, first, 100*common.RatePrecision)
	if _, err := e.Deposit(first, first, big.NewInt(100*common.RatePrecision)); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	if err := e.SetProtocolFeeBps(admin, 1000); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	fund(st, admin, 10*common.RatePrecision)
	if err := e.AddRewards(admin, big.NewInt(10*common.RatePrecision)); err != nil {
		t.Fatalf("add rewards: %v", err)
	}
	fund(st, second, 109*common.RatePrecision)
	minted, err := e.Deposit(second, second, big.NewInt(109*common.RatePrecision))
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if minted.Cmp(big.NewInt(100*common.RatePrecision)) != 0 {
		t.Fatalf("expected mint 100*RatePrecision, got %s", minted)
	}
}

// TestInstantWithdrawalPaysFromBuffer covers spec §8 scenario 4: an instant
// withdrawal of 50·10^7 sXLM against a 10,900,000 exchange rate pays out
// 545,000,000 stroops and settles without a cooldown.
func TestInstantWithdrawalPaysFromBuffer(t *testing.T) {
	e, st, _, admin := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, 100*common.RatePrecision)
	if _, err := e.Deposit(user, user, big.NewInt(100*common.RatePrecision)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := e.SetProtocolFeeBps(admin, 1000); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	fund(st, admin, 10*common.RatePrecision)
	if err := e.AddRewards(admin, big.NewInt(10*common.RatePrecision)); err != nil {
		t.Fatalf("add rewards: %v", err)
	}

	result, err := e.RequestWithdrawal(user, user, big.NewInt(50*common.RatePrecision), true)
	if err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	if !result.IsInstant {
		t.Fatalf("expected instant settlement")
	}
	if result.XLMAmount.Cmp(big.NewInt(545_000_000)) != 0 {
		t.Fatalf("expected xlm_out 545000000, got %s", result.XLMAmount)
	}
}

// TestRequestWithdrawalQueuesWhenInstantNotRequested exercises the delayed
// path when the caller does not request instant settlement, even though the
// liquidity buffer could cover the amount.
func TestRequestWithdrawalQueuesWhenInstantNotRequested(t *testing.T) {
	e, st, _, _ := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, 100*common.RatePrecision)
	if _, err := e.Deposit(user, user, big.NewInt(100*common.RatePrecision)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	result, err := e.RequestWithdrawal(user, user, big.NewInt(10*common.RatePrecision), false)
	if err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	if result.IsInstant {
		t.Fatalf("expected delayed settlement")
	}
	if _, err := e.ClaimWithdrawal(user, user, result.WithdrawalID); err != ErrWithdrawalLocked {
		t.Fatalf("expected ErrWithdrawalLocked before cooldown, got %v", err)
	}
	st.ledger = 200
	paid, err := e.ClaimWithdrawal(user, user, result.WithdrawalID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Cmp(big.NewInt(10*common.RatePrecision)) != 0 {
		t.Fatalf("unexpected claim amount: %s", paid)
	}
	if _, err := e.ClaimWithdrawal(user, user, result.WithdrawalID); err != ErrAlreadyClaimed {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

// TestDelayedWithdrawalPreservesLiquidityBufferInvariant exercises invariant
// S2 (liquidity_buffer <= total_xlm_staked): a delayed withdrawal shrinks
// total_xlm_staked by xlm_out without ever touching the buffer directly, so
// the buffer must be clamped down alongside it.
func TestDelayedWithdrawalPreservesLiquidityBufferInvariant(t *testing.T) {
	e, st, _, _ := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, 100*common.RatePrecision)
	if _, err := e.Deposit(user, user, big.NewInt(100*common.RatePrecision)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	result, err := e.RequestWithdrawal(user, user, big.NewInt(40*common.RatePrecision), false)
	if err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	if result.IsInstant {
		t.Fatalf("expected delayed settlement")
	}

	total, err := e.TotalXLMStaked()
	if err != nil {
		t.Fatalf("total xlm staked: %v", err)
	}
	buffer, err := e.LiquidityBuffer()
	if err != nil {
		t.Fatalf("liquidity buffer: %v", err)
	}
	if buffer.Cmp(total) > 0 {
		t.Fatalf("invariant S2 violated: liquidity_buffer %s > total_xlm_staked %s", buffer, total)
	}
	if total.Cmp(big.NewInt(60*common.RatePrecision)) != 0 {
		t.Fatalf("expected total_xlm_staked 60*RatePrecision, got %s", total)
	}
	if buffer.Cmp(total) != 0 {
		t.Fatalf("expected liquidity_buffer clamped to total_xlm_staked, got %s vs %s", buffer, total)
	}
}

// TestApplySlashingReducesPendingWithdrawalsProportionally exercises the
// slashing reconciliation mandated by spec §7/§9 open question 2.
func TestApplySlashingReducesPendingWithdrawalsProportionally(t *testing.T) {
	e, st, _, admin := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, 100*common.RatePrecision)
	if _, err := e.Deposit(user, user, big.NewInt(100*common.RatePrecision)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	result, err := e.RequestWithdrawal(user, user, big.NewInt(50*common.RatePrecision), false)
	if err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}

	if err := e.ApplySlashing(admin, big.NewInt(10*common.RatePrecision)); err != nil {
		t.Fatalf("slash: %v", err)
	}
	w, ok, err := st.GetWithdrawal(result.WithdrawalID)
	if err != nil || !ok {
		t.Fatalf("withdrawal missing: ok=%v err=%v", ok, err)
	}
	// pool stood at 50*RatePrecision when the slash landed (the 50 already
	// queued for withdrawal having been deducted); 10*RatePrecision slashed
	// out of that leaves an 80% retained ratio.
	if w.XLMAmount.Cmp(big.NewInt(40*common.RatePrecision)) != 0 {
		t.Fatalf("expected withdrawal reduced to 40*RatePrecision, got %s", w.XLMAmount)
	}
}

func TestDepositRejectsBelowMinStake(t *testing.T) {
	e, st, _, _ := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, common.RatePrecision)
	if _, err := e.Deposit(user, user, big.NewInt(1)); err != ErrBelowMinStake {
		t.Fatalf("expected ErrBelowMinStake, got %v", err)
	}
}

func TestSetValidatorsRequiresAdmin(t *testing.T) {
	e, _, _, admin := newTestEngine()
	intruder := stakingTestAddress(99)
	validators := []crypto.Address{stakingTestAddress(1), stakingTestAddress(2)}

	if err := e.SetValidators(intruder, validators); err != common.ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := e.SetValidators(admin, validators); err != nil {
		t.Fatalf("set validators: %v", err)
	}
	got, err := e.Validators()
	if err != nil {
		t.Fatalf("validators: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(validators[0]) || !got[1].Equal(validators[1]) {
		t.Fatalf("unexpected validator list: %v", got)
	}
}

func TestPauseBlocksDeposit(t *testing.T) {
	e, st, _, admin := newTestEngine()
	user := stakingTestAddress(10)
	fund(st, user, 100*common.RatePrecision)
	if err := e.Pause(admin); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := e.Deposit(user, user, big.NewInt(10*common.RatePrecision)); err != ErrPaused {
		t.Fatalf("expected ErrPaused, got %v", err)
	}
}
