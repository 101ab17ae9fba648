// Package staking implements the conversion core between XLM and sXLM: the
// exchange rate, the withdrawal queue with its instant-buffer and delayed
// cooldown paths, reward accrual, and slashing (spec §4.2).
package staking

import (
	"math"
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/events"
	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
	"github.com/rajdeep-singha/sXLM/observability/metrics"
)

// MinStake is the smallest deposit accepted, 1 XLM at the protocol's 10^7
// stroop scale (spec §4.2: "MIN_STAKE (=1 stroop × 10^7)").
const MinStake = common.RatePrecision

// InstantWithdrawalID is returned in place of a withdrawal id when a
// request_withdrawal call settles on the instant path (spec §4.2).
const InstantWithdrawalID = math.MaxUint64

// engineState is the storage surface the staking engine needs.
type engineState interface {
	GetStakingMeta() (state.StakingMeta, bool, error)
	PutStakingMeta(state.StakingMeta) error
	GetWithdrawal(id uint64) (state.Withdrawal, bool, error)
	PutWithdrawal(id uint64, w state.Withdrawal) error
	GetAccount(addr crypto.Address) (types.Account, error)
	PutAccount(addr crypto.Address, acc types.Account) error
	Ledger() uint64
	BumpStakingMeta() error
	BumpWithdrawal(id uint64) error
}

// tokenLedger is the subset of the receipt-token engine staking depends on.
type tokenLedger interface {
	Mint(caller, to crypto.Address, amount *big.Int) error
	Burn(caller, from crypto.Address, amount *big.Int) error
	Balance(owner crypto.Address) (*big.Int, error)
	TotalSupply() (*big.Int, error)
}

// Engine implements every public operation of the staking core.
type Engine struct {
	state     engineState
	token     tokenLedger
	self      crypto.Address // the staking contract's own identity, configured as the token's minter
	emitter   events.Emitter
	telemetry *metrics.StakingMetrics
}

// NewEngine constructs a staking engine over the given storage.
func NewEngine(st engineState) *Engine {
	return &Engine{state: st, emitter: events.NoopEmitter{}, telemetry: metrics.Staking()}
}

// SetToken wires the receipt-token ledger staking mints and burns against.
func (e *Engine) SetToken(t tokenLedger) { e.token = t }

// SetSelf configures the address the staking contract authenticates as when
// calling the token ledger's minter-gated operations.
func (e *Engine) SetSelf(addr crypto.Address) { e.self = addr }

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

// Initialize performs the one-shot staking setup (spec §4.2).
func (e *Engine) Initialize(admin, sxlmToken, nativeToken crypto.Address, cooldownPeriod uint32) error {
	_, ok, err := e.state.GetStakingMeta()
	if err != nil {
		return err
	}
	if ok {
		return common.ErrAlreadyInitialized
	}
	return e.state.PutStakingMeta(state.StakingMeta{
		Admin:           admin,
		SxlmToken:       sxlmToken,
		NativeToken:     nativeToken,
		TotalXLMStaked:  big.NewInt(0),
		LiquidityBuffer: big.NewInt(0),
		TreasuryBalance: big.NewInt(0),
		CooldownPeriod:  cooldownPeriod,
		Initialized:     true,
	})
}

func (e *Engine) requireInitialized() (state.StakingMeta, error) {
	meta, ok, err := e.state.GetStakingMeta()
	if err != nil {
		return state.StakingMeta{}, err
	}
	if !ok {
		return state.StakingMeta{}, common.ErrNotInitialized
	}
	return meta, nil
}

func (e *Engine) pullXLM(from crypto.Address, amount *big.Int) error {
	acc, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	if acc.BalanceXLM.Cmp(amount) < 0 {
		return common.ErrArithmeticOverflow
	}
	acc.BalanceXLM = new(big.Int).Sub(acc.BalanceXLM, amount)
	return e.state.PutAccount(from, acc)
}

func (e *Engine) creditXLM(to crypto.Address, amount *big.Int) error {
	acc, err := e.state.GetAccount(to)
	if err != nil {
		return err
	}
	newBal := new(big.Int).Add(acc.BalanceXLM, amount)
	if err := common.CheckBounds(newBal); err != nil {
		return err
	}
	acc.BalanceXLM = newBal
	return e.state.PutAccount(to, acc)
}

// Deposit pulls xlmAmount native from user and mints sXLM at the current
// exchange rate (spec §4.2).
func (e *Engine) Deposit(caller, user crypto.Address, xlmAmount *big.Int) (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if meta.IsPaused {
		return nil, ErrPaused
	}
	if !caller.Equal(user) {
		return nil, common.ErrNotAuthorized
	}
	if xlmAmount.Cmp(big.NewInt(MinStake)) < 0 {
		return nil, ErrBelowMinStake
	}
	totalSupply, err := e.token.TotalSupply()
	if err != nil {
		return nil, err
	}
	var sxlmMinted *big.Int
	if totalSupply.Sign() == 0 || meta.TotalXLMStaked.Sign() == 0 {
		sxlmMinted = new(big.Int).Set(xlmAmount)
	} else {
		sxlmMinted = common.MulDivFloor(xlmAmount, totalSupply, meta.TotalXLMStaked)
	}
	if err := e.pullXLM(user, xlmAmount); err != nil {
		return nil, err
	}
	meta.TotalXLMStaked = new(big.Int).Add(meta.TotalXLMStaked, xlmAmount)
	meta.LiquidityBuffer = new(big.Int).Add(meta.LiquidityBuffer, xlmAmount)
	if err := common.CheckBounds(meta.TotalXLMStaked); err != nil {
		return nil, err
	}
	if err := e.token.Mint(e.self, user, sxlmMinted); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingMeta(meta); err != nil {
		return nil, err
	}
	e.telemetry.Deposits.Inc()
	e.telemetry.LiquidityBuffer.Set(common.BigToFloat(meta.LiquidityBuffer))
	e.emit(events.Deposit{User: user, XLMAmount: xlmAmount, SxlmMinted: sxlmMinted})
	return sxlmMinted, nil
}

// WithdrawalResult is the outcome of a request_withdrawal call.
type WithdrawalResult struct {
	WithdrawalID uint64
	IsInstant    bool
	XLMAmount    *big.Int
}

// RequestWithdrawal burns sxlmAmount and either pays out instantly (if the
// caller requests it and the liquidity buffer can cover it) or queues a
// delayed claim behind the cooldown (spec §4.2, §9 open question 4: "prefer
// delayed unless caller requests instant").
func (e *Engine) RequestWithdrawal(caller, user crypto.Address, sxlmAmount *big.Int, wantInstant bool) (WithdrawalResult, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return WithdrawalResult{}, err
	}
	if meta.IsPaused {
		return WithdrawalResult{}, ErrPaused
	}
	if !caller.Equal(user) {
		return WithdrawalResult{}, common.ErrNotAuthorized
	}
	if sxlmAmount.Sign() <= 0 {
		return WithdrawalResult{}, ErrInsufficientSxlm
	}
	bal, err := e.token.Balance(user)
	if err != nil {
		return WithdrawalResult{}, err
	}
	if bal.Cmp(sxlmAmount) < 0 {
		return WithdrawalResult{}, ErrInsufficientSxlm
	}
	totalSupply, err := e.token.TotalSupply()
	if err != nil {
		return WithdrawalResult{}, err
	}
	if totalSupply.Sign() == 0 {
		return WithdrawalResult{}, ErrInsufficientSxlm
	}
	xlmOut := common.MulDivFloor(sxlmAmount, meta.TotalXLMStaked, totalSupply)
	if err := e.token.Burn(e.self, user, sxlmAmount); err != nil {
		return WithdrawalResult{}, err
	}
	meta.TotalXLMStaked = new(big.Int).Sub(meta.TotalXLMStaked, xlmOut)

	if wantInstant && meta.LiquidityBuffer.Cmp(xlmOut) >= 0 {
		meta.LiquidityBuffer = new(big.Int).Sub(meta.LiquidityBuffer, xlmOut)
		if err := e.creditXLM(user, xlmOut); err != nil {
			return WithdrawalResult{}, err
		}
		if err := e.state.PutStakingMeta(meta); err != nil {
			return WithdrawalResult{}, err
		}
		e.telemetry.InstantWithdrawals.Inc()
		e.telemetry.LiquidityBuffer.Set(common.BigToFloat(meta.LiquidityBuffer))
		e.emit(events.Instant{User: user, XLMAmount: xlmOut})
		return WithdrawalResult{WithdrawalID: InstantWithdrawalID, IsInstant: true, XLMAmount: xlmOut}, nil
	}

	// The delayed path leaves xlmOut earmarked for this withdrawal rather
	// than in the buffer, but total_xlm_staked just shrank by xlmOut too;
	// clamp so a buffer built up before this call can't outlive the reserve
	// it's drawn from (invariant S2), mirroring the clamp in ApplySlashing.
	if meta.LiquidityBuffer.Cmp(meta.TotalXLMStaked) > 0 {
		meta.LiquidityBuffer = new(big.Int).Set(meta.TotalXLMStaked)
	}

	id := meta.NextWithdrawalID
	meta.NextWithdrawalID++
	unlockLedger := e.state.Ledger() + uint64(meta.CooldownPeriod)
	if err := e.state.PutWithdrawal(id, state.Withdrawal{Owner: user, XLMAmount: xlmOut, UnlockLedger: unlockLedger}); err != nil {
		return WithdrawalResult{}, err
	}
	if err := e.state.PutStakingMeta(meta); err != nil {
		return WithdrawalResult{}, err
	}
	e.telemetry.DelayedWithdrawals.Inc()
	e.telemetry.LiquidityBuffer.Set(common.BigToFloat(meta.LiquidityBuffer))
	e.emit(events.Delayed{User: user, XLMAmount: xlmOut, WithdrawalID: id, UnlockLedger: unlockLedger})
	return WithdrawalResult{WithdrawalID: id, IsInstant: false, XLMAmount: xlmOut}, nil
}

// ClaimWithdrawal pays out a matured delayed withdrawal (spec §4.2).
func (e *Engine) ClaimWithdrawal(caller, user crypto.Address, withdrawalID uint64) (*big.Int, error) {
	if _, err := e.requireInitialized(); err != nil {
		return nil, err
	}
	w, ok, err := e.state.GetWithdrawal(withdrawalID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrNotFound
	}
	if !caller.Equal(user) || !w.Owner.Equal(user) {
		return nil, ErrNotOwner
	}
	if w.Claimed {
		return nil, ErrAlreadyClaimed
	}
	if e.state.Ledger() < w.UnlockLedger {
		return nil, ErrWithdrawalLocked
	}
	w.Claimed = true
	if err := e.state.PutWithdrawal(withdrawalID, w); err != nil {
		return nil, err
	}
	if err := e.creditXLM(user, w.XLMAmount); err != nil {
		return nil, err
	}
	e.telemetry.Claims.Inc()
	e.emit(events.Claimed{User: user, XLMAmount: w.XLMAmount, WithdrawalID: withdrawalID})
	return w.XLMAmount, nil
}

// AddRewards pulls amount XLM from admin, credits the protocol fee to the
// treasury, and raises total_xlm_staked by the remainder, lifting the
// exchange rate (spec §4.2).
func (e *Engine) AddRewards(caller crypto.Address, amount *big.Int) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	if amount.Sign() <= 0 {
		return nil
	}
	if err := e.pullXLM(meta.Admin, amount); err != nil {
		return err
	}
	fee := common.MulDivFloor(amount, big.NewInt(int64(meta.ProtocolFeeBps)), big.NewInt(common.BpsScale))
	meta.TreasuryBalance = new(big.Int).Add(meta.TreasuryBalance, fee)
	meta.TotalXLMStaked = new(big.Int).Add(meta.TotalXLMStaked, new(big.Int).Sub(amount, fee))
	if err := e.state.PutStakingMeta(meta); err != nil {
		return err
	}
	e.emit(events.Rewards{Amount: amount})
	return nil
}

// ApplySlashing reduces total_xlm_staked by min(slashAmount, total) and, per
// §7/§9 open question 2, proportionally reduces every unclaimed pending
// withdrawal's earmarked amount so solvency invariant S3 is preserved.
func (e *Engine) ApplySlashing(caller crypto.Address, slashAmount *big.Int) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	if meta.TotalXLMStaked.Sign() == 0 || slashAmount.Sign() <= 0 {
		return nil
	}
	actual := slashAmount
	if actual.Cmp(meta.TotalXLMStaked) > 0 {
		actual = new(big.Int).Set(meta.TotalXLMStaked)
	}
	// retainedRatio, scaled by RatePrecision, is what every pending
	// withdrawal's earmarked XLM keeps after this slash.
	retainedRatio := new(big.Int).Sub(
		big.NewInt(common.RatePrecision),
		common.MulDivFloor(actual, big.NewInt(common.RatePrecision), meta.TotalXLMStaked),
	)
	meta.TotalXLMStaked = new(big.Int).Sub(meta.TotalXLMStaked, actual)
	if meta.LiquidityBuffer.Cmp(meta.TotalXLMStaked) > 0 {
		meta.LiquidityBuffer = new(big.Int).Set(meta.TotalXLMStaked)
	}

	var adjusted uint64
	for id := uint64(0); id < meta.NextWithdrawalID; id++ {
		w, ok, err := e.state.GetWithdrawal(id)
		if err != nil {
			return err
		}
		if !ok || w.Claimed {
			continue
		}
		w.XLMAmount = common.MulDivFloor(w.XLMAmount, retainedRatio, big.NewInt(common.RatePrecision))
		if err := e.state.PutWithdrawal(id, w); err != nil {
			return err
		}
		adjusted++
	}

	if err := e.state.PutStakingMeta(meta); err != nil {
		return err
	}
	e.emit(events.Slashed{Amount: actual, WithdrawalsAdjusted: adjusted})
	return nil
}

// RecalibrateRate emits the current exchange rate for off-chain consumption
// without mutating state (spec §4.2).
func (e *Engine) RecalibrateRate() (*big.Int, error) {
	rate, err := e.GetExchangeRate()
	if err != nil {
		return nil, err
	}
	e.telemetry.ExchangeRate.Set(common.BigToFloat(rate))
	e.emit(events.RateRecalibrated{Rate: rate})
	return rate, nil
}

// Pause halts deposit and request_withdrawal (spec §4.2).
func (e *Engine) Pause(caller crypto.Address) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.IsPaused = true
	return e.state.PutStakingMeta(meta)
}

// Unpause resumes deposit and request_withdrawal (spec §4.2).
func (e *Engine) Unpause(caller crypto.Address) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.IsPaused = false
	return e.state.PutStakingMeta(meta)
}

// SetValidators replaces the advisory validator list an off-chain delegator
// reads to plan rebalances. The core keeps no per-validator accounting of
// its own (spec §3, §6 "Off-chain delegator").
func (e *Engine) SetValidators(caller crypto.Address, validators []crypto.Address) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.Validators = validators
	return e.state.PutStakingMeta(meta)
}

// Validators returns the current advisory validator list.
func (e *Engine) Validators() ([]crypto.Address, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.Validators, nil
}

// SetProtocolFeeBps is the parameter-governance setter for protocol_fee_bps
// (spec §4.5's "parameter contract").
func (e *Engine) SetProtocolFeeBps(caller crypto.Address, bps uint16) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.ProtocolFeeBps = bps
	return e.state.PutStakingMeta(meta)
}

// GetExchangeRate returns total_xlm_staked / total_sxlm_supply at scale
// 10^7, or exactly 1·10^7 when supply is zero (spec §3, invariant S1).
func (e *Engine) GetExchangeRate() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	totalSupply, err := e.token.TotalSupply()
	if err != nil {
		return nil, err
	}
	if totalSupply.Sign() == 0 {
		return big.NewInt(common.RatePrecision), nil
	}
	return common.MulDivFloor(meta.TotalXLMStaked, big.NewInt(common.RatePrecision), totalSupply), nil
}

// TotalXLMStaked returns the authoritative XLM reserve backing sXLM.
func (e *Engine) TotalXLMStaked() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.TotalXLMStaked, nil
}

// LiquidityBuffer returns the portion of total_xlm_staked reserved for
// instant withdrawals.
func (e *Engine) LiquidityBuffer() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.LiquidityBuffer, nil
}

// TreasuryBalance returns accumulated protocol fees.
func (e *Engine) TreasuryBalance() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.TreasuryBalance, nil
}

// IsPaused reports whether deposit/request_withdrawal are currently halted.
func (e *Engine) IsPaused() (bool, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return false, err
	}
	return meta.IsPaused, nil
}

// ProtocolFeeBps returns the current protocol fee rate in basis points.
func (e *Engine) ProtocolFeeBps() (uint16, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	return meta.ProtocolFeeBps, nil
}

// BumpInstance extends the staking singleton's storage TTL (spec §5, §6).
func (e *Engine) BumpInstance(withdrawalID *uint64) error {
	if err := e.state.BumpStakingMeta(); err != nil {
		return err
	}
	if withdrawalID != nil {
		return e.state.BumpWithdrawal(*withdrawalID)
	}
	return nil
}
