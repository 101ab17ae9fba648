// Package amm implements the constant-product XLM/sXLM pool: liquidity
// provision, LP share accounting, and fee-taking swaps against invariant k
// (spec §4.4).
package amm

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/events"
	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
	"github.com/rajdeep-singha/sXLM/observability/metrics"
)

// MinLiquidity is permanently locked to the zero address on the pool's
// first deposit, guaranteeing total_lp_supply never returns to zero while
// reserves are non-empty (spec §4.4).
const MinLiquidity = 1000

type engineState interface {
	GetAMMMeta() (state.AMMMeta, bool, error)
	PutAMMMeta(state.AMMMeta) error
	GetLPBalance(owner crypto.Address) (*big.Int, error)
	PutLPBalance(owner crypto.Address, balance *big.Int) error
	GetAccount(addr crypto.Address) (types.Account, error)
	PutAccount(addr crypto.Address, acc types.Account) error
	Ledger() uint64
	BumpAMMMeta() error
}

type tokenLedger interface {
	Transfer(caller, from, to crypto.Address, amount *big.Int) error
	Balance(owner crypto.Address) (*big.Int, error)
}

// Engine implements every public operation of the AMM core.
type Engine struct {
	state     engineState
	token     tokenLedger
	self      crypto.Address // the pool's own identity, custodian of both reserve legs
	emitter   events.Emitter
	telemetry *metrics.AMMMetrics
}

// NewEngine constructs an AMM engine over the given storage.
func NewEngine(st engineState) *Engine {
	return &Engine{state: st, emitter: events.NoopEmitter{}, telemetry: metrics.AMM()}
}

// SetToken wires the receipt-token ledger the sXLM reserve leg moves against.
func (e *Engine) SetToken(t tokenLedger) { e.token = t }

// SetSelf configures the address the pool authenticates as when moving its
// own custodied reserves.
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

// Initialize performs the one-shot pool setup (spec §4.4).
func (e *Engine) Initialize(admin, sxlmToken, nativeToken crypto.Address, feeBps uint32) error {
	_, ok, err := e.state.GetAMMMeta()
	if err != nil {
		return err
	}
	if ok {
		return common.ErrAlreadyInitialized
	}
	return e.state.PutAMMMeta(state.AMMMeta{
		Admin:         admin,
		SxlmToken:     sxlmToken,
		NativeToken:   nativeToken,
		FeeBps:        feeBps,
		ReserveXLM:    big.NewInt(0),
		ReserveSXLM:   big.NewInt(0),
		TotalLPSupply: big.NewInt(0),
		Initialized:   true,
	})
}

func (e *Engine) requireInitialized() (state.AMMMeta, error) {
	meta, ok, err := e.state.GetAMMMeta()
	if err != nil {
		return state.AMMMeta{}, err
	}
	if !ok {
		return state.AMMMeta{}, common.ErrNotInitialized
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

// AddLiquidity deposits xlmAmount and sxlmAmount and mints LP shares (spec
// §4.4). On the pool's first deposit, MinLiquidity is locked to the zero
// address instead of being credited to anyone (Open Question 3 in
// SPEC_FULL.md also governs the excess-deposit behaviour exercised here).
func (e *Engine) AddLiquidity(caller, user crypto.Address, xlmAmount, sxlmAmount *big.Int) (*big.Int, error) {
	if !caller.Equal(user) {
		return nil, common.ErrNotAuthorized
	}
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if xlmAmount.Sign() <= 0 || sxlmAmount.Sign() <= 0 {
		return nil, ErrBelowMinLiquidity
	}

	var lpMinted *big.Int
	first := meta.TotalLPSupply.Sign() == 0
	if first {
		lpMinted = common.Isqrt(new(big.Int).Mul(xlmAmount, sxlmAmount))
		if lpMinted.Cmp(big.NewInt(MinLiquidity)) <= 0 {
			return nil, ErrBelowMinLiquidity
		}
	} else {
		byXLM := common.MulDivFloor(xlmAmount, meta.TotalLPSupply, meta.ReserveXLM)
		bySXLM := common.MulDivFloor(sxlmAmount, meta.TotalLPSupply, meta.ReserveSXLM)
		if byXLM.Cmp(bySXLM) < 0 {
			lpMinted = byXLM
		} else {
			lpMinted = bySXLM
		}
		if lpMinted.Sign() <= 0 {
			return nil, ErrBelowMinLiquidity
		}
	}

	if err := e.pullXLM(user, xlmAmount); err != nil {
		return nil, err
	}
	if err := e.token.Transfer(user, user, e.self, sxlmAmount); err != nil {
		return nil, err
	}

	userMinted := lpMinted
	if first {
		locked := big.NewInt(MinLiquidity)
		userMinted = new(big.Int).Sub(lpMinted, locked)
		if err := e.state.PutLPBalance(crypto.Address{}, locked); err != nil {
			return nil, err
		}
	}

	bal, err := e.state.GetLPBalance(user)
	if err != nil {
		return nil, err
	}
	if err := e.state.PutLPBalance(user, new(big.Int).Add(bal, userMinted)); err != nil {
		return nil, err
	}

	meta.ReserveXLM = new(big.Int).Add(meta.ReserveXLM, xlmAmount)
	meta.ReserveSXLM = new(big.Int).Add(meta.ReserveSXLM, sxlmAmount)
	meta.TotalLPSupply = new(big.Int).Add(meta.TotalLPSupply, lpMinted)
	if err := e.state.PutAMMMeta(meta); err != nil {
		return nil, err
	}

	e.telemetry.LiquidityAdds.Inc()
	e.telemetry.ReserveXLM.Set(common.BigToFloat(meta.ReserveXLM))
	e.telemetry.ReserveSXLM.Set(common.BigToFloat(meta.ReserveSXLM))
	e.emit(events.LiquidityAdded{User: user, XLMIn: xlmAmount, SxlmIn: sxlmAmount, LPMinted: userMinted})
	return userMinted, nil
}

// RemoveLiquidity burns lpAmount of user's shares for a pro-rata slice of
// both reserves (spec §4.4).
func (e *Engine) RemoveLiquidity(caller, user crypto.Address, lpAmount *big.Int) (xlmOut, sxlmOut *big.Int, err error) {
	if !caller.Equal(user) {
		return nil, nil, common.ErrNotAuthorized
	}
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, nil, err
	}
	bal, err := e.state.GetLPBalance(user)
	if err != nil {
		return nil, nil, err
	}
	if bal.Cmp(lpAmount) < 0 {
		return nil, nil, ErrInsufficientLiquidity
	}
	xlmOut = common.MulDivFloor(lpAmount, meta.ReserveXLM, meta.TotalLPSupply)
	sxlmOut = common.MulDivFloor(lpAmount, meta.ReserveSXLM, meta.TotalLPSupply)
	if xlmOut.Sign() <= 0 && sxlmOut.Sign() <= 0 {
		return nil, nil, ErrInsufficientLiquidity
	}

	if err := e.creditXLM(user, xlmOut); err != nil {
		return nil, nil, err
	}
	if err := e.token.Transfer(e.self, e.self, user, sxlmOut); err != nil {
		return nil, nil, err
	}

	if err := e.state.PutLPBalance(user, new(big.Int).Sub(bal, lpAmount)); err != nil {
		return nil, nil, err
	}
	meta.ReserveXLM = new(big.Int).Sub(meta.ReserveXLM, xlmOut)
	meta.ReserveSXLM = new(big.Int).Sub(meta.ReserveSXLM, sxlmOut)
	meta.TotalLPSupply = new(big.Int).Sub(meta.TotalLPSupply, lpAmount)
	if err := e.state.PutAMMMeta(meta); err != nil {
		return nil, nil, err
	}

	e.telemetry.LiquidityExits.Inc()
	e.telemetry.ReserveXLM.Set(common.BigToFloat(meta.ReserveXLM))
	e.telemetry.ReserveSXLM.Set(common.BigToFloat(meta.ReserveSXLM))
	e.emit(events.LiquidityRemoved{User: user, XLMOut: xlmOut, SxlmOut: sxlmOut, LPBurned: lpAmount})
	return xlmOut, sxlmOut, nil
}

// SwapXLMToSXLM trades xlmIn for sXLM along the constant-product curve,
// failing SlippageExceeded below minSxlmOut and InvariantViolated if k would
// fall (spec §4.4, invariant A1).
func (e *Engine) SwapXLMToSXLM(caller, user crypto.Address, xlmIn, minSxlmOut *big.Int) (*big.Int, error) {
	if !caller.Equal(user) {
		return nil, common.ErrNotAuthorized
	}
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if meta.ReserveXLM.Sign() == 0 || meta.ReserveSXLM.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}
	amountInAfterFee := common.MulDivFloor(xlmIn, big.NewInt(common.BpsScale-int64(meta.FeeBps)), big.NewInt(common.BpsScale))
	newReserveXLMAfterFee := new(big.Int).Add(meta.ReserveXLM, amountInAfterFee)
	sxlmOut := new(big.Int).Sub(meta.ReserveSXLM, common.MulDivFloor(meta.ReserveXLM, meta.ReserveSXLM, newReserveXLMAfterFee))
	if sxlmOut.Sign() <= 0 || sxlmOut.Cmp(meta.ReserveSXLM) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if sxlmOut.Cmp(minSxlmOut) < 0 {
		return nil, ErrSlippageExceeded
	}
	newReserveXLM := new(big.Int).Add(meta.ReserveXLM, xlmIn)
	newReserveSXLM := new(big.Int).Sub(meta.ReserveSXLM, sxlmOut)
	if err := checkInvariant(meta.ReserveXLM, meta.ReserveSXLM, newReserveXLM, newReserveSXLM); err != nil {
		return nil, err
	}

	if err := e.pullXLM(user, xlmIn); err != nil {
		return nil, err
	}
	if err := e.token.Transfer(e.self, e.self, user, sxlmOut); err != nil {
		return nil, err
	}
	meta.ReserveXLM = newReserveXLM
	meta.ReserveSXLM = newReserveSXLM
	if err := e.state.PutAMMMeta(meta); err != nil {
		return nil, err
	}
	e.telemetry.Swaps.Inc()
	e.telemetry.ReserveXLM.Set(common.BigToFloat(meta.ReserveXLM))
	e.telemetry.ReserveSXLM.Set(common.BigToFloat(meta.ReserveSXLM))
	e.emit(events.Swap{User: user, InSymbol: "xlm", InAmount: xlmIn, OutAmount: sxlmOut})
	return sxlmOut, nil
}

// SwapSXLMToXLM trades sxlmIn for XLM, symmetric to SwapXLMToSXLM (spec
// §4.4).
func (e *Engine) SwapSXLMToXLM(caller, user crypto.Address, sxlmIn, minXLMOut *big.Int) (*big.Int, error) {
	if !caller.Equal(user) {
		return nil, common.ErrNotAuthorized
	}
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if meta.ReserveXLM.Sign() == 0 || meta.ReserveSXLM.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}
	amountInAfterFee := common.MulDivFloor(sxlmIn, big.NewInt(common.BpsScale-int64(meta.FeeBps)), big.NewInt(common.BpsScale))
	newReserveSXLMAfterFee := new(big.Int).Add(meta.ReserveSXLM, amountInAfterFee)
	xlmOut := new(big.Int).Sub(meta.ReserveXLM, common.MulDivFloor(meta.ReserveXLM, meta.ReserveSXLM, newReserveSXLMAfterFee))
	if xlmOut.Sign() <= 0 || xlmOut.Cmp(meta.ReserveXLM) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if xlmOut.Cmp(minXLMOut) < 0 {
		return nil, ErrSlippageExceeded
	}
	newReserveSXLM := new(big.Int).Add(meta.ReserveSXLM, sxlmIn)
	newReserveXLM := new(big.Int).Sub(meta.ReserveXLM, xlmOut)
	if err := checkInvariant(meta.ReserveXLM, meta.ReserveSXLM, newReserveXLM, newReserveSXLM); err != nil {
		return nil, err
	}

	if err := e.token.Transfer(user, user, e.self, sxlmIn); err != nil {
		return nil, err
	}
	if err := e.creditXLM(user, xlmOut); err != nil {
		return nil, err
	}
	meta.ReserveXLM = newReserveXLM
	meta.ReserveSXLM = newReserveSXLM
	if err := e.state.PutAMMMeta(meta); err != nil {
		return nil, err
	}
	e.telemetry.Swaps.Inc()
	e.telemetry.ReserveXLM.Set(common.BigToFloat(meta.ReserveXLM))
	e.telemetry.ReserveSXLM.Set(common.BigToFloat(meta.ReserveSXLM))
	e.emit(events.Swap{User: user, InSymbol: "sxlm", InAmount: sxlmIn, OutAmount: xlmOut})
	return xlmOut, nil
}

// checkInvariant asserts the post-swap product never falls below the
// pre-swap product (spec §4.4, invariant A1).
func checkInvariant(oldXLM, oldSXLM, newXLM, newSXLM *big.Int) error {
	k := new(big.Int).Mul(oldXLM, oldSXLM)
	kPrime := new(big.Int).Mul(newXLM, newSXLM)
	if kPrime.Cmp(k) < 0 {
		return ErrInvariantViolated
	}
	return nil
}

// GetReserves returns the pool's current (xlm, sxlm) reserves.
func (e *Engine) GetReserves() (xlm, sxlm *big.Int, err error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, nil, err
	}
	return meta.ReserveXLM, meta.ReserveSXLM, nil
}

// GetLPBalance returns user's current LP share balance.
func (e *Engine) GetLPBalance(user crypto.Address) (*big.Int, error) {
	return e.state.GetLPBalance(user)
}

// TotalLPSupply returns the pool's total outstanding LP shares.
func (e *Engine) TotalLPSupply() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.TotalLPSupply, nil
}

// GetPrice returns reserve_xlm·10^7/reserve_sxlm, floored (spec §4.4).
func (e *Engine) GetPrice() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if meta.ReserveSXLM.Sign() == 0 {
		return big.NewInt(0), nil
	}
	return common.MulDivFloor(meta.ReserveXLM, big.NewInt(common.RatePrecision), meta.ReserveSXLM), nil
}

// GetFeeBps returns the pool's swap fee in basis points.
func (e *Engine) GetFeeBps() (uint32, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	return meta.FeeBps, nil
}

// BumpInstance extends the pool singleton's storage TTL (spec §5, §6).
func (e *Engine) BumpInstance() error {
	return e.state.BumpAMMMeta()
}
