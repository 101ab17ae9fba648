// Package lending implements collateralised borrow positions against sXLM
// collateral, an interest-accrual model driven by a global index, health
// factor checks, and liquidation (spec §4.3).
package lending

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/events"
	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
	"github.com/rajdeep-singha/sXLM/observability/metrics"
)

// DefaultLiquidationBonusBps and DefaultReserveFactorBps fill the risk
// parameters spec §4.3's initialize signature omits; operators override
// them with SetLiquidationBonusBps/SetReserveFactorBps once live, the same
// parameter-forwarder contract §4.5 describes.
const (
	DefaultLiquidationBonusBps = 500
	DefaultReserveFactorBps    = 1000
)

type engineState interface {
	GetLendingMeta() (state.LendingMeta, bool, error)
	PutLendingMeta(state.LendingMeta) error
	GetPosition(owner crypto.Address) (state.Position, bool, error)
	PutPosition(owner crypto.Address, p state.Position) error
	GetAccount(addr crypto.Address) (types.Account, error)
	PutAccount(addr crypto.Address, acc types.Account) error
	Ledger() uint64
	BumpLendingMeta() error
	BumpPosition(owner crypto.Address) error
}

// tokenLedger is the subset of the receipt-token engine lending depends on
// for sXLM collateral movements.
type tokenLedger interface {
	Transfer(caller, from, to crypto.Address, amount *big.Int) error
	Balance(owner crypto.Address) (*big.Int, error)
}

// Engine implements every public operation of the lending core.
type Engine struct {
	state     engineState
	token     tokenLedger
	self      crypto.Address // the lending contract's own identity, the custodian of pledged sXLM collateral
	emitter   events.Emitter
	telemetry *metrics.LendingMetrics
}

// NewEngine constructs a lending engine over the given storage.
func NewEngine(st engineState) *Engine {
	return &Engine{state: st, emitter: events.NoopEmitter{}, telemetry: metrics.Lending()}
}

// SetToken wires the receipt-token ledger collateral moves against.
func (e *Engine) SetToken(t tokenLedger) { e.token = t }

// SetSelf configures the address the lending contract authenticates as when
// moving collateral it custodies.
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

// Initialize performs the one-shot lending setup (spec §4.3).
func (e *Engine) Initialize(admin, sxlmToken, nativeToken crypto.Address, collateralFactorBps, liquidationThresholdBps, borrowRateBps uint32) error {
	_, ok, err := e.state.GetLendingMeta()
	if err != nil {
		return err
	}
	if ok {
		return common.ErrAlreadyInitialized
	}
	return e.state.PutLendingMeta(state.LendingMeta{
		Admin:                   admin,
		SxlmToken:               sxlmToken,
		NativeToken:             nativeToken,
		TotalCollateral:         big.NewInt(0),
		TotalBorrowed:           big.NewInt(0),
		PoolBalance:             big.NewInt(0),
		ExchangeRate:            big.NewInt(common.RatePrecision),
		CollateralFactorBps:     collateralFactorBps,
		LiquidationThresholdBps: liquidationThresholdBps,
		LiquidationBonusBps:     DefaultLiquidationBonusBps,
		BorrowRateBps:           borrowRateBps,
		ReserveFactorBps:        DefaultReserveFactorBps,
		Accumulator:             big.NewInt(common.RatePrecision),
		TotalAccruedInterest:    big.NewInt(0),
		Initialized:             true,
	})
}

func (e *Engine) requireInitialized() (state.LendingMeta, error) {
	meta, ok, err := e.state.GetLendingMeta()
	if err != nil {
		return state.LendingMeta{}, err
	}
	if !ok {
		return state.LendingMeta{}, common.ErrNotInitialized
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

// loadAccrued loads meta and the borrower's position, advancing the global
// index and rematerialising the position's fresh debt.
func (e *Engine) loadAccrued(user crypto.Address) (state.LendingMeta, state.Position, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return state.LendingMeta{}, state.Position{}, err
	}
	pos, _, err := e.state.GetPosition(user)
	if err != nil {
		return state.LendingMeta{}, state.Position{}, err
	}
	ledger := e.state.Ledger()
	accrueGlobal(&meta, ledger)
	accruePosition(&meta, &pos, ledger)
	return meta, pos, nil
}

// FundPool lets the admin seed pool_balance with lendable XLM. The
// distilled specification has no supply-XLM entry point of its own; this
// fills that gap so borrow() has liquidity to draw from (see DESIGN.md).
func (e *Engine) FundPool(caller crypto.Address, amount *big.Int) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	if err := e.pullXLM(caller, amount); err != nil {
		return err
	}
	meta.PoolBalance = new(big.Int).Add(meta.PoolBalance, amount)
	return e.state.PutLendingMeta(meta)
}

// DepositCollateral pulls sxlmAmount of sXLM from user into the contract's
// custody. No debt interaction; the position only improves (spec §4.3).
func (e *Engine) DepositCollateral(caller, user crypto.Address, sxlmAmount *big.Int) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(user) {
		return common.ErrNotAuthorized
	}
	if err := e.token.Transfer(user, user, e.self, sxlmAmount); err != nil {
		return err
	}
	pos, _, err := e.state.GetPosition(user)
	if err != nil {
		return err
	}
	pos.SxlmCollateral = new(big.Int).Add(pos.SxlmCollateral, sxlmAmount)
	meta.TotalCollateral = new(big.Int).Add(meta.TotalCollateral, sxlmAmount)
	if err := e.state.PutLendingMeta(meta); err != nil {
		return err
	}
	if err := e.state.PutPosition(user, pos); err != nil {
		return err
	}
	e.telemetry.TotalCollateral.Set(common.BigToFloat(meta.TotalCollateral))
	e.emit(events.CollateralDeposited{User: user, SxlmAmount: sxlmAmount})
	return nil
}

// WithdrawCollateral releases sxlmAmount of sXLM back to user after
// asserting the resulting position stays healthy (spec §4.3).
func (e *Engine) WithdrawCollateral(caller, user crypto.Address, sxlmAmount *big.Int) error {
	if !caller.Equal(user) {
		return common.ErrNotAuthorized
	}
	meta, pos, err := e.loadAccrued(user)
	if err != nil {
		return err
	}
	if pos.SxlmCollateral.Cmp(sxlmAmount) < 0 {
		return ErrPositionEmpty
	}
	newCollateral := new(big.Int).Sub(pos.SxlmCollateral, sxlmAmount)
	hf := healthFactor(newCollateral, meta.ExchangeRate, meta.LiquidationThresholdBps, pos.XLMBorrowedPrincipal)
	if hf.Cmp(big.NewInt(common.RatePrecision)) < 0 {
		return ErrUnhealthyAfter
	}
	if err := e.token.Transfer(e.self, e.self, user, sxlmAmount); err != nil {
		return err
	}
	pos.SxlmCollateral = newCollateral
	meta.TotalCollateral = new(big.Int).Sub(meta.TotalCollateral, sxlmAmount)
	if err := e.state.PutLendingMeta(meta); err != nil {
		return err
	}
	if err := e.state.PutPosition(user, pos); err != nil {
		return err
	}
	e.telemetry.TotalCollateral.Set(common.BigToFloat(meta.TotalCollateral))
	e.emit(events.CollateralWithdrawn{User: user, SxlmAmount: sxlmAmount})
	return nil
}

// Borrow draws xlmAmount from the pool against user's collateral, asserting
// health after the draw (spec §4.3).
func (e *Engine) Borrow(caller, user crypto.Address, xlmAmount *big.Int) error {
	if !caller.Equal(user) {
		return common.ErrNotAuthorized
	}
	meta, pos, err := e.loadAccrued(user)
	if err != nil {
		return err
	}
	if meta.PoolBalance.Cmp(xlmAmount) < 0 {
		return ErrInsufficientPoolLiquidity
	}
	newDebt := new(big.Int).Add(pos.XLMBorrowedPrincipal, xlmAmount)
	hf := healthFactor(pos.SxlmCollateral, meta.ExchangeRate, meta.LiquidationThresholdBps, newDebt)
	if hf.Cmp(big.NewInt(common.RatePrecision)) < 0 {
		return ErrUnhealthyAfter
	}
	if err := e.creditXLM(user, xlmAmount); err != nil {
		return err
	}
	pos.XLMBorrowedPrincipal = newDebt
	meta.PoolBalance = new(big.Int).Sub(meta.PoolBalance, xlmAmount)
	meta.TotalBorrowed = new(big.Int).Add(meta.TotalBorrowed, xlmAmount)
	if err := e.state.PutLendingMeta(meta); err != nil {
		return err
	}
	if err := e.state.PutPosition(user, pos); err != nil {
		return err
	}
	e.telemetry.Borrows.Inc()
	e.telemetry.TotalBorrowed.Set(common.BigToFloat(meta.TotalBorrowed))
	e.emit(events.Borrow{User: user, XLMAmount: xlmAmount})
	return nil
}

// Repay pays down up to xlmAmount of user's fresh debt (spec §4.3).
func (e *Engine) Repay(caller, user crypto.Address, xlmAmount *big.Int) (*big.Int, error) {
	if !caller.Equal(user) {
		return nil, common.ErrNotAuthorized
	}
	meta, pos, err := e.loadAccrued(user)
	if err != nil {
		return nil, err
	}
	if pos.XLMBorrowedPrincipal.Sign() == 0 {
		return nil, ErrNothingToRepay
	}
	actual := xlmAmount
	if actual.Cmp(pos.XLMBorrowedPrincipal) > 0 {
		actual = new(big.Int).Set(pos.XLMBorrowedPrincipal)
	}
	if err := e.pullXLM(user, actual); err != nil {
		return nil, err
	}
	pos.XLMBorrowedPrincipal = new(big.Int).Sub(pos.XLMBorrowedPrincipal, actual)
	meta.TotalBorrowed = new(big.Int).Sub(meta.TotalBorrowed, actual)
	meta.PoolBalance = new(big.Int).Add(meta.PoolBalance, actual)
	if err := e.state.PutLendingMeta(meta); err != nil {
		return nil, err
	}
	if err := e.state.PutPosition(user, pos); err != nil {
		return nil, err
	}
	e.telemetry.Repayments.Inc()
	e.telemetry.TotalBorrowed.Set(common.BigToFloat(meta.TotalBorrowed))
	e.emit(events.Repay{User: user, XLMAmount: actual})
	return actual, nil
}

// Liquidate lets liquidator repay up to close_factor_bps of borrower's
// fresh debt in exchange for seized sXLM collateral plus a bonus, when
// borrower's health factor has fallen below 1·10^7 (spec §4.3).
func (e *Engine) Liquidate(caller, liquidator, borrower crypto.Address) (debtRepaid, collateralSeized *big.Int, err error) {
	if !caller.Equal(liquidator) {
		return nil, nil, common.ErrNotAuthorized
	}
	meta, pos, err := e.loadAccrued(borrower)
	if err != nil {
		return nil, nil, err
	}
	hf := healthFactor(pos.SxlmCollateral, meta.ExchangeRate, meta.LiquidationThresholdBps, pos.XLMBorrowedPrincipal)
	if hf.Cmp(big.NewInt(common.RatePrecision)) >= 0 {
		return nil, nil, ErrHealthyBorrower
	}
	repay := common.MulDivFloor(pos.XLMBorrowedPrincipal, big.NewInt(DefaultCloseFactorBps), big.NewInt(common.BpsScale))
	if err := e.pullXLM(liquidator, repay); err != nil {
		return nil, nil, err
	}
	seized := common.MulDivFloor(repay, big.NewInt(common.RatePrecision), meta.ExchangeRate)
	seized = common.MulDivFloor(seized, big.NewInt(common.BpsScale+int64(meta.LiquidationBonusBps)), big.NewInt(common.BpsScale))
	if seized.Cmp(pos.SxlmCollateral) > 0 {
		seized = new(big.Int).Set(pos.SxlmCollateral)
	}
	if err := e.token.Transfer(e.self, e.self, liquidator, seized); err != nil {
		return nil, nil, err
	}
	pos.XLMBorrowedPrincipal = new(big.Int).Sub(pos.XLMBorrowedPrincipal, repay)
	pos.SxlmCollateral = new(big.Int).Sub(pos.SxlmCollateral, seized)
	meta.TotalBorrowed = new(big.Int).Sub(meta.TotalBorrowed, repay)
	meta.TotalCollateral = new(big.Int).Sub(meta.TotalCollateral, seized)
	meta.PoolBalance = new(big.Int).Add(meta.PoolBalance, repay)
	if err := e.state.PutLendingMeta(meta); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutPosition(borrower, pos); err != nil {
		return nil, nil, err
	}
	e.telemetry.Liquidations.Inc()
	e.telemetry.TotalBorrowed.Set(common.BigToFloat(meta.TotalBorrowed))
	e.telemetry.TotalCollateral.Set(common.BigToFloat(meta.TotalCollateral))
	e.emit(events.Liquidation{Liquidator: liquidator, Borrower: borrower, DebtRepaid: repay, CollateralSeized: seized})
	return repay, seized, nil
}

// UpdateExchangeRate sets the admin-pushed sXLM→XLM rate consumed by health
// factor and max_borrow (spec §4.3).
func (e *Engine) UpdateExchangeRate(caller crypto.Address, newRate *big.Int) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.ExchangeRate = newRate
	if err := e.state.PutLendingMeta(meta); err != nil {
		return err
	}
	e.emit(events.ExchangeRateUpdated{NewRate: newRate})
	return nil
}

// HarvestInterest pulls unrealised protocol earnings to admin, capped at
// pool_balance_surplus rather than raw pool_balance: reserve_factor_bps of
// total_borrowed must stay behind as lendable liquidity for outstanding
// positions, so harvesting never drains the cash active borrows depend on
// (spec §4.3).
func (e *Engine) HarvestInterest(caller crypto.Address) (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	if !caller.Equal(meta.Admin) {
		return nil, common.ErrNotAuthorized
	}
	reserve := common.MulDivFloor(meta.TotalBorrowed, big.NewInt(int64(meta.ReserveFactorBps)), big.NewInt(common.BpsScale))
	surplus := new(big.Int).Sub(meta.PoolBalance, reserve)
	if surplus.Sign() < 0 {
		surplus = big.NewInt(0)
	}
	amount := meta.TotalAccruedInterest
	if amount.Cmp(surplus) > 0 {
		amount = new(big.Int).Set(surplus)
	}
	if amount.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	meta.PoolBalance = new(big.Int).Sub(meta.PoolBalance, amount)
	meta.TotalAccruedInterest = new(big.Int).Sub(meta.TotalAccruedInterest, amount)
	if err := e.creditXLM(meta.Admin, amount); err != nil {
		return nil, err
	}
	if err := e.state.PutLendingMeta(meta); err != nil {
		return nil, err
	}
	e.emit(events.InterestHarvested{Amount: amount})
	return amount, nil
}

// GetPosition returns a borrower's raw (non-accrued) stored position.
func (e *Engine) GetPosition(user crypto.Address) (state.Position, error) {
	pos, _, err := e.state.GetPosition(user)
	return pos, err
}

// HealthFactor returns user's current health factor after accruing
// interest, without persisting the accrual (a pure view).
func (e *Engine) HealthFactor(user crypto.Address) (*big.Int, error) {
	meta, pos, err := e.loadAccrued(user)
	if err != nil {
		return nil, err
	}
	return healthFactor(pos.SxlmCollateral, meta.ExchangeRate, meta.LiquidationThresholdBps, pos.XLMBorrowedPrincipal), nil
}

// MaxBorrow returns the most user could borrow given their current
// collateral (spec §4.3).
func (e *Engine) MaxBorrow(user crypto.Address) (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	pos, _, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	return maxBorrow(pos.SxlmCollateral, meta.ExchangeRate, meta.CollateralFactorBps), nil
}

// GetPoolBalance returns free XLM available to borrowers.
func (e *Engine) GetPoolBalance() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.PoolBalance, nil
}

// TotalCollateral returns the sum of all positions' sXLM collateral.
func (e *Engine) TotalCollateral() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.TotalCollateral, nil
}

// TotalBorrowed returns the tracked sum of fresh debt across all positions.
func (e *Engine) TotalBorrowed() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.TotalBorrowed, nil
}

// TotalAccruedInterest returns unrealised protocol earnings.
func (e *Engine) TotalAccruedInterest() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.TotalAccruedInterest, nil
}

// GetCollateralFactor returns the collateral factor in basis points.
func (e *Engine) GetCollateralFactor() (uint32, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	return meta.CollateralFactorBps, nil
}

// GetLiquidationThreshold returns the liquidation threshold in basis points.
func (e *Engine) GetLiquidationThreshold() (uint32, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	return meta.LiquidationThresholdBps, nil
}

// GetBorrowRate returns the per-year borrow rate in basis points.
func (e *Engine) GetBorrowRate() (uint32, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return 0, err
	}
	return meta.BorrowRateBps, nil
}

// GetExchangeRate returns the admin-pushed sXLM→XLM rate.
func (e *Engine) GetExchangeRate() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.ExchangeRate, nil
}

// SetLiquidationBonusBps is the parameter-governance setter for
// liquidation_bonus_bps (spec §4.5's parameter contract).
func (e *Engine) SetLiquidationBonusBps(caller crypto.Address, bps uint32) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.LiquidationBonusBps = bps
	return e.state.PutLendingMeta(meta)
}

// SetReserveFactorBps is the parameter-governance setter for
// reserve_factor_bps.
func (e *Engine) SetReserveFactorBps(caller crypto.Address, bps uint32) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	meta.ReserveFactorBps = bps
	return e.state.PutLendingMeta(meta)
}

// BumpInstance extends the lending singleton's and a position's storage TTL
// (spec §5, §6).
func (e *Engine) BumpInstance(user *crypto.Address) error {
	if err := e.state.BumpLendingMeta(); err != nil {
		return err
	}
	if user != nil {
		return e.state.BumpPosition(*user)
	}
	return nil
}
