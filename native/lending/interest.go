package lending

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/native/common"
)

// LedgersPerYear approximates Stellar's ~5s ledger close time, used to
// convert the per-year borrow_rate_bps into a per-ledger accrual (spec
// §4.3).
const LedgersPerYear = 6_307_200

// DefaultCloseFactorBps is the fraction of a borrower's fresh debt a
// liquidator may repay in one call (spec §4.3: "default 5000, half").
const DefaultCloseFactorBps = 5000

// accrueGlobal advances meta.Accumulator by the interest owed since
// LastAccrualLedger, per spec §4.3: "accumulator · (borrow_rate_bps /
// 10000) · Δledgers / LEDGERS_PER_YEAR (floor)".
func accrueGlobal(meta *state.LendingMeta, currentLedger uint64) {
	if meta.Accumulator == nil || meta.Accumulator.Sign() == 0 {
		meta.Accumulator = big.NewInt(common.RatePrecision)
	}
	delta := currentLedger - meta.LastAccrualLedger
	if delta == 0 {
		return
	}
	increment := new(big.Int).Mul(meta.Accumulator, big.NewInt(int64(meta.BorrowRateBps)))
	increment.Mul(increment, new(big.Int).SetUint64(delta))
	increment.Quo(increment, big.NewInt(int64(common.BpsScale)*LedgersPerYear))
	meta.Accumulator = new(big.Int).Add(meta.Accumulator, increment)
	meta.LastAccrualLedger = currentLedger
}

// accruePosition rematerialises pos's fresh debt against the current
// accumulator and folds the delta into the global aggregates (spec §4.3:
// "current owed debt is computed by principal · accumulator / borrow_index").
func accruePosition(meta *state.LendingMeta, pos *state.Position, currentLedger uint64) {
	if pos.BorrowIndex == nil || pos.BorrowIndex.Sign() == 0 {
		pos.BorrowIndex = new(big.Int).Set(meta.Accumulator)
		pos.LastUpdateLedger = currentLedger
		return
	}
	if pos.XLMBorrowedPrincipal.Sign() == 0 {
		pos.BorrowIndex = new(big.Int).Set(meta.Accumulator)
		pos.LastUpdateLedger = currentLedger
		return
	}
	fresh := common.MulDivFloor(pos.XLMBorrowedPrincipal, meta.Accumulator, pos.BorrowIndex)
	delta := new(big.Int).Sub(fresh, pos.XLMBorrowedPrincipal)
	if delta.Sign() != 0 {
		meta.TotalBorrowed = new(big.Int).Add(meta.TotalBorrowed, delta)
		meta.TotalAccruedInterest = new(big.Int).Add(meta.TotalAccruedInterest, delta)
	}
	pos.XLMBorrowedPrincipal = fresh
	pos.BorrowIndex = new(big.Int).Set(meta.Accumulator)
	pos.LastUpdateLedger = currentLedger
}

// healthFactor computes hf = collateral · exchange_rate · liquidation_threshold_bps
// / (debt_fresh · 10000), scaled by 10^7 (spec §4.3: collateral's sXLM→XLM
// conversion via exchange_rate already carries one factor of RatePrecision,
// which doubles as the fixed-point scale the returned ratio is expressed
// in — dividing by RatePrecision again here would collapse hf to zero).
// Returns a very large sentinel when there is no debt, since an undebted
// position can never be unhealthy.
func healthFactor(collateral, exchangeRate *big.Int, ltBps uint32, debtFresh *big.Int) *big.Int {
	if debtFresh.Sign() == 0 {
		return new(big.Int).Lsh(big.NewInt(1), 96)
	}
	num := new(big.Int).Mul(collateral, exchangeRate)
	num.Mul(num, big.NewInt(int64(ltBps)))
	den := new(big.Int).Mul(debtFresh, big.NewInt(common.BpsScale))
	return new(big.Int).Quo(num, den)
}

// maxBorrow computes max_borrow_stroops = collateral · exchange_rate ·
// collateral_factor_bps / (10000 · 10^7) (spec §4.3).
func maxBorrow(collateral, exchangeRate *big.Int, cfBps uint32) *big.Int {
	num := new(big.Int).Mul(collateral, exchangeRate)
	num.Mul(num, big.NewInt(int64(cfBps)))
	den := big.NewInt(common.BpsScale * common.RatePrecision)
	return new(big.Int).Quo(num, den)
}
