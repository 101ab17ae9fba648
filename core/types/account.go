package types

import "math/big"

// Account is the native-asset ledger entry shared by every module: the
// stroop-denominated XLM balance moved by deposits/borrows/swaps, and a
// module-treasury sXLM balance. Per-holder sXLM accounting for ordinary
// users lives in the receipt-token ledger (native/token), not here — this
// mirrors the teacher's split between the native coin balance kept on
// types.Account and the token balances kept in a dedicated ledger.
type Account struct {
	Nonce       uint64   `json:"nonce"`
	BalanceXLM  *big.Int `json:"balanceXlm"`
	BalanceSXLM *big.Int `json:"balanceSxlm"`
}

// EnsureDefaults fills nil big.Int fields with zero so callers never operate
// on a nil pointer after loading a freshly created account record.
func (a *Account) EnsureDefaults() {
	if a.BalanceXLM == nil {
		a.BalanceXLM = big.NewInt(0)
	}
	if a.BalanceSXLM == nil {
		a.BalanceSXLM = big.NewInt(0)
	}
}
