// Package token implements the receipt-token ledger (sXLM): a supply-capped,
// mint/burn-restricted fungible balance map, the foundation every other
// native module transfers against (spec §4.1).
package token

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/core/events"
	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/common"
	"github.com/rajdeep-singha/sXLM/observability/metrics"
)

// engineState is the storage surface the token engine needs. *state.Manager
// satisfies it; tests substitute a lighter in-memory fake.
type engineState interface {
	GetTokenMeta() (state.TokenMeta, bool, error)
	PutTokenMeta(state.TokenMeta) error
	GetBalance(owner crypto.Address) (*big.Int, error)
	PutBalance(owner crypto.Address, balance *big.Int) error
	GetAllowance(owner, spender crypto.Address) (state.Allowance, error)
	PutAllowance(owner, spender crypto.Address, a state.Allowance) error
	Ledger() uint64
	BumpTokenMeta() error
	BumpBalance(owner crypto.Address) error
}

// Engine implements every public operation of the receipt-token ledger.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	telemetry *metrics.TokenMetrics
}

// NewEngine constructs a token engine over the given storage.
func NewEngine(st engineState) *Engine {
	return &Engine{state: st, emitter: events.NoopEmitter{}, telemetry: metrics.Token()}
}

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

// Initialize performs the one-shot ledger setup (spec §4.1, §3 lifecycle).
func (e *Engine) Initialize(admin, minter crypto.Address, decimals uint8, name, symbol string) error {
	_, ok, err := e.state.GetTokenMeta()
	if err != nil {
		return err
	}
	if ok {
		return common.ErrAlreadyInitialized
	}
	return e.state.PutTokenMeta(state.TokenMeta{
		Name:        name,
		Symbol:      symbol,
		Decimals:    decimals,
		Admin:       admin,
		Minter:      minter,
		TotalSupply: big.NewInt(0),
		Initialized: true,
	})
}

func (e *Engine) requireInitialized() (state.TokenMeta, error) {
	meta, ok, err := e.state.GetTokenMeta()
	if err != nil {
		return state.TokenMeta{}, err
	}
	if !ok {
		return state.TokenMeta{}, common.ErrNotInitialized
	}
	return meta, nil
}

// Balance returns owner's current sXLM balance.
func (e *Engine) Balance(owner crypto.Address) (*big.Int, error) {
	return e.state.GetBalance(owner)
}

// TotalSupply returns the ledger's total supply.
func (e *Engine) TotalSupply() (*big.Int, error) {
	meta, err := e.requireInitialized()
	if err != nil {
		return nil, err
	}
	return meta.TotalSupply, nil
}

// Mint credits to with amount, requiring minter authorisation (spec §4.1,
// invariant T2).
func (e *Engine) Mint(caller, to crypto.Address, amount *big.Int) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Minter) {
		return common.ErrNotAuthorized
	}
	if amount.Sign() <= 0 {
		return nil
	}
	newSupply := new(big.Int).Add(meta.TotalSupply, amount)
	if err := common.CheckBounds(newSupply); err != nil {
		return err
	}
	bal, err := e.state.GetBalance(to)
	if err != nil {
		return err
	}
	newBal := new(big.Int).Add(bal, amount)
	if err := common.CheckBounds(newBal); err != nil {
		return err
	}
	meta.TotalSupply = newSupply
	if err := e.state.PutTokenMeta(meta); err != nil {
		return err
	}
	if err := e.state.PutBalance(to, newBal); err != nil {
		return err
	}
	e.telemetry.Mints.Inc()
	e.telemetry.TotalSupply.Set(common.BigToFloat(meta.TotalSupply))
	e.emit(events.Mint{To: to, Amount: amount})
	return nil
}

// Burn debits from by amount, requiring either minter or the holder itself
// to authenticate (spec §4.1, invariant T2: "only minter or holder
// decreases it").
func (e *Engine) Burn(caller, from crypto.Address, amount *big.Int) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Minter) && !caller.Equal(from) {
		return common.ErrNotAuthorized
	}
	if amount.Sign() <= 0 {
		return nil
	}
	bal, err := e.state.GetBalance(from)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	meta.TotalSupply = new(big.Int).Sub(meta.TotalSupply, amount)
	if err := e.state.PutTokenMeta(meta); err != nil {
		return err
	}
	if err := e.state.PutBalance(from, new(big.Int).Sub(bal, amount)); err != nil {
		return err
	}
	e.telemetry.Burns.Inc()
	e.telemetry.TotalSupply.Set(common.BigToFloat(meta.TotalSupply))
	e.emit(events.Burn{From: from, Amount: amount})
	return nil
}

// Transfer moves amount from `from` to `to`, requiring `from` to authenticate
// (spec §4.1). A transfer to self with amount > 0 is a documented no-op that
// still requires authentication.
func (e *Engine) Transfer(caller, from, to crypto.Address, amount *big.Int) error {
	if _, err := e.requireInitialized(); err != nil {
		return err
	}
	if !caller.Equal(from) {
		return common.ErrNotAuthorized
	}
	if amount.Sign() < 0 {
		return common.ErrArithmeticOverflow
	}
	if from.Equal(to) || amount.Sign() == 0 {
		return nil
	}
	if err := e.moveBalance(from, to, amount); err != nil {
		return err
	}
	e.telemetry.Transfers.Inc()
	e.emit(events.Transfer{From: from, To: to, Amount: amount})
	return nil
}

func (e *Engine) moveBalance(from, to crypto.Address, amount *big.Int) error {
	fromBal, err := e.state.GetBalance(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBal, err := e.state.GetBalance(to)
	if err != nil {
		return err
	}
	newTo := new(big.Int).Add(toBal, amount)
	if err := common.CheckBounds(newTo); err != nil {
		return err
	}
	if err := e.state.PutBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return e.state.PutBalance(to, newTo)
}

// Approve grants spender an allowance over owner's balance up to
// expirationLedger (spec §4.1).
func (e *Engine) Approve(caller, owner, spender crypto.Address, amount *big.Int, expirationLedger uint64) error {
	if _, err := e.requireInitialized(); err != nil {
		return err
	}
	if !caller.Equal(owner) {
		return common.ErrNotAuthorized
	}
	if err := common.CheckBounds(amount); err != nil {
		return err
	}
	if err := e.state.PutAllowance(owner, spender, state.Allowance{Amount: amount, ExpirationLedger: expirationLedger}); err != nil {
		return err
	}
	e.emit(events.Approval{Owner: owner, Spender: spender, Amount: amount, ExpirationLedger: expirationLedger})
	return nil
}

// Allowance returns the live allowance spender holds over owner's balance,
// treating an expired grant as zero (spec §4.1: "an allowance with
// ledger > expiration_ledger is treated as zero").
func (e *Engine) Allowance(owner, spender crypto.Address) (*big.Int, error) {
	a, err := e.state.GetAllowance(owner, spender)
	if err != nil {
		return nil, err
	}
	if e.state.Ledger() > a.ExpirationLedger {
		return big.NewInt(0), nil
	}
	return a.Amount, nil
}

// TransferFrom moves amount from `from` to `to` on spender's authority,
// consuming part or all of the allowance spender holds (spec §4.1).
func (e *Engine) TransferFrom(caller, spender, from, to crypto.Address, amount *big.Int) error {
	if _, err := e.requireInitialized(); err != nil {
		return err
	}
	if !caller.Equal(spender) {
		return common.ErrNotAuthorized
	}
	a, err := e.state.GetAllowance(from, spender)
	if err != nil {
		return err
	}
	if e.state.Ledger() > a.ExpirationLedger {
		return ErrAllowanceExpired
	}
	if a.Amount.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := e.moveBalance(from, to, amount); err != nil {
		return err
	}
	remaining := new(big.Int).Sub(a.Amount, amount)
	if err := e.state.PutAllowance(from, spender, state.Allowance{Amount: remaining, ExpirationLedger: a.ExpirationLedger}); err != nil {
		return err
	}
	e.telemetry.Transfers.Inc()
	e.emit(events.Transfer{From: from, To: to, Amount: amount})
	return nil
}

// SetMinter changes the authorised minter, admin-only (spec §4.1).
func (e *Engine) SetMinter(caller, newMinter crypto.Address) error {
	meta, err := e.requireInitialized()
	if err != nil {
		return err
	}
	if !caller.Equal(meta.Admin) {
		return common.ErrNotAuthorized
	}
	old := meta.Minter
	meta.Minter = newMinter
	if err := e.state.PutTokenMeta(meta); err != nil {
		return err
	}
	e.emit(events.MinterChanged{OldMinter: old, NewMinter: newMinter})
	return nil
}

// BumpInstance extends the ledger's storage TTL (spec §5, §6).
func (e *Engine) BumpInstance(owner crypto.Address) error {
	if err := e.state.BumpTokenMeta(); err != nil {
		return err
	}
	if owner.IsZero() {
		return nil
	}
	return e.state.BumpBalance(owner)
}
