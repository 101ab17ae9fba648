package state

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/crypto"
)

const tokenSingletonKey = "singleton"

// TokenMeta is the receipt-token ledger's global singleton (spec §3).
type TokenMeta struct {
	Name        string
	Symbol      string
	Decimals    uint8
	Admin       crypto.Address
	Minter      crypto.Address
	TotalSupply *big.Int
	Initialized bool
}

// Allowance is a (owner, spender) grant with an expiration ledger.
type Allowance struct {
	Amount           *big.Int
	ExpirationLedger uint64
}

// GetTokenMeta loads the token singleton. Returns ok=false if never
// initialized.
func (m *Manager) GetTokenMeta() (TokenMeta, bool, error) {
	var meta TokenMeta
	ok, err := m.get(tokenMetaPrefix, []byte(tokenSingletonKey), &meta)
	return meta, ok, err
}

// PutTokenMeta persists the token singleton.
func (m *Manager) PutTokenMeta(meta TokenMeta) error {
	return m.put(tokenMetaPrefix, []byte(tokenSingletonKey), meta)
}

// GetBalance loads an account's sXLM balance, defaulting to zero.
func (m *Manager) GetBalance(owner crypto.Address) (*big.Int, error) {
	var bal big.Int
	ok, err := m.get(tokenBalancePrefix, owner.Bytes(), &bal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return &bal, nil
}

// PutBalance stores or removes an account's balance. Per the lifecycle rule
// in spec §3 ("entries decrement to removal on zero"), a zero balance
// deletes the record rather than storing a zero.
func (m *Manager) PutBalance(owner crypto.Address, balance *big.Int) error {
	if balance.Sign() == 0 {
		return m.del(tokenBalancePrefix, owner.Bytes())
	}
	return m.put(tokenBalancePrefix, owner.Bytes(), balance)
}

func allowanceKey(owner, spender crypto.Address) []byte {
	key := make([]byte, 0, 40)
	key = append(key, owner.Bytes()...)
	key = append(key, spender.Bytes()...)
	return key
}

// GetAllowance loads an allowance grant, defaulting to a zero amount with no
// expiration when absent.
func (m *Manager) GetAllowance(owner, spender crypto.Address) (Allowance, error) {
	var a Allowance
	ok, err := m.get(tokenAllowancePrefix, allowanceKey(owner, spender), &a)
	if err != nil {
		return Allowance{}, err
	}
	if !ok {
		return Allowance{Amount: big.NewInt(0)}, nil
	}
	if a.Amount == nil {
		a.Amount = big.NewInt(0)
	}
	return a, nil
}

// PutAllowance stores or clears an allowance grant.
func (m *Manager) PutAllowance(owner, spender crypto.Address, a Allowance) error {
	if a.Amount == nil || a.Amount.Sign() == 0 {
		return m.del(tokenAllowancePrefix, allowanceKey(owner, spender))
	}
	return m.put(tokenAllowancePrefix, allowanceKey(owner, spender), a)
}

// BumpTokenMeta extends the token singleton's TTL, backing bump_instance.
func (m *Manager) BumpTokenMeta() error {
	return m.Bump(tokenMetaPrefix, []byte(tokenSingletonKey))
}

// BumpBalance extends an account's balance entry TTL.
func (m *Manager) BumpBalance(owner crypto.Address) error {
	return m.Bump(tokenBalancePrefix, owner.Bytes())
}
