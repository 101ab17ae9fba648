package state

import (
	"github.com/rajdeep-singha/sXLM/core/types"
	"github.com/rajdeep-singha/sXLM/crypto"
)

var accountPrefix = []byte("account")

// GetAccount loads an address's native-asset ledger entry, defaulting to a
// zeroed account when none exists yet.
func (m *Manager) GetAccount(addr crypto.Address) (types.Account, error) {
	var acc types.Account
	ok, err := m.get(accountPrefix, addr.Bytes(), &acc)
	if err != nil {
		return types.Account{}, err
	}
	if !ok {
		acc = types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

// PutAccount persists an address's native-asset ledger entry.
func (m *Manager) PutAccount(addr crypto.Address, acc types.Account) error {
	acc.EnsureDefaults()
	return m.put(accountPrefix, addr.Bytes(), acc)
}

// BumpAccount extends an account entry's TTL.
func (m *Manager) BumpAccount(addr crypto.Address) error {
	return m.Bump(accountPrefix, addr.Bytes())
}
