package state

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/crypto"
)

const ammSingletonKey = "singleton"

// AMMMeta is the constant-product pool's global singleton (spec §3, §4.4).
type AMMMeta struct {
	Admin         crypto.Address
	SxlmToken     crypto.Address
	NativeToken   crypto.Address
	FeeBps        uint32
	ReserveXLM    *big.Int
	ReserveSXLM   *big.Int
	TotalLPSupply *big.Int
	Initialized   bool
}

// GetAMMMeta loads the AMM singleton.
func (m *Manager) GetAMMMeta() (AMMMeta, bool, error) {
	var meta AMMMeta
	ok, err := m.get(ammMetaPrefix, []byte(ammSingletonKey), &meta)
	return meta, ok, err
}

// PutAMMMeta persists the AMM singleton.
func (m *Manager) PutAMMMeta(meta AMMMeta) error {
	return m.put(ammMetaPrefix, []byte(ammSingletonKey), meta)
}

// GetLPBalance loads a liquidity provider's LP share balance.
func (m *Manager) GetLPBalance(owner crypto.Address) (*big.Int, error) {
	var bal big.Int
	ok, err := m.get(ammLPBalancePrefix, owner.Bytes(), &bal)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return &bal, nil
}

// PutLPBalance stores or removes an LP share balance.
func (m *Manager) PutLPBalance(owner crypto.Address, balance *big.Int) error {
	if balance.Sign() == 0 {
		return m.del(ammLPBalancePrefix, owner.Bytes())
	}
	return m.put(ammLPBalancePrefix, owner.Bytes(), balance)
}

// BumpAMMMeta extends the AMM singleton's TTL, backing bump_instance.
func (m *Manager) BumpAMMMeta() error {
	return m.Bump(ammMetaPrefix, []byte(ammSingletonKey))
}
