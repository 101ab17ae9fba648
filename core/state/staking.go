package state

import (
	"encoding/binary"
	"math/big"

	"github.com/rajdeep-singha/sXLM/crypto"
)

const stakingSingletonKey = "singleton"

// StakingMeta is the staking core's global singleton (spec §3, §4.2).
type StakingMeta struct {
	Admin            crypto.Address
	SxlmToken        crypto.Address
	NativeToken      crypto.Address
	TotalXLMStaked   *big.Int
	LiquidityBuffer  *big.Int
	TreasuryBalance  *big.Int
	CooldownPeriod   uint32
	ProtocolFeeBps   uint16
	IsPaused         bool
	NextWithdrawalID uint64
	Validators       []crypto.Address
	Initialized      bool
}

// Withdrawal is a pending or claimed delayed-path withdrawal record.
type Withdrawal struct {
	Owner        crypto.Address
	XLMAmount    *big.Int
	UnlockLedger uint64
	Claimed      bool
}

// GetStakingMeta loads the staking singleton.
func (m *Manager) GetStakingMeta() (StakingMeta, bool, error) {
	var meta StakingMeta
	ok, err := m.get(stakingMetaPrefix, []byte(stakingSingletonKey), &meta)
	return meta, ok, err
}

// PutStakingMeta persists the staking singleton.
func (m *Manager) PutStakingMeta(meta StakingMeta) error {
	return m.put(stakingMetaPrefix, []byte(stakingSingletonKey), meta)
}

func withdrawalKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// GetWithdrawal loads a pending withdrawal record by id.
func (m *Manager) GetWithdrawal(id uint64) (Withdrawal, bool, error) {
	var w Withdrawal
	ok, err := m.get(stakingWithdrawalPrefix, withdrawalKey(id), &w)
	return w, ok, err
}

// PutWithdrawal stores a withdrawal record.
func (m *Manager) PutWithdrawal(id uint64, w Withdrawal) error {
	return m.put(stakingWithdrawalPrefix, withdrawalKey(id), w)
}

// BumpStakingMeta extends the staking singleton's TTL, backing
// bump_instance.
func (m *Manager) BumpStakingMeta() error {
	return m.Bump(stakingMetaPrefix, []byte(stakingSingletonKey))
}

// BumpWithdrawal extends a withdrawal record's TTL.
func (m *Manager) BumpWithdrawal(id uint64) error {
	return m.Bump(stakingWithdrawalPrefix, withdrawalKey(id))
}
