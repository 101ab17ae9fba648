package state

import (
	"math/big"

	"github.com/rajdeep-singha/sXLM/crypto"
)

const lendingSingletonKey = "singleton"

// LendingMeta is the lending core's global singleton (spec §3, §4.3).
type LendingMeta struct {
	Admin                   crypto.Address
	SxlmToken               crypto.Address
	NativeToken             crypto.Address
	TotalCollateral         *big.Int
	TotalBorrowed           *big.Int
	PoolBalance             *big.Int
	ExchangeRate            *big.Int
	CollateralFactorBps     uint32
	LiquidationThresholdBps uint32
	LiquidationBonusBps     uint32
	BorrowRateBps           uint32
	ReserveFactorBps        uint32
	Accumulator             *big.Int
	TotalAccruedInterest    *big.Int
	LastAccrualLedger       uint64
	Initialized             bool
}

// Position is a borrower's collateral/debt record (spec §3: "positions").
type Position struct {
	SxlmCollateral       *big.Int
	XLMBorrowedPrincipal *big.Int
	BorrowIndex          *big.Int
	LastUpdateLedger     uint64
}

// GetLendingMeta loads the lending singleton.
func (m *Manager) GetLendingMeta() (LendingMeta, bool, error) {
	var meta LendingMeta
	ok, err := m.get(lendingMetaPrefix, []byte(lendingSingletonKey), &meta)
	return meta, ok, err
}

// PutLendingMeta persists the lending singleton.
func (m *Manager) PutLendingMeta(meta LendingMeta) error {
	return m.put(lendingMetaPrefix, []byte(lendingSingletonKey), meta)
}

// GetPosition loads a borrower's position, defaulting to an empty position.
func (m *Manager) GetPosition(owner crypto.Address) (Position, bool, error) {
	var p Position
	ok, err := m.get(lendingPositionPrefix, owner.Bytes(), &p)
	if err != nil {
		return Position{}, false, err
	}
	if !ok {
		return Position{SxlmCollateral: big.NewInt(0), XLMBorrowedPrincipal: big.NewInt(0), BorrowIndex: big.NewInt(0)}, false, nil
	}
	return p, true, nil
}

// PutPosition stores or removes a position. A position with no collateral
// and no debt is removed, matching the per-account lifecycle rule (§3).
func (m *Manager) PutPosition(owner crypto.Address, p Position) error {
	if p.SxlmCollateral.Sign() == 0 && p.XLMBorrowedPrincipal.Sign() == 0 {
		return m.del(lendingPositionPrefix, owner.Bytes())
	}
	return m.put(lendingPositionPrefix, owner.Bytes(), p)
}

// BumpLendingMeta extends the lending singleton's TTL, backing
// bump_instance.
func (m *Manager) BumpLendingMeta() error {
	return m.Bump(lendingMetaPrefix, []byte(lendingSingletonKey))
}

// BumpPosition extends a borrower's position entry TTL.
func (m *Manager) BumpPosition(owner crypto.Address) error {
	return m.Bump(lendingPositionPrefix, owner.Bytes())
}
