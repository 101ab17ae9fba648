// Package state implements the trie-backed storage layer shared by every
// native module: typed Get/Put accessors keyed by keccak256(prefix||key),
// RLP-encoded payloads, and the storage TTL bookkeeping the host model
// requires (§5, §9 of the governing specification).
package state

import (
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rajdeep-singha/sXLM/native/common"
	"github.com/rajdeep-singha/sXLM/storage/trie"
)

// entryTTLLedgers is the number of ledgers an entry stays live after it is
// last touched. A keeper is expected to call bump_instance well before this
// window elapses; letting it lapse is recoverable, not fatal (Restore is
// free).
const entryTTLLedgers = 518400 // ~30 days at 5s ledgers, matching the teacher's epoch-length order of magnitude

// envelope wraps every stored payload with its expiration ledger so the
// manager can answer EntryArchived without a second trie lookup.
type envelope struct {
	LiveUntil uint64
	Payload   []byte
}

// Manager owns the Merkle-Patricia trie backing all module state and
// enforces the TTL contract every authenticated call extends (§4.1: "any
// authenticated call must extend the TTL of entries it touches").
type Manager struct {
	trie    *trie.Trie
	ledger  uint64
}

// NewManager wraps an already-constructed trie.
func NewManager(t *trie.Trie) *Manager {
	return &Manager{trie: t}
}

// SetLedger advances the manager's view of the current ledger sequence
// number, used to evaluate and extend TTLs. The engines only read this value
// through Ledger(); none of them calls SetLedger.
func (m *Manager) SetLedger(ledger uint64) {
	m.ledger = ledger
}

// Ledger returns the manager's current ledger sequence number.
func (m *Manager) Ledger() uint64 {
	return m.ledger
}

func hashKey(prefix []byte, key []byte) []byte {
	buf := make([]byte, 0, len(prefix)+len(key))
	buf = append(buf, prefix...)
	buf = append(buf, key...)
	return ethcrypto.Keccak256(buf)
}

// get loads the envelope for prefix||key and decodes out, bumping its TTL on
// the way out since every read here happens inside an authenticated call.
// Returns (false, nil) when the key has never been written.
func (m *Manager) get(prefix, key []byte, out interface{}) (bool, error) {
	raw, err := m.trie.Get(hashKey(prefix, key))
	if err != nil || len(raw) == 0 {
		return false, nil
	}
	var env envelope
	if err := rlp.DecodeBytes(raw, &env); err != nil {
		return false, err
	}
	if env.LiveUntil < m.ledger {
		return false, common.ErrEntryArchived
	}
	if env.LiveUntil < m.ledger+entryTTLLedgers {
		env.LiveUntil = m.ledger + entryTTLLedgers
		encoded, err := rlp.EncodeToBytes(env)
		if err != nil {
			return false, err
		}
		if err := m.trie.Update(hashKey(prefix, key), encoded); err != nil {
			return false, err
		}
	}
	if len(env.Payload) == 0 {
		return true, nil
	}
	if err := rlp.DecodeBytes(env.Payload, out); err != nil {
		return false, err
	}
	return true, nil
}

// put RLP-encodes value and stores it under prefix||key with a freshly
// bumped TTL.
func (m *Manager) put(prefix, key []byte, value interface{}) error {
	payload, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	env := envelope{LiveUntil: m.ledger + entryTTLLedgers, Payload: payload}
	encoded, err := rlp.EncodeToBytes(env)
	if err != nil {
		return err
	}
	return m.trie.Update(hashKey(prefix, key), encoded)
}

// del removes an entry outright (used when a per-account record's
// non-trivial components all return to zero, per the lifecycle rule in §3).
func (m *Manager) del(prefix, key []byte) error {
	return m.trie.Update(hashKey(prefix, key), nil)
}

// Restore clears the archived status of an entry without requiring its
// payload to round-trip, matching the host's documented free-restore
// operation (§5): "expired entries manifest as EntryArchived and must be
// restored (free operation) before further use."
func (m *Manager) Restore(prefix, key []byte) error {
	raw, err := m.trie.Get(hashKey(prefix, key))
	if err != nil || len(raw) == 0 {
		return common.ErrNotFound
	}
	var env envelope
	if err := rlp.DecodeBytes(raw, &env); err != nil {
		return err
	}
	env.LiveUntil = m.ledger + entryTTLLedgers
	encoded, err := rlp.EncodeToBytes(env)
	if err != nil {
		return err
	}
	return m.trie.Update(hashKey(prefix, key), encoded)
}

// Bump extends the TTL of an existing entry without decoding or mutating its
// payload, backing every module's bump_instance operation.
func (m *Manager) Bump(prefix, key []byte) error {
	return m.Restore(prefix, key)
}

// Commit persists all pending trie mutations and returns the new state root.
func (m *Manager) Commit(parent ethcommon.Hash, ledger uint64) (ethcommon.Hash, error) {
	return m.trie.Commit(parent, ledger)
}

// Root returns the trie's last committed root.
func (m *Manager) Root() ethcommon.Hash {
	return m.trie.Root()
}
