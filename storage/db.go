package storage

import (
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/triedb"
)

// Database is a generic interface for a key-value store. Beyond the raw
// Put/Get/Close surface, every backend also exposes the go-ethereum trie
// database built over the same underlying storage, so storage/trie.Trie can
// open a Merkle-Patricia trie against it.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Close() // A way to gracefully shut down the database connection.
	TrieDB() *triedb.Database
}

// --- In-Memory DB (for testing) ---

// MemDB is an in-memory backend, backed by go-ethereum's own memorydb so its
// TrieDB() shares the exact same storage as direct Put/Get calls.
type MemDB struct {
	ethdb  ethdb.Database
	trieDB *triedb.Database
}

func NewMemDB() *MemDB {
	edb := rawdb.NewMemoryDatabase()
	return &MemDB{ethdb: edb, trieDB: triedb.NewDatabase(edb, nil)}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	return db.ethdb.Put(key, value)
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	return db.ethdb.Get(key)
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	db.ethdb.Close()
}

// TrieDB exposes the trie database built over this backend's storage.
func (db *MemDB) TrieDB() *triedb.Database {
	return db.trieDB
}

// --- Persistent DB (for mainnet) ---

// LevelDB is a persistent key-value store, opened through go-ethereum's
// rawdb helper so the same on-disk leveldb instance backs both raw KV access
// and the trie database.
type LevelDB struct {
	ethdb  ethdb.Database
	trieDB *triedb.Database
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	ldbStore, err := leveldb.New(path, 256, 256, "sxlm/", false)
	if err != nil {
		return nil, err
	}
	edb := rawdb.NewDatabase(ldbStore)
	return &LevelDB{ethdb: edb, trieDB: triedb.NewDatabase(edb, nil)}, nil
}

// Put inserts or updates a key-value pair.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.ethdb.Put(key, value)
}

// Get retrieves a value for a given key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.ethdb.Get(key)
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	ldb.ethdb.Close()
}

// TrieDB exposes the trie database built over this backend's storage.
func (ldb *LevelDB) TrieDB() *triedb.Database {
	return ldb.trieDB
}
