package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/rajdeep-singha/sXLM/config"
	"github.com/rajdeep-singha/sXLM/core/state"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/native/amm"
	"github.com/rajdeep-singha/sXLM/native/common"
	"github.com/rajdeep-singha/sXLM/native/governance"
	"github.com/rajdeep-singha/sXLM/native/lending"
	"github.com/rajdeep-singha/sXLM/native/staking"
	"github.com/rajdeep-singha/sXLM/native/token"
	"github.com/rajdeep-singha/sXLM/storage"
	triepkg "github.com/rajdeep-singha/sXLM/storage/trie"
)

// Node wires the five native engines over one shared state manager, the
// shape of the teacher's core.Node but without a consensus/networking layer
// (out of scope per SPEC_FULL.md §3).
type Node struct {
	cfg   *config.Config
	db    storage.Database
	state *state.Manager
	admin crypto.Address
	logger *slog.Logger

	Token      *token.Engine
	Staking    *staking.Engine
	Lending    *lending.Engine
	AMM        *amm.Engine
	Governance *governance.Engine
}

// contractAddress derives a deterministic module identity from a fixed
// label, the contract-treasury equivalent of a keypair-derived account.
func contractAddress(label string) crypto.Address {
	hash := ethcrypto.Keccak256([]byte(label))
	return crypto.MustNewAddress(crypto.SXLMPrefix, hash[:20])
}

// NewNode opens storage, constructs the trie-backed state manager, and
// wires the five native engines together (spec §4, §9 "addresses are
// injected once at initialize").
func NewNode(cfg *config.Config, logger *slog.Logger) (*Node, error) {
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	t, err := triepkg.NewTrie(db, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open trie: %w", err)
	}
	mgr := state.NewManager(t)

	key, err := loadOperatorKey(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load operator key: %w", err)
	}
	admin := key.PubKey().Address()

	stakingSelf := contractAddress("sxlm-staking")
	lendingSelf := contractAddress("sxlm-lending")
	ammSelf := contractAddress("sxlm-amm")

	tokenEngine := token.NewEngine(mgr)
	tokenEngine.SetEmitter(newLogEmitter(logger, "token"))

	stakingEngine := staking.NewEngine(mgr)
	stakingEngine.SetToken(tokenEngine)
	stakingEngine.SetSelf(stakingSelf)
	stakingEngine.SetEmitter(newLogEmitter(logger, "staking"))

	lendingEngine := lending.NewEngine(mgr)
	lendingEngine.SetToken(tokenEngine)
	lendingEngine.SetSelf(lendingSelf)
	lendingEngine.SetEmitter(newLogEmitter(logger, "lending"))

	ammEngine := amm.NewEngine(mgr)
	ammEngine.SetToken(tokenEngine)
	ammEngine.SetSelf(ammSelf)
	ammEngine.SetEmitter(newLogEmitter(logger, "amm"))

	governanceEngine := governance.NewEngine(mgr)
	governanceEngine.SetToken(tokenEngine)
	governanceEngine.SetEmitter(newLogEmitter(logger, "governance"))

	n := &Node{
		cfg:        cfg,
		db:         db,
		state:      mgr,
		admin:      admin,
		logger:     logger,
		Token:      tokenEngine,
		Staking:    stakingEngine,
		Lending:    lendingEngine,
		AMM:        ammEngine,
		Governance: governanceEngine,
	}
	return n, nil
}

// keystorePassphraseEnv names the environment variable loadOperatorKey reads
// the decryption passphrase from when cfg.KeystorePath is set, keeping the
// passphrase out of the TOML config file entirely.
const keystorePassphraseEnv = "SXLM_KEYSTORE_PASSPHRASE"

// loadOperatorKey resolves the node's signing key: an encrypted keystore
// file takes priority when configured, falling back to the plaintext hex
// key historically carried in config.toml.
func loadOperatorKey(cfg *config.Config) (*crypto.PrivateKey, error) {
	if cfg.KeystorePath != "" {
		passphrase := os.Getenv(keystorePassphraseEnv)
		if passphrase == "" {
			return nil, errors.New("keystore configured but " + keystorePassphraseEnv + " is unset")
		}
		return crypto.LoadFromKeystore(cfg.KeystorePath, passphrase)
	}
	return crypto.PrivateKeyFromBytes(mustDecodeHex(cfg.OperatorKey))
}

// Close releases the underlying storage handle.
func (n *Node) Close() {
	n.db.Close()
}

// Bootstrap initializes every module singleton from config defaults, the
// one-shot setup each module's initialize() performs (spec §4, §6 "Admin
// surface"). Calling it again on an already-bootstrapped data directory is
// a no-op, not an error.
func (n *Node) Bootstrap() error {
	sxlmToken := contractAddress("sxlm-token")
	nativeToken := contractAddress("sxlm-native-xlm")
	stakingSelf := contractAddress("sxlm-staking")

	if err := n.Token.Initialize(n.admin, stakingSelf, 7, "Staked XLM", "sXLM"); err != nil {
		if err == common.ErrAlreadyInitialized {
			return nil
		}
		return fmt.Errorf("initialize token: %w", err)
	}
	if err := n.Staking.Initialize(n.admin, sxlmToken, nativeToken, uint32(n.cfg.Staking.CooldownLedgers)); err != nil {
		return fmt.Errorf("initialize staking: %w", err)
	}
	if err := n.Staking.SetProtocolFeeBps(n.admin, uint16(n.cfg.Staking.ProtocolFeeBps)); err != nil {
		return fmt.Errorf("set protocol fee bps: %w", err)
	}
	if err := n.Lending.Initialize(n.admin, sxlmToken, nativeToken,
		n.cfg.Lending.CollateralFactorBps, n.cfg.Lending.LiquidationThresholdBps, n.cfg.Lending.BorrowRateBps); err != nil {
		return fmt.Errorf("initialize lending: %w", err)
	}
	if err := n.Lending.SetLiquidationBonusBps(n.admin, n.cfg.Lending.LiquidationBonusBps); err != nil {
		return fmt.Errorf("set liquidation bonus bps: %w", err)
	}
	if err := n.Lending.SetReserveFactorBps(n.admin, n.cfg.Lending.ReserveFactorBps); err != nil {
		return fmt.Errorf("set reserve factor bps: %w", err)
	}
	if err := n.AMM.Initialize(n.admin, sxlmToken, nativeToken, n.cfg.AMM.FeeBps); err != nil {
		return fmt.Errorf("initialize amm: %w", err)
	}
	if err := n.Governance.Initialize(n.admin, sxlmToken, n.cfg.Governance.VotingPeriodLedgers, n.cfg.Governance.QuorumBps); err != nil {
		return fmt.Errorf("initialize governance: %w", err)
	}
	if err := n.Governance.SetApprovalThresholdBps(n.admin, n.cfg.Governance.ApprovalThresholdBps); err != nil {
		return fmt.Errorf("set approval threshold bps: %w", err)
	}
	return nil
}
