package config

import (
	"encoding/hex"
	"os"

	"github.com/rajdeep-singha/sXLM/crypto"

	"github.com/BurntSushi/toml"
)

// StakingConfig holds the tunable parameters for the staking core (§4.2).
type StakingConfig struct {
	CooldownLedgers  uint64 `toml:"CooldownLedgers"`
	ProtocolFeeBps   uint32 `toml:"ProtocolFeeBps"`
	LiquidityBufferB uint32 `toml:"LiquidityBufferBps"`
}

// LendingConfig holds the risk parameters for the lending core (§4.3).
type LendingConfig struct {
	CollateralFactorBps     uint32 `toml:"CollateralFactorBps"`
	LiquidationThresholdBps uint32 `toml:"LiquidationThresholdBps"`
	LiquidationBonusBps     uint32 `toml:"LiquidationBonusBps"`
	BorrowRateBps           uint32 `toml:"BorrowRateBps"`
	ReserveFactorBps        uint32 `toml:"ReserveFactorBps"`
}

// AMMConfig holds the pool parameters for the constant-product AMM (§4.4).
type AMMConfig struct {
	FeeBps uint32 `toml:"FeeBps"`
}

// GovernanceConfig holds the voting parameters for the parameter-governance
// module (§4.5).
type GovernanceConfig struct {
	VotingPeriodLedgers uint64 `toml:"VotingPeriodLedgers"`
	QuorumBps           uint32 `toml:"QuorumBps"`
	ApprovalThresholdBps uint32 `toml:"ApprovalThresholdBps"`
}

// Config is the node's on-disk configuration, covering host settings plus
// the default parameters each native module is initialised with.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	RPCAddress    string `toml:"RPCAddress"`
	DataDir       string `toml:"DataDir"`
	OperatorKey   string `toml:"OperatorKey"`
	// KeystorePath, when set, takes priority over OperatorKey: the node
	// decrypts an Ethereum v3 keystore file (passphrase read from the
	// SXLM_KEYSTORE_PASSPHRASE environment variable) instead of reading a
	// plaintext hex key out of this file.
	KeystorePath string `toml:"KeystorePath"`

	Staking    StakingConfig    `toml:"Staking"`
	Lending    LendingConfig    `toml:"Lending"`
	AMM        AMMConfig        `toml:"AMM"`
	Governance GovernanceConfig `toml:"Governance"`
}

// Load loads the configuration from the given path, creating a default file
// if none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.OperatorKey == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		cfg.OperatorKey = hex.EncodeToString(key.Bytes())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, os.ModePerm)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddress: ":6001",
		RPCAddress:    ":8080",
		DataDir:       "./sxlm-data",
		OperatorKey:   hex.EncodeToString(key.Bytes()),
		Staking: StakingConfig{
			CooldownLedgers:  17280 * 3, // roughly 3 days at 5s ledgers
			ProtocolFeeBps:   1000,      // 10% of rewards
			LiquidityBufferB: 1000,      // not read by the staking engine, which adds each full deposit to the buffer
		},
		Lending: LendingConfig{
			CollateralFactorBps:     7500,
			LiquidationThresholdBps: 8000,
			LiquidationBonusBps:     500,
			BorrowRateBps:           500,
			ReserveFactorBps:        1000,
		},
		AMM: AMMConfig{
			FeeBps: 30,
		},
		Governance: GovernanceConfig{
			VotingPeriodLedgers:  17280, // roughly 1 day
			QuorumBps:            2000,
			ApprovalThresholdBps: 5000,
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
