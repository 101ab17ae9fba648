package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rajdeep-singha/sXLM/config"
	"github.com/rajdeep-singha/sXLM/crypto"
	"github.com/rajdeep-singha/sXLM/observability/logging"
)

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "sxlmd",
		Short: "sXLM liquid staking node daemon",
	}
	root.PersistentFlags().StringVar(&configFile, "config", "./config.toml", "path to the configuration file")

	root.AddCommand(initCmd(), startCmd(), genesisCmd(), exportKeystoreCmd(), adminCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initCmd writes a default config.toml (and generates a fresh operator
// key) if one doesn't already exist at --config, the way the teacher's
// keystore bootstrap works on first run.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "create a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Printf("configuration ready at %s (data dir %s)\n", configFile, cfg.DataDir)
			return nil
		},
	}
}

// startCmd opens storage, wires every native module, bootstraps them if
// this is the first run, and blocks serving the process lifetime.
func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "run the sxlmd node",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := strings.TrimSpace(os.Getenv("SXLM_ENV"))
			logger := logging.Setup("sxlmd", env)

			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			node, err := NewNode(cfg, logger)
			if err != nil {
				return fmt.Errorf("construct node: %w", err)
			}
			defer node.Close()

			if err := node.Bootstrap(); err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			admin := NewKeeperAdmin(node)
			go runKeeperLoop(cmd.Context(), admin, logger)

			keySource := "keystore"
			if cfg.KeystorePath == "" {
				keySource = "plaintext config"
			}
			logger.Info("operator key loaded", "source", keySource, logging.MaskField("operator_key", cfg.OperatorKey))
			logger.Info("sxlmd running", "data_dir", cfg.DataDir, "admin", node.admin.String())
			select {}
		},
	}
}

// genesisCmd prints the operator key's derived address without starting
// the node, useful for preparing a genesis allocation.
func genesisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "print the operator address derived from the configured key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			keyBytes, err := hex.DecodeString(cfg.OperatorKey)
			if err != nil {
				return fmt.Errorf("decode operator key: %w", err)
			}
			key, err := crypto.PrivateKeyFromBytes(keyBytes)
			if err != nil {
				return fmt.Errorf("parse operator key: %w", err)
			}
			fmt.Println(key.PubKey().Address().String())
			return nil
		},
	}
}

// exportKeystoreCmd re-encrypts the operator key currently held in plaintext
// hex in config.toml into an Ethereum v3 keystore file, the recommended
// migration path off a plaintext OperatorKey entry before production use.
func exportKeystoreCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-keystore",
		Short: "encrypt the configured operator key into a keystore file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.OperatorKey == "" {
				return fmt.Errorf("config has no plaintext OperatorKey to export")
			}
			keyBytes, err := hex.DecodeString(cfg.OperatorKey)
			if err != nil {
				return fmt.Errorf("decode operator key: %w", err)
			}
			key, err := crypto.PrivateKeyFromBytes(keyBytes)
			if err != nil {
				return fmt.Errorf("parse operator key: %w", err)
			}
			passphrase := strings.TrimSpace(os.Getenv(keystorePassphraseEnv))
			if passphrase == "" {
				return fmt.Errorf("%s must be set to encrypt the keystore file", keystorePassphraseEnv)
			}
			if err := crypto.SaveToKeystore(out, key, passphrase); err != nil {
				return fmt.Errorf("save keystore: %w", err)
			}
			fmt.Printf("keystore written to %s; set KeystorePath=%q in config.toml and clear OperatorKey\n", out, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "./operator.keystore", "path to write the encrypted keystore file")
	return cmd
}

// runKeeperLoop periodically recalibrates the staking exchange rate and
// bumps its storage TTL, the background maintenance a keeper is expected
// to perform (spec §6 external collaborators, §9 "keeper").
func runKeeperLoop(ctx context.Context, admin *KeeperAdmin, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := admin.RecalibrateRate(ctx); err != nil {
				logger.Warn("recalibrate rate failed", "error", err.Error())
			}
			if err := admin.BumpInstance(ctx, nil); err != nil {
				logger.Warn("bump instance failed", "error", err.Error())
			}
		}
	}
}

// mustDecodeHex decodes a hex-encoded private key, panicking on malformed
// config the way the teacher's own bootstrap does for an unrecoverable
// configuration error.
func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("invalid operator key hex: %v", err))
	}
	return b
}
