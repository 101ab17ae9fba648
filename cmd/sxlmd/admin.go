package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/rajdeep-singha/sXLM/config"
	"github.com/rajdeep-singha/sXLM/observability/logging"
)

// KeeperAdmin exposes the keeper-facing maintenance surface — exchange
// rate recalibration and storage TTL bumps — behind a shared rate limiter,
// mirroring how the teacher's gateway throttles these same kinds of
// low-value, high-frequency keeper calls per client.
type KeeperAdmin struct {
	node    *Node
	limiter *keeperLimiter
}

// NewKeeperAdmin wires the admin surface against node's staking engine.
func NewKeeperAdmin(node *Node) *KeeperAdmin {
	return &KeeperAdmin{
		node:    node,
		limiter: newKeeperLimiter(defaultKeeperRatePerSecond, defaultKeeperBurst),
	}
}

// RecalibrateRate rate-limits calls into staking's RecalibrateRate.
func (a *KeeperAdmin) RecalibrateRate(ctx context.Context) (*big.Int, error) {
	waitCtx, cancel := context.WithTimeout(ctx, defaultKeeperWaitTimeout)
	defer cancel()
	if err := a.limiter.Wait(waitCtx); err != nil {
		return nil, err
	}
	return a.node.Staking.RecalibrateRate()
}

// BumpInstance rate-limits calls that extend the staking singleton's
// storage TTL, guarding against a keeper loop that bumps far more often
// than the TTL window requires.
func (a *KeeperAdmin) BumpInstance(ctx context.Context, withdrawalID *uint64) error {
	waitCtx, cancel := context.WithTimeout(ctx, defaultKeeperWaitTimeout)
	defer cancel()
	if err := a.limiter.Wait(waitCtx); err != nil {
		return err
	}
	return a.node.Staking.BumpInstance(withdrawalID)
}

// adminCmd groups the one-shot operator commands that mutate protocol state
// outside the normal request/response call path: rewards harvested by the
// keeper, an emergency slash, and the admin-pushed lending exchange rate
// (spec §4.2, §4.3, §6 "Admin surface"). Each opens the data directory
// directly rather than going through a running node's RPC surface, the
// same out-of-band admin-tooling shape as the teacher's nhbctl.
func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "operator commands against protocol state",
	}
	cmd.AddCommand(
		addRewardsCmd(),
		applySlashingCmd(),
		updateExchangeRateCmd(),
		recalibrateRateCmd(),
	)
	return cmd
}

// openAdminNode loads config, opens storage, and ensures every module
// singleton is initialized, the shared preamble every admin subcommand
// needs before it can call an engine method as the admin principal.
func openAdminNode() (*Node, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	node, err := NewNode(cfg, logging.Setup("sxlmd-admin", ""))
	if err != nil {
		return nil, fmt.Errorf("construct node: %w", err)
	}
	if err := node.Bootstrap(); err != nil {
		node.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return node, nil
}

func parseStroops(arg string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(arg, 10)
	if !ok {
		return nil, fmt.Errorf("invalid stroop amount %q", arg)
	}
	return amount, nil
}

// addRewardsCmd pulls harvested-interest XLM from the admin wallet into the
// staking reserve, lifting the exchange rate (spec §4.2 add_rewards).
func addRewardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-rewards <stroops>",
		Short: "credit staking rewards from the admin wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseStroops(args[0])
			if err != nil {
				return err
			}
			node, err := openAdminNode()
			if err != nil {
				return err
			}
			defer node.Close()
			if err := node.Staking.AddRewards(node.admin, amount); err != nil {
				return fmt.Errorf("add rewards: %w", err)
			}
			rate, err := node.Staking.GetExchangeRate()
			if err != nil {
				return err
			}
			fmt.Printf("rewards credited; exchange rate now %s\n", rate.String())
			return nil
		},
	}
}

// applySlashingCmd reduces total_xlm_staked by the given amount and
// proportionally reconciles every pending withdrawal (spec §4.2
// apply_slashing, §7/§9 slashing reconciliation).
func applySlashingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply-slashing <stroops>",
		Short: "slash the staking reserve and reconcile pending withdrawals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseStroops(args[0])
			if err != nil {
				return err
			}
			node, err := openAdminNode()
			if err != nil {
				return err
			}
			defer node.Close()
			if err := node.Staking.ApplySlashing(node.admin, amount); err != nil {
				return fmt.Errorf("apply slashing: %w", err)
			}
			rate, err := node.Staking.GetExchangeRate()
			if err != nil {
				return err
			}
			fmt.Printf("slashing applied; exchange rate now %s\n", rate.String())
			return nil
		},
	}
}

// updateExchangeRateCmd pushes the admin-sourced sXLM→XLM rate the lending
// core consumes for health factor and max_borrow (spec §4.3
// update_exchange_rate; the core runs no price oracle of its own, §1).
func updateExchangeRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-exchange-rate <rate>",
		Short: "push a new sXLM/XLM rate into the lending core",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := parseStroops(args[0])
			if err != nil {
				return err
			}
			node, err := openAdminNode()
			if err != nil {
				return err
			}
			defer node.Close()
			if err := node.Lending.UpdateExchangeRate(node.admin, rate); err != nil {
				return fmt.Errorf("update exchange rate: %w", err)
			}
			fmt.Printf("lending exchange rate set to %s\n", rate.String())
			return nil
		},
	}
}

// recalibrateRateCmd is the one-shot CLI equivalent of the keeper's
// periodic recalibrate_rate call, useful for an operator checking the
// current rate without waiting on the keeper loop (spec §4.2).
func recalibrateRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalibrate-rate",
		Short: "emit and print the current staking exchange rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := openAdminNode()
			if err != nil {
				return err
			}
			defer node.Close()
			rate, err := node.Staking.RecalibrateRate()
			if err != nil {
				return fmt.Errorf("recalibrate rate: %w", err)
			}
			fmt.Printf("exchange rate: %s\n", rate.String())
			return nil
		},
	}
}
