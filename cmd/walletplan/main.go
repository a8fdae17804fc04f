// Package main plans how a token amount should be spread across wallets so
// that none breaches the per-wallet supply limit, and flags existing
// balances that need rebalancing.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"solana-curve-maker/internal/config"
	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/settlement"
	"solana-curve-maker/internal/solana"
	"solana-curve-maker/internal/wallet"
)

// defaultSupply is the fixed supply of a pump.fun launch, in UI units.
const defaultSupply = 1_000_000_000

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("walletplan", flag.ContinueOnError)
	fs.SetOutput(out)
	total := fs.Float64("total", 0, "Token amount to distribute (UI units)")
	supply := fs.Float64("supply", defaultSupply, "Total token supply (UI units)")
	balances := fs.String("balances", "", "Comma-separated current wallet balances to check")
	configPath := fs.String("config", "", "Engine config to read wallet_limits from")
	mint := fs.String("mint", "", "Read supply from this mint's bonding curve")
	rpcURL := fs.String("rpc-endpoint", "", "Solana RPC endpoint, required with -mint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	limits := domain.DefaultWalletLimits()
	if *configPath != "" {
		p, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		limits = p.Current().WalletLimits
	}
	if err := limits.Validate(); err != nil {
		return err
	}

	if *mint != "" {
		if *rpcURL == "" {
			return fmt.Errorf("-rpc-endpoint is required with -mint")
		}
		rpc := solana.NewHTTPClient(*rpcURL, solana.WithTimeout(15*time.Second))
		curve, err := settlement.NewCurveReader(rpc).Curve(ctx, *mint)
		if err != nil {
			return fmt.Errorf("read curve: %w", err)
		}
		*supply = curve.TotalSupplyUI()
	}
	if *supply <= 0 {
		return fmt.Errorf("supply must be positive")
	}

	fmt.Fprintf(out, "Supply: %.0f tokens, cap %.2f%% per wallet, %d..%d wallets\n",
		*supply, limits.MaxSupplyPercentPerWallet, limits.MinWallets, limits.MaxWallets)

	if *total > 0 {
		plan := wallet.PlanDistribution(*total, *supply, limits)
		fmt.Fprintf(out, "Plan: %d wallets x %.2f tokens (per-wallet cap %.2f)\n",
			plan.WalletsNeeded, plan.TokensPerWallet, plan.PerWalletCap)
		if plan.TokensPerWallet > plan.PerWalletCap {
			fmt.Fprintf(out, "Warning: max_wallets too low, each wallet exceeds the cap\n")
		}
	}

	if *balances != "" {
		bals, err := parseBalances(*balances)
		if err != nil {
			return err
		}
		r := wallet.NeedsRebalance(bals, *supply, limits)
		if !r.Needed {
			fmt.Fprintln(out, "Rebalance: not needed")
			return nil
		}
		fmt.Fprintln(out, "Rebalance: needed")
		for _, i := range r.Overweight {
			fmt.Fprintf(out, "  wallet %d overweight: %.2f tokens\n", i, bals[i])
		}
		for _, i := range r.Underweight {
			fmt.Fprintf(out, "  wallet %d underweight: %.2f tokens\n", i, bals[i])
		}
	}
	return nil
}

func parseBalances(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("balance %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
